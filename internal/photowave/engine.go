package photowave

import (
	"math"
	"time"

	"github.com/Ondulab/sp3ctra-synth/internal/midi"
	"github.com/Ondulab/sp3ctra-synth/internal/mixer"
	"github.com/Ondulab/sp3ctra-synth/internal/synth"
	"github.com/Ondulab/sp3ctra-synth/internal/synthlog"
)

// Engine is the PHOTOWAVE producer: a fixed voice table, the current
// waveform snapshot, and a MIDI intake queue.
type Engine struct {
	cfg      synth.Config
	waveform []float32
	voices   []*Voice
	queue    *midi.Queue
	out      *mixer.DoubleBuffer

	lfo         *synth.LFO
	nextOrder   uint64
	sampleClock uint64
}

// NewEngine builds numVoices idle voices, each with independent volume and
// filter envelopes (spec.md §3 "dual ADSR").
func NewEngine(cfg synth.Config, queue *midi.Queue) *Engine {
	voices := make([]*Voice, cfg.NumVoicesPhotowave)
	for i := range voices {
		volEnv := synth.NewADSR(cfg.AttackSamples(), cfg.DecaySamples(), cfg.VolumeEnvSustain, cfg.ReleaseSamples())
		filterEnv := synth.NewADSR(cfg.FilterAttackSamples(), cfg.FilterDecaySamples(), cfg.FilterEnvSustain, cfg.FilterReleaseSamples())
		voices[i] = NewVoice(volEnv, filterEnv, ScanForward, InterpLinear)
	}
	return &Engine{
		cfg:    cfg,
		queue:  queue,
		voices: voices,
		out:    mixer.NewDoubleBuffer(cfg.AudioBufferSize),
		lfo:    synth.NewLFO(),
	}
}

// Output returns the DoubleBuffer the mixer should consume from.
func (e *Engine) Output() *mixer.DoubleBuffer { return e.out }

// ApplyWaveform replaces the waveform every voice scans through (spec.md §6
// "Image preprocessor -> PHOTOWAVE"). Takes effect at the next block since
// voices only read e.waveform between blocks, never mid-block.
func (e *Engine) ApplyWaveform(w []float32) { e.waveform = w }

// Run drives ProduceBlock once per block period until shutdown is
// signalled. PHOTOWAVE must produce every cycle even when idle (spec.md
// §4.4 "Produces continuously"), so Run never skips a call.
func (e *Engine) Run(shutdown *synth.Shutdown) {
	blockPeriod := time.Duration(e.cfg.AudioBufferSize) * time.Second / time.Duration(e.cfg.SampleRate)
	synth.RunProducer(shutdown, blockPeriod, e.ProduceBlock)
}

func (e *Engine) drainMIDI() {
	for _, ev := range e.queue.DrainAll() {
		switch ev.Kind {
		case midi.NoteOn:
			e.noteOn(ev.Note, ev.Velocity)
		case midi.NoteOff:
			e.noteOff(ev.Note)
		case midi.ControlChange:
			// Engine-specific CC mapping (scan mode, interp mode) is left to
			// the top-level wiring; no core parameter reacts to CC directly.
		}
	}
}

func (e *Engine) noteOn(note, velocity int) {
	idx := synth.AllocateVoice(e.voices)
	v := e.voices[idx]
	e.nextOrder++
	v.Trigger(note, velocity, e.nextOrder)
}

func (e *Engine) noteOff(note int) {
	grace := synth.IdleGraceSamples(e.cfg.SampleRate)
	idx, outcome := synth.ResolveNoteOff(e.voices, note, e.sampleClock, grace)
	switch outcome {
	case synth.NoteOffReleased:
		synthlog.Debug("photowave note-off released", "note", note, "voice", idx)
	case synth.NoteOffLateDup:
		synthlog.Debug("photowave note-off late duplicate", "note", note, "voice", idx)
	case synth.NoteOffGraceIgnored:
		synthlog.Debug("photowave note-off grace ignored", "note", note, "voice", idx)
	case synth.NoteOffNotFound:
		synthlog.Warn("photowave note-off: no voice found", "note", note)
	}
}

func midiNoteFrequency(note int) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69)/12.0)
}

// sampleWaveform reads the waveform at a fractional position using the
// voice's interp mode.
func sampleWaveform(w []float32, pos float64, mode InterpMode) float32 {
	n := len(w)
	if n == 0 {
		return 0
	}
	if mode == InterpNearest {
		i := int(pos) % n
		if i < 0 {
			i += n
		}
		return w[i]
	}
	i0 := int(math.Floor(pos))
	frac := float32(pos - math.Floor(pos))
	i0 %= n
	if i0 < 0 {
		i0 += n
	}
	i1 := (i0 + 1) % n
	return w[i0]*(1-frac) + w[i1]*frac
}

// advanceScan moves a voice's scan position by one step of the given
// length, honoring ScanMode (spec.md §4.4).
func advanceScan(v *Voice, step float64, waveformLen int) {
	if waveformLen == 0 {
		return
	}
	n := float64(waveformLen)
	switch v.ScanMode {
	case ScanForward:
		v.ScanPosition += step
		for v.ScanPosition >= n {
			v.ScanPosition -= n
		}
	case ScanReverse:
		v.ScanPosition -= step
		for v.ScanPosition < 0 {
			v.ScanPosition += n
		}
	case ScanPingPong:
		if v.forward {
			v.ScanPosition += step
			if v.ScanPosition >= n-1 {
				v.ScanPosition = n - 1
				v.forward = false
			}
		} else {
			v.ScanPosition -= step
			if v.ScanPosition <= 0 {
				v.ScanPosition = 0
				v.forward = true
			}
		}
	}
}

// onePoleLowPass applies a single-sample one-pole low-pass update to state,
// returning the new filtered value. cutoffHz is clamped to a sane fraction
// of sampleRate to keep the coefficient in [0,1].
func onePoleLowPass(state *float32, input float32, cutoffHz, sampleRate float32) float32 {
	if cutoffHz > sampleRate/2 {
		cutoffHz = sampleRate / 2
	}
	if cutoffHz < 1 {
		cutoffHz = 1
	}
	coeff := float32(1 - math.Exp(-2*math.Pi*float64(cutoffHz)/float64(sampleRate)))
	*state += coeff * (input - *state)
	return *state
}

// ProduceBlock renders one block. Every voice produces a full block every
// cycle, silent or not (spec.md §4.4 "Produces continuously" / §9
// "Continuous production") so the consumer never races an idle producer.
func (e *Engine) ProduceBlock() {
	e.drainMIDI()

	frames := e.cfg.AudioBufferSize
	left, right := e.out.WriteSlot()
	for i := range left {
		left[i] = 0
		right[i] = 0
	}

	sr := float32(e.cfg.SampleRate)
	waveform := e.waveform // one snapshot per block
	waveformLen := len(waveform)

	// Shared vibrato LFO, same shape as POLY's (spec.md §6
	// "lfo_vibrato_rate"/"lfo_vibrato_depth"): modulates every voice's scan
	// speed identically.
	pitchMult := float64(e.lfo.Step(e.cfg.LFOVibratoRateHz, e.cfg.LFOVibratoDepthSemis, e.cfg.SampleRate, frames))

	for _, v := range e.voices {
		v.VolumeADSR.ApplyPending()
		v.FilterADSR.ApplyPending()

		f0 := midiNoteFrequency(v.MIDINote) * pitchMult
		step := f0 * float64(waveformLen) / float64(sr)
		velScale := float32(v.Velocity) / 127.0

		for i := 0; i < frames; i++ {
			volLevel := v.VolumeADSR.Step()
			filtLevel := v.FilterADSR.Step()

			raw := sampleWaveform(waveform, v.ScanPosition, v.InterpMode)
			advanceScan(v, step, waveformLen)

			// Filter applied post-ADSR: envelope shapes amplitude first, the
			// one-pole filter shapes the already-enveloped signal second.
			enveloped := raw * volLevel * velScale
			cutoff := e.cfg.FilterCutoffHz + filtLevel*e.cfg.FilterEnvDepth
			filtered := onePoleLowPass(&v.filterState, enveloped, cutoff, sr)

			left[i] += filtered
			right[i] += filtered
		}

		v.MarkIdle(e.sampleClock + uint64(frames))
		if v.EnvState() == synth.ADSRIdle {
			v.Active = false
		}
	}

	for i := 0; i < frames; i++ {
		left[i] = clampUnit(left[i])
		right[i] = clampUnit(right[i])
	}

	e.sampleClock += uint64(frames)
	e.out.Publish(e.sampleClock)
}

func clampUnit(v float32) float32 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
