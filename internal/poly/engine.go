package poly

import (
	"math"
	"time"

	"github.com/Ondulab/sp3ctra-synth/internal/midi"
	"github.com/Ondulab/sp3ctra-synth/internal/mixer"
	"github.com/Ondulab/sp3ctra-synth/internal/synth"
	"github.com/Ondulab/sp3ctra-synth/internal/synthlog"
)

// HarmonicProfile is the per-block image-derived spectrum POLY consumes
// (spec.md §6 "Image preprocessor -> POLY"): for harmonic h, gL[h]/gR[h]
// split spectral magnitude S[h] by a color-derived pan with
// gL[h]^2 + gR[h]^2 = S[h]^2, enforced by the preprocessor, not this engine.
type HarmonicProfile struct {
	GainL []float32
	GainR []float32
}

// Engine is the POLY producer: a fixed voice table, a harmonic profile
// snapshot, and a MIDI intake queue (spec.md §5 "Voice tables ... written
// only by their engine's producer").
type Engine struct {
	cfg     synth.Config
	table   *synth.Wavetable
	voices  []*Voice
	profile HarmonicProfile
	queue   *midi.Queue
	out     *mixer.DoubleBuffer

	lfo         *synth.LFO
	nextOrder   uint64
	sampleClock uint64
}

// NewEngine builds numVoices idle voices, each able to track up to
// maxHarmonics independently phased partials.
func NewEngine(cfg synth.Config, table *synth.Wavetable, queue *midi.Queue) *Engine {
	voices := make([]*Voice, cfg.NumVoicesPoly)
	for i := range voices {
		env := synth.NewADSR(cfg.AttackSamples(), cfg.DecaySamples(), cfg.VolumeEnvSustain, cfg.ReleaseSamples())
		voices[i] = NewVoice(env, cfg.MaxHarmonicsPerVoice)
	}
	return &Engine{
		cfg:    cfg,
		table:  table,
		voices: voices,
		queue:  queue,
		out:    mixer.NewDoubleBuffer(cfg.AudioBufferSize),
		lfo:    synth.NewLFO(),
	}
}

// Output returns the DoubleBuffer the mixer should consume from.
func (e *Engine) Output() *mixer.DoubleBuffer { return e.out }

// ApplyHarmonicProfile replaces the per-harmonic gain pairs used by every
// voice this block (spec.md §6: applies at the next block boundary).
func (e *Engine) ApplyHarmonicProfile(p HarmonicProfile) { e.profile = p }

// Run drives ProduceBlock once per block period until shutdown is
// signalled (spec.md §9 "Continuous production").
func (e *Engine) Run(shutdown *synth.Shutdown) {
	blockPeriod := time.Duration(e.cfg.AudioBufferSize) * time.Second / time.Duration(e.cfg.SampleRate)
	synth.RunProducer(shutdown, blockPeriod, e.ProduceBlock)
}

// drainMIDI processes every queued event at the start of a block (spec.md
// §5 "visible to a producer at the start of block B take effect no later
// than the first frame of block B+1").
func (e *Engine) drainMIDI() {
	for _, ev := range e.queue.DrainAll() {
		switch ev.Kind {
		case midi.NoteOn:
			e.noteOn(ev.Note, ev.Velocity)
		case midi.NoteOff:
			e.noteOff(ev.Note)
		case midi.ControlChange:
			// CC-driven parameter updates (spec.md §6) are engine-specific
			// extensions left to the top-level wiring; POLY's core synthesis
			// path has no CC-mapped parameter of its own.
		}
	}
}

func (e *Engine) noteOn(note, velocity int) {
	idx := synth.AllocateVoice(e.voices)
	v := e.voices[idx]
	e.nextOrder++
	v.Trigger(note, velocity, e.nextOrder)
	for h := range v.harmonicPhase {
		v.harmonicPhase[h] = 0
	}
}

func (e *Engine) noteOff(note int) {
	grace := synth.IdleGraceSamples(e.cfg.SampleRate)
	idx, outcome := synth.ResolveNoteOff(e.voices, note, e.sampleClock, grace)
	switch outcome {
	case synth.NoteOffReleased:
		synthlog.Debug("poly note-off released", "note", note, "voice", idx)
	case synth.NoteOffLateDup:
		synthlog.Debug("poly note-off late duplicate", "note", note, "voice", idx)
	case synth.NoteOffGraceIgnored:
		synthlog.Debug("poly note-off grace ignored", "note", note, "voice", idx)
	case synth.NoteOffNotFound:
		synthlog.Warn("poly note-off: no voice found", "note", note)
	}
}

func midiNoteFrequency(note int) float64 {
	return 440.0 * math.Pow(2, (float64(note)-69)/12.0)
}

// ProduceBlock renders one block into the DoubleBuffer. Every voice's
// envelope and harmonic phases advance exactly once per call, regardless of
// whether any voice is active (spec.md §9 "Continuous production").
func (e *Engine) ProduceBlock() {
	e.drainMIDI()

	frames := e.cfg.AudioBufferSize
	left, right := e.out.WriteSlot()
	for i := range left {
		left[i] = 0
		right[i] = 0
	}

	limitHz := float64(e.cfg.HighFreqHarmonicLimitHz)
	tableLen := float64(e.table.Len())
	sr := float64(e.cfg.SampleRate)
	master := e.cfg.MasterVolume

	// Shared vibrato LFO (spec.md §6 "lfo_vibrato_rate"/"lfo_vibrato_depth"):
	// one oscillator modulates every voice's fundamental identically, the
	// same way a single low-frequency source drives pitch modulation on
	// real synthesizers.
	pitchMult := float64(e.lfo.Step(e.cfg.LFOVibratoRateHz, e.cfg.LFOVibratoDepthSemis, e.cfg.SampleRate, frames))

	for _, v := range e.voices {
		v.VolumeADSR.ApplyPending()
		f0 := midiNoteFrequency(v.MIDINote) * pitchMult
		velScale := float32(v.Velocity) / 127.0

		for i := 0; i < frames; i++ {
			level := v.VolumeADSR.Step()
			amp := level * velScale * master
			if amp == 0 {
				for h := range v.harmonicPhase {
					fh := f0 * float64(h+1)
					if fh >= limitHz {
						break
					}
					v.harmonicPhase[h] += fh * tableLen / sr
				}
				continue
			}
			var l, r float32
			for h := range v.harmonicPhase {
				fh := f0 * float64(h+1)
				if fh >= limitHz || h >= len(e.profile.GainL) {
					break
				}
				s := e.table.At(int(v.harmonicPhase[h]))
				l += s * e.profile.GainL[h]
				r += s * e.profile.GainR[h]
				v.harmonicPhase[h] += fh * tableLen / sr
				if v.harmonicPhase[h] >= tableLen {
					v.harmonicPhase[h] -= tableLen
				}
			}
			left[i] += l * amp
			right[i] += r * amp
		}

		v.MarkIdle(e.sampleClock + uint64(frames))
		if v.EnvState() == synth.ADSRIdle {
			v.Active = false
		}
	}

	// No dynamic per-voice normalization: constant master scale then hard
	// clip (spec.md §4.3 "No dynamic per-voice normalization").
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
