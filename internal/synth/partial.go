package synth

import "math"

// Partial is one oscillator in the additive engine's bank (spec.md §3
// "Partial (ADDITIVE)"). It never reallocates once the bank is built; its
// mutable fields (CurrentVolume, PhaseIndex, pan) are touched every sample
// by exactly one additive worker.
type Partial struct {
	NoteIndex    int // [0, N_PARTIALS)
	OctaveStride int // 2^octave
	stride       int // total per-sample phase increment into the table
	PhaseIndex   int
	FrequencyHz  float32

	CurrentVolume   float32
	TargetVolume    float32
	VolumeIncrement float32
	VolumeDecrement float32

	PanLeft  float32
	PanRight float32
}

// Step advances this partial by one sample: slews CurrentVolume one step
// toward TargetVolume (bounded by VolumeIncrement/VolumeDecrement), advances
// PhaseIndex modulo the table length, and returns the raw table sample
// scaled by the post-slew volume (not yet pan-scaled). Callers multiply by
// PanLeft/PanRight to split into stereo.
func (p *Partial) Step(table *Wavetable) float32 {
	if p.CurrentVolume < p.TargetVolume {
		p.CurrentVolume += p.VolumeIncrement
		if p.CurrentVolume > p.TargetVolume {
			p.CurrentVolume = p.TargetVolume
		}
	} else if p.CurrentVolume > p.TargetVolume {
		p.CurrentVolume -= p.VolumeDecrement
		if p.CurrentVolume < p.TargetVolume {
			p.CurrentVolume = p.TargetVolume
		}
	}
	if p.CurrentVolume < 0 {
		p.CurrentVolume = 0
	} else if p.CurrentVolume > VMax {
		p.CurrentVolume = VMax
	}

	sample := table.At(p.PhaseIndex) * (p.CurrentVolume / VMax)

	p.PhaseIndex += p.stride
	n := table.Len()
	p.PhaseIndex %= n
	if p.PhaseIndex < 0 {
		p.PhaseIndex += n
	}

	return sample
}

// PartialBank owns the fixed array of N_PARTIALS oscillators used by the
// additive engine. Allocated once at init; never freed or reallocated while
// audio is streaming (spec.md §3 "Lifecycle").
type PartialBank struct {
	Table            *Wavetable
	Partials         []Partial
	PartialsPerOctave int
	SampleRate       int
}

// NewPartialBank builds N partials whose frequencies follow
// f0 * 2^(noteIndex/partialsPerOctave), using the "one wavetable for all
// octaves" scheme from spec.md §4.1: each partial's phase stride is a
// per-octave fractional base step multiplied by 2^octave, so L mod stride
// == 0 for every octave actually in use as long as the base step for
// fracIndex==0 (the octave boundary) divides L.
func NewPartialBank(table *Wavetable, n, partialsPerOctave int, f0 float32, sampleRate int) *PartialBank {
	if partialsPerOctave < 1 {
		partialsPerOctave = 1
	}
	bank := &PartialBank{
		Table:             table,
		Partials:          make([]Partial, n),
		PartialsPerOctave: partialsPerOctave,
		SampleRate:        sampleRate,
	}

	L := table.Len()
	// Precompute the octave-0 base step for each fractional position once;
	// every partial in a higher octave reuses the same fractional entry
	// multiplied by its own octave_stride.
	baseSteps := make([]int, partialsPerOctave)
	for frac := 0; frac < partialsPerOctave; frac++ {
		freq := float64(f0) * math.Pow(2, float64(frac)/float64(partialsPerOctave))
		step := int(math.Round(freq * float64(L) / float64(sampleRate)))
		if step < 1 {
			step = 1
		}
		baseSteps[frac] = step
	}

	defaultPan := float32(1 / math.Sqrt2)
	for i := 0; i < n; i++ {
		frac := i % partialsPerOctave
		octave := i / partialsPerOctave
		octaveStride := 1 << uint(octave)
		totalStride := baseSteps[frac] * octaveStride
		freqHz := float32(totalStride) * float32(sampleRate) / float32(L)

		step := GapLimiterStep(totalStride, L)

		bank.Partials[i] = Partial{
			NoteIndex:       i,
			OctaveStride:    octaveStride,
			stride:          totalStride,
			FrequencyHz:     freqHz,
			VolumeIncrement: step,
			VolumeDecrement: step,
			PanLeft:         defaultPan,
			PanRight:        defaultPan,
		}
	}
	return bank
}

// SetTargetMono sets the same target volume for L/R pan (mono stereo_mode).
func (b *PartialBank) SetTargetMono(i int, target uint16) {
	b.Partials[i].TargetVolume = float32(target)
}

// SetTargetWarmCold sets a single target volume, the larger of warm and
// cold, and a constant-power pan from the warm/cold balance: all-warm pans
// fully left, all-cold fully right, equal warm and cold pans centre. When
// both are zero only the target is set (to 0) and the pan is left as is.
func (b *PartialBank) SetTargetWarmCold(i int, warm, cold uint16) {
	p := &b.Partials[i]
	total := float32(warm) + float32(cold)
	if total == 0 {
		p.TargetVolume = 0
		return
	}
	p.TargetVolume = float32(math.Max(float64(warm), float64(cold)))
	// constant-power pan derived from the warm/cold balance
	t := float64(warm) / float64(total) // 0..1, 1 = fully warm (left)
	p.PanLeft = float32(math.Sin(t * math.Pi / 2))
	p.PanRight = float32(math.Cos(t * math.Pi / 2))
}
