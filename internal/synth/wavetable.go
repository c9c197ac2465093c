// Package synth holds the shared, leaf-level building blocks that the three
// synthesis engines (additive, poly, photowave) are built on: wavetables,
// the partial bank, the slew limiter, ADSR envelopes, voice records, and the
// runtime configuration shape.
package synth

import "math"

// Shape selects which waveform a Wavetable holds.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeSaw
	ShapeSquare
	ShapeTriangle
)

// Wavetable is an immutable buffer of one period of a waveform at the base
// octave. Every higher octave reuses it by phase stride (see PartialBank);
// the table itself never changes after construction.
type Wavetable struct {
	Samples []float32
	Shape   Shape
}

// NewWavetable builds a Wavetable of the given shape and length; lengths
// below 4096 are raised to 4096. A power-of-two length is divisible by every
// 2^octave factor of a partial's stride, but not necessarily by the rounded
// per-octave base step it multiplies (see NewPartialBank).
func NewWavetable(shape Shape, length int) *Wavetable {
	if length < 4096 {
		length = 4096
	}
	samples := make([]float32, length)
	for i := range samples {
		phase := float64(i) / float64(length) // 0..1
		samples[i] = float32(generate(shape, phase))
	}
	return &Wavetable{Samples: samples, Shape: shape}
}

func generate(shape Shape, phase float64) float64 {
	switch shape {
	case ShapeSine:
		return math.Sin(2 * math.Pi * phase)
	case ShapeSaw:
		return 2*phase - 1
	case ShapeSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case ShapeTriangle:
		return 2*math.Abs(2*(phase-math.Floor(phase+0.5))) - 1
	default:
		return 0
	}
}

// Len returns the table length.
func (w *Wavetable) Len() int { return len(w.Samples) }

// At returns the sample at phase index p, wrapping p into [0, Len).
func (w *Wavetable) At(p int) float32 {
	n := len(w.Samples)
	p %= n
	if p < 0 {
		p += n
	}
	return w.Samples[p]
}
