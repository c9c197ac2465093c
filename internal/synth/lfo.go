package synth

import "math"

// LFO is the shared pitch-vibrato oscillator consumed by POLY and
// PHOTOWAVE (spec.md §6 "lfo_vibrato_rate", "lfo_vibrato_depth"). It is
// stepped once per block rather than per sample: vibrato rates are low
// enough (a handful of Hz) that block-rate resolution is inaudible as
// steps, matching the smoothing granularity ADSR's pending-parameter
// scheme already uses elsewhere in this package.
type LFO struct {
	phase float64 // radians, [0, 2π)
}

// NewLFO returns an LFO starting at phase 0.
func NewLFO() *LFO { return &LFO{} }

// Step advances the LFO by one block of blockFrames samples at sampleRate
// and returns the pitch multiplier to apply to a voice's fundamental
// frequency this block: 2^(depthSemis*sin(phase)/12).
func (l *LFO) Step(rateHz, depthSemis float32, sampleRate, blockFrames int) float32 {
	mult := float32(math.Pow(2, float64(depthSemis)*math.Sin(l.phase)/12))

	blockSeconds := float64(blockFrames) / float64(sampleRate)
	l.phase += 2 * math.Pi * float64(rateHz) * blockSeconds
	if l.phase > 2*math.Pi {
		l.phase = math.Mod(l.phase, 2*math.Pi)
	}
	return mult
}
