// Package poly implements the POLY synthesis engine: MIDI-driven polyphony
// whose per-voice spectrum is an image-derived harmonic profile with
// per-harmonic constant-power stereo panning (spec.md §4.3).
package poly

import "github.com/Ondulab/sp3ctra-synth/internal/synth"

// Voice is one POLY voice: the shared base plus per-harmonic phase state.
// Unlike ADDITIVE's shared wavetable-by-stride partials, each voice here
// tracks its own harmonic phases because its fundamental follows the MIDI
// note rather than a fixed table index (spec.md §3 "Voice ... POLY only").
type Voice struct {
	synth.VoiceBase
	harmonicPhase []float64 // fractional wavetable index, one per harmonic, persists across blocks
}

// NewVoice builds an idle voice with room for up to maxHarmonics phases.
func NewVoice(env *synth.ADSR, maxHarmonics int) *Voice {
	return &Voice{
		VoiceBase:     synth.VoiceBase{VolumeADSR: env},
		harmonicPhase: make([]float64, maxHarmonics),
	}
}
