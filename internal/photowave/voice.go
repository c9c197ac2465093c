// Package photowave implements the PHOTOWAVE synthesis engine: MIDI-driven
// waveform scanning with dual ADSR envelopes (amplitude + filter), voice
// stealing, and trigger-order-aware note-off (spec.md §4.4).
package photowave

import "github.com/Ondulab/sp3ctra-synth/internal/synth"

// ScanMode selects how a voice's scan position moves through the waveform.
type ScanMode int

const (
	ScanForward ScanMode = iota
	ScanReverse
	ScanPingPong
)

// InterpMode selects how a fractional scan position is sampled.
type InterpMode int

const (
	InterpNearest InterpMode = iota
	InterpLinear
)

// Voice is one PHOTOWAVE voice: the shared base, a second ADSR driving the
// filter cutoff, and waveform-scan state (spec.md §3 "Voice ... PHOTOWAVE
// only").
type Voice struct {
	synth.VoiceBase
	FilterADSR *synth.ADSR

	ScanPosition float64 // fractional index into the current waveform
	ScanMode     ScanMode
	InterpMode   InterpMode
	forward      bool // current direction, used by ScanPingPong

	filterState float32 // one-pole low-pass filter memory
}

// NewVoice builds an idle voice with its own volume and filter envelopes.
func NewVoice(volumeEnv, filterEnv *synth.ADSR, scanMode ScanMode, interpMode InterpMode) *Voice {
	return &Voice{
		VoiceBase:  synth.VoiceBase{VolumeADSR: volumeEnv},
		FilterADSR: filterEnv,
		ScanMode:   scanMode,
		InterpMode: interpMode,
		forward:    true,
	}
}

// Release gates both envelopes into Release (spec.md §4.4 dual ADSR).
func (v *Voice) Release() {
	v.VoiceBase.Release()
	v.FilterADSR.Gate(false)
}

// Trigger starts a new note on both envelopes and resets scan position.
func (v *Voice) Trigger(note, velocity int, order uint64) {
	v.VoiceBase.Trigger(note, velocity, order)
	v.FilterADSR.Reset()
	v.FilterADSR.Gate(true)
	v.ScanPosition = 0
	v.forward = true
	v.filterState = 0
}
