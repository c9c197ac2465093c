package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func newTestVoices(n int) []*VoiceBase {
	voices := make([]*VoiceBase, n)
	for i := range voices {
		voices[i] = &VoiceBase{VolumeADSR: NewADSR(10, 10, 0.5, 10)}
	}
	return voices
}

func TestAllocateVoice_PrefersFree(t *testing.T) {
	voices := newTestVoices(4)
	voices[2].Active = true
	idx := AllocateVoice(voices)
	assert.False(t, voices[idx].Active)
}

func TestAllocateVoice_StealsFurthestAlongBeforeOldest(t *testing.T) {
	// With every voice active, a voice in Release (voice 1) is stolen ahead
	// of an older voice still in Attack (voice 0): envelope stage outranks
	// trigger order.
	voices := newTestVoices(2)
	voices[0].Active = true
	voices[0].TriggerOrder = 1
	voices[0].VolumeADSR.Gate(true)
	voices[0].VolumeADSR.Step()

	voices[1].Active = true
	voices[1].TriggerOrder = 2
	voices[1].VolumeADSR.Gate(true)
	voices[1].VolumeADSR.Gate(false) // voice 1 is in Release, more stealable

	idx := AllocateVoice(voices)
	assert.Equal(t, 1, idx)
}

func TestResolveNoteOff_Priority1_OldestActiveWins(t *testing.T) {
	voices := newTestVoices(2)
	for i, v := range voices {
		v.MIDINote = 60
		v.Active = true
		v.TriggerOrder = uint64(i + 1)
		v.VolumeADSR.Gate(true)
	}

	idx, outcome := ResolveNoteOff(voices, 60, 1000, 100)
	assert.Equal(t, NoteOffReleased, outcome)
	assert.Equal(t, 0, idx) // oldest trigger order
	assert.Equal(t, ADSRRelease, voices[0].EnvState())
}

func TestResolveNoteOff_Priority2_IgnoresActiveFlag(t *testing.T) {
	// spec.md §9 "Priority 2 ... explicitly must NOT depend on an active
	// flag".
	voices := newTestVoices(1)
	voices[0].MIDINote = 60
	voices[0].Active = false // already dropped, but still in Release
	voices[0].VolumeADSR.Gate(true)
	voices[0].VolumeADSR.Gate(false)

	idx, outcome := ResolveNoteOff(voices, 60, 1000, 100)
	assert.Equal(t, NoteOffLateDup, outcome)
	assert.Equal(t, 0, idx)
}

func TestResolveNoteOff_Priority3_GraceWindow(t *testing.T) {
	voices := newTestVoices(1)
	voices[0].MIDINote = 60
	voices[0].Active = false
	voices[0].MarkIdle(1000)

	idx, outcome := ResolveNoteOff(voices, 60, 1050, 100)
	assert.Equal(t, NoteOffGraceIgnored, outcome)
	assert.Equal(t, 0, idx)

	// Outside the grace window: not found.
	_, outcome2 := ResolveNoteOff(voices, 60, 1200, 100)
	assert.Equal(t, NoteOffNotFound, outcome2)
}

func TestResolveNoteOff_NotFound_WhenNoteAbsent(t *testing.T) {
	voices := newTestVoices(2)
	_, outcome := ResolveNoteOff(voices, 60, 0, 100)
	assert.Equal(t, NoteOffNotFound, outcome)
}

func TestVoiceBase_MarkIdle_TracksFirstTransition(t *testing.T) {
	v := &VoiceBase{VolumeADSR: NewADSR(0, 0, 0, 0)}
	v.MarkIdle(5)
	assert.True(t, v.IdleRecently(5, 0))
	assert.True(t, v.IdleRecently(100, 1000))
	assert.False(t, v.IdleRecently(106, 100))
}

func TestAllocateVoice_AtMostMaxVoicesActive(t *testing.T) {
	// spec.md §8 invariant 4: at most MAX_VOICES active concurrently, by
	// construction of a fixed-size voice table.
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 16).Draw(t, "n")
		voices := newTestVoices(n)
		noteOns := rapid.IntRange(0, 64).Draw(t, "noteOns")
		for i := 0; i < noteOns; i++ {
			idx := AllocateVoice(voices)
			voices[idx].Trigger(60+i%12, 100, uint64(i+1))
		}
		active := 0
		for _, v := range voices {
			if v.Active {
				active++
			}
		}
		assert.LessOrEqual(t, active, n)
	})
}
