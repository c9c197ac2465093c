package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestADSR_NoteOnThenOff_ReachesIdle(t *testing.T) {
	// spec.md §8 "Note-on followed by immediate note-off on the same note
	// reduces that note's ADSR to Idle within attack_s + release_s + 1 block".
	attackSamples := 100
	releaseSamples := 200
	e := NewADSR(attackSamples, 0, 1.0, releaseSamples)

	e.Gate(true)
	for i := 0; i < attackSamples+10; i++ {
		e.Step()
	}
	assert.Equal(t, ADSRSustain, e.State())

	e.Gate(false)
	for i := 0; i < releaseSamples+1; i++ {
		e.Step()
	}
	assert.Equal(t, ADSRIdle, e.State())
	assert.Equal(t, float32(0), e.Level())
}

func TestADSR_LevelAlwaysInUnitRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		attack := rapid.IntRange(0, 2000).Draw(t, "attack")
		decay := rapid.IntRange(0, 2000).Draw(t, "decay")
		sustain := float32(rapid.Float64Range(0, 1).Draw(t, "sustain"))
		release := rapid.IntRange(0, 2000).Draw(t, "release")

		e := NewADSR(attack, decay, sustain, release)
		e.Gate(true)
		steps := rapid.IntRange(0, 4000).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			lvl := e.Step()
			assert.GreaterOrEqual(t, lvl, float32(0))
			assert.LessOrEqual(t, lvl, float32(1))
		}
	})
}

func TestADSR_IdleUntilGated(t *testing.T) {
	e := NewADSR(10, 10, 0.5, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, float32(0), e.Step())
		assert.Equal(t, ADSRIdle, e.State())
	}
}

func TestADSR_StealRank_Ordering(t *testing.T) {
	assert.Less(t, ADSRRelease.StealRank(), ADSRSustain.StealRank())
	assert.Less(t, ADSRSustain.StealRank(), ADSRDecay.StealRank())
	assert.Less(t, ADSRDecay.StealRank(), ADSRAttack.StealRank())
	assert.Less(t, ADSRIdle.StealRank(), ADSRRelease.StealRank())
}

func TestADSR_ApplyPending_DoesNotChangeMidBlock(t *testing.T) {
	e := NewADSR(100, 100, 0.5, 100)
	e.Gate(true)
	e.SetParams(500, 500, 0.9, 500)
	// Before ApplyPending, the in-flight attack keeps its original length.
	for i := 0; i < 100; i++ {
		e.Step()
	}
	assert.Equal(t, ADSRDecay, e.State())
}
