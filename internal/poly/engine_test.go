package poly

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ondulab/sp3ctra-synth/internal/midi"
	"github.com/Ondulab/sp3ctra-synth/internal/synth"
)

func testConfig(numVoices int) synth.Config {
	cfg := synth.DefaultConfig()
	cfg.SampleRate = 48000
	cfg.AudioBufferSize = 64
	cfg.NumVoicesPoly = numVoices
	cfg.MaxHarmonicsPerVoice = 8
	cfg.HighFreqHarmonicLimitHz = 18000
	cfg.VolumeEnvAttack = 0.01
	cfg.VolumeEnvDecay = 0
	cfg.VolumeEnvSustain = 1
	cfg.VolumeEnvRelease = 0.1
	return cfg
}

func unitHarmonicProfile(n int) HarmonicProfile {
	gL := make([]float32, n)
	gR := make([]float32, n)
	gL[0] = 1 / float32(1.4142135)
	gR[0] = gL[0]
	return HarmonicProfile{GainL: gL, GainR: gR}
}

func TestEngine_SingleNote_LRPeaksEqual(t *testing.T) {
	// spec.md §8 end-to-end scenario 2.
	cfg := testConfig(4)
	table := synth.NewWavetable(synth.ShapeSine, 8192)
	queue := midi.NewQueue(16)
	e := NewEngine(cfg, table, queue)
	e.ApplyHarmonicProfile(unitHarmonicProfile(cfg.MaxHarmonicsPerVoice))

	queue.Push(midi.Event{Kind: midi.NoteOn, Note: 60, Velocity: 127})

	blocksFor := func(seconds float64) int {
		return int(seconds*float64(cfg.SampleRate))/cfg.AudioBufferSize + 1
	}

	var peakL, peakR float32
	for i := 0; i < blocksFor(0.05); i++ {
		e.ProduceBlock()
		l, r, _ := e.Output().TryConsume()
		for j := range l {
			if l[j] > peakL {
				peakL = l[j]
			}
			if r[j] > peakR {
				peakR = r[j]
			}
		}
	}

	queue.Push(midi.Event{Kind: midi.NoteOff, Note: 60})

	for i := 0; i < blocksFor(0.2); i++ {
		e.ProduceBlock()
		l, r, _ := e.Output().TryConsume()
		for j := range l {
			if l[j] > peakL {
				peakL = l[j]
			}
			if r[j] > peakR {
				peakR = r[j]
			}
		}
	}

	assert.Greater(t, peakL, float32(0))
	assert.InDelta(t, float64(peakL), float64(peakR), float64(peakL)*0.01+1e-6)
}

func TestEngine_VoiceStealing_OldestStolen(t *testing.T) {
	// spec.md §8 end-to-end scenario 3: num_voices=2, NoteOn 60,62,64
	// rapidly -> voice holding note 60 (oldest trigger_order) is stolen.
	cfg := testConfig(2)
	table := synth.NewWavetable(synth.ShapeSine, 8192)
	queue := midi.NewQueue(16)
	e := NewEngine(cfg, table, queue)
	e.ApplyHarmonicProfile(unitHarmonicProfile(cfg.MaxHarmonicsPerVoice))

	queue.Push(midi.Event{Kind: midi.NoteOn, Note: 60, Velocity: 100})
	queue.Push(midi.Event{Kind: midi.NoteOn, Note: 62, Velocity: 100})
	queue.Push(midi.Event{Kind: midi.NoteOn, Note: 64, Velocity: 100})

	e.ProduceBlock()

	notes := map[int]bool{}
	for _, v := range e.voices {
		if v.Active {
			notes[v.MIDINote] = true
		}
	}
	assert.False(t, notes[60])
	assert.True(t, notes[62])
	assert.True(t, notes[64])
}

func TestEngine_ContinuousProduction_AlwaysPublishes(t *testing.T) {
	// spec.md §9 "Continuous production": a block is produced even with no
	// active voices.
	cfg := testConfig(4)
	table := synth.NewWavetable(synth.ShapeSine, 8192)
	queue := midi.NewQueue(16)
	e := NewEngine(cfg, table, queue)

	for i := 0; i < 5; i++ {
		e.ProduceBlock()
		_, _, ok := e.Output().TryConsume()
		assert.True(t, ok)
	}
}

func TestEngine_OutputNeverExceedsUnitRange(t *testing.T) {
	cfg := testConfig(4)
	table := synth.NewWavetable(synth.ShapeSine, 8192)
	queue := midi.NewQueue(16)
	e := NewEngine(cfg, table, queue)
	e.ApplyHarmonicProfile(unitHarmonicProfile(cfg.MaxHarmonicsPerVoice))
	queue.Push(midi.Event{Kind: midi.NoteOn, Note: 60, Velocity: 127})

	for i := 0; i < 20; i++ {
		e.ProduceBlock()
		l, r, ok := e.Output().TryConsume()
		if !ok {
			continue
		}
		for j := range l {
			assert.GreaterOrEqual(t, l[j], float32(-1))
			assert.LessOrEqual(t, l[j], float32(1))
			assert.GreaterOrEqual(t, r[j], float32(-1))
			assert.LessOrEqual(t, r[j], float32(1))
		}
	}
}
