package mixer

import (
	"time"

	"github.com/Ondulab/sp3ctra-synth/internal/synthlog"
)

// missFlushInterval bounds how often a buffer-miss run produces a log line,
// keeping a stuck producer from flooding the log (spec.md §7 "logged only
// via a throttled aggregator outside the RT path").
const missFlushInterval = time.Second

// EngineID names the three producers the mixer pulls from (spec.md §2).
type EngineID int

const (
	EngineAdditive EngineID = iota
	EnginePoly
	EnginePhotowave
	numEngines
)

// Mixer is the single consumer that runs on the audio driver's RT thread
// (spec.md §4.5). It never blocks, allocates, or logs beyond a nonblocking
// counter increment.
type Mixer struct {
	buffers [numEngines]*DoubleBuffer
	gains   [numEngines]float32 // snapshot taken at callback entry, not read per sample
	misses  [numEngines]*synthlog.Throttle
}

// NewMixer wires one DoubleBuffer per engine. gains are the initial
// per-engine mix levels (spec.md §6 "mix_level"); update them with SetGain
// between callbacks.
func NewMixer(additive, poly, photowave *DoubleBuffer, gainAdditive, gainPoly, gainPhotowave float32) *Mixer {
	m := &Mixer{
		buffers: [numEngines]*DoubleBuffer{EngineAdditive: additive, EnginePoly: poly, EnginePhotowave: photowave},
		gains:   [numEngines]float32{EngineAdditive: gainAdditive, EnginePoly: gainPoly, EnginePhotowave: gainPhotowave},
	}
	names := [numEngines]string{EngineAdditive: "additive", EnginePoly: "poly", EnginePhotowave: "photowave"}
	for i := range m.misses {
		m.misses[i] = synthlog.NewThrottle(names[i]+"_buffer_miss", missFlushInterval)
	}
	return m
}

// SetGain updates an engine's mix level. Safe to call from any thread; the
// callback reads a cached copy at entry, never mid-block (spec.md §4.5 step 2).
func (m *Mixer) SetGain(e EngineID, gain float32) {
	m.gains[e] = gain
}

// FlushMissCounters logs any accumulated buffer-miss counts. Must be called
// periodically from a background goroutine, never from Mix itself.
func (m *Mixer) FlushMissCounters() {
	for _, t := range m.misses {
		t.Flush()
	}
}

// Mix fills outLeft/outRight (each len(frames) long, pre-allocated by the
// caller) for one callback invocation (spec.md §4.5). Disabling an engine
// (gain==0) yields bit-identical output to removing it entirely, since a
// zero gain contributes exactly zero regardless of that engine's buffer
// content.
func (m *Mixer) Mix(outLeft, outRight []float32) {
	var gains [numEngines]float32
	copy(gains[:], m.gains[:])

	for i := range outLeft {
		outLeft[i] = 0
		outRight[i] = 0
	}

	for e := EngineID(0); e < numEngines; e++ {
		buf := m.buffers[e]
		if buf == nil {
			continue
		}
		left, right, ok := buf.TryConsume()
		if !ok {
			m.misses[e].Incr()
			continue // silence for this engine this block; others unaffected (spec.md §4.5 step 3)
		}
		g := gains[e]
		if g == 0 {
			continue
		}
		n := len(outLeft)
		if len(left) < n {
			n = len(left)
		}
		for i := 0; i < n; i++ {
			outLeft[i] += g * left[i]
			outRight[i] += g * right[i]
		}
	}

	for i := range outLeft {
		outLeft[i] = clamp(outLeft[i], -1, 1)
		outRight[i] = clamp(outRight[i], -1, 1)
	}
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
