// Package audioio drives the mixer callback from the audio driver's pull
// model (spec.md §4.5, §6 "Audio driver -> Mixer"). The driver calls Read
// with a byte buffer it wants filled; Output renders that many frames via
// the Mixer and serializes them as interleaved float32 LE stereo.
package audioio

import (
	"math"

	"github.com/Ondulab/sp3ctra-synth/internal/mixer"
)

// Output is the interface the top-level wiring constructs once at init and
// hands to a backend player; backends differ in how they pull frames
// (real device vs. headless no-op) but never in the rendering path.
type Output interface {
	Start()
	Stop()
	Close()
	IsStarted() bool
}

// frameRenderer pulls stereo frames from a Mixer and serializes them as
// interleaved float32 LE bytes, shared by every backend's Read.
type frameRenderer struct {
	mix         *mixer.Mixer
	left, right []float32
}

func newFrameRenderer(mix *mixer.Mixer) *frameRenderer {
	return &frameRenderer{mix: mix}
}

// render fills p (a byte buffer sized for 2-channel float32 LE frames) by
// asking the Mixer for that many frames, then interleaving.
func (r *frameRenderer) render(p []byte) {
	const bytesPerFrame = 8 // 2 channels * 4 bytes
	n := len(p) / bytesPerFrame
	if cap(r.left) < n {
		r.left = make([]float32, n)
		r.right = make([]float32, n)
	}
	left := r.left[:n]
	right := r.right[:n]

	r.mix.Mix(left, right)

	for i := 0; i < n; i++ {
		putFloat32LE(p[i*8:], left[i])
		putFloat32LE(p[i*8+4:], right[i])
	}
	if rem := len(p) - n*bytesPerFrame; rem > 0 {
		clear(p[n*bytesPerFrame:])
	}
}

func putFloat32LE(b []byte, f float32) {
	bits := math.Float32bits(f)
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
}
