//go:build headless

package audioio

import "github.com/Ondulab/sp3ctra-synth/internal/mixer"

// HeadlessOutput discards the mixer's output, for CI and benchmark runs
// without an audio device.
type HeadlessOutput struct {
	renderer *frameRenderer
	scratch  []byte
	started  bool
}

func NewOtoOutput(sampleRate int, mix *mixer.Mixer) (*HeadlessOutput, error) {
	return &HeadlessOutput{renderer: newFrameRenderer(mix), scratch: make([]byte, 4096)}, nil
}

func (h *HeadlessOutput) Start() { h.started = true }
func (h *HeadlessOutput) Stop()  { h.started = false }
func (h *HeadlessOutput) Close() { h.started = false }
func (h *HeadlessOutput) IsStarted() bool { return h.started }

// Pull renders one block without any real device, so tests can still drive
// the mixer path deterministically in headless mode.
func (h *HeadlessOutput) Pull() {
	h.renderer.render(h.scratch)
}
