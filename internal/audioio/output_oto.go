//go:build !headless

package audioio

import (
	"sync"

	"github.com/ebitengine/oto/v3"

	"github.com/Ondulab/sp3ctra-synth/internal/mixer"
)

// OtoOutput drives the mixer callback via github.com/ebitengine/oto/v3,
// the real cross-platform backend (spec.md §6 "Audio driver -> Mixer").
type OtoOutput struct {
	ctx      *oto.Context
	player   *oto.Player
	renderer *frameRenderer
	started  bool
	mutex    sync.Mutex
}

// NewOtoOutput opens a stereo float32 context at sampleRate and wires it to
// mix's Mix method as its sample source.
func NewOtoOutput(sampleRate int, mix *mixer.Mixer) (*OtoOutput, error) {
	opts := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(opts)
	if err != nil {
		return nil, err
	}
	<-ready

	out := &OtoOutput{ctx: ctx, renderer: newFrameRenderer(mix)}
	out.player = ctx.NewPlayer(out)
	return out, nil
}

// Read implements io.Reader for oto's pull-based player.
func (o *OtoOutput) Read(p []byte) (n int, err error) {
	o.renderer.render(p)
	return len(p), nil
}

func (o *OtoOutput) Start() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if !o.started && o.player != nil {
		o.player.Play()
		o.started = true
	}
}

func (o *OtoOutput) Stop() {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.started && o.player != nil {
		o.player.Close()
		o.started = false
	}
}

func (o *OtoOutput) Close() {
	o.Stop()
	o.mutex.Lock()
	defer o.mutex.Unlock()
	if o.player != nil {
		o.player.Close()
		o.player = nil
	}
}

func (o *OtoOutput) IsStarted() bool {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.started
}
