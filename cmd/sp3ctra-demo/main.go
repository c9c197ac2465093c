// Command sp3ctra-demo wires the three synthesis engines, the mixer, and
// an audio output backend together and feeds them synthetic image-line and
// MIDI data. It stands in for the full CLI (config file parsing, MIDI
// transport, image acquisition), which are external collaborators out of
// scope for the synthesis core itself (spec.md §1).
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Ondulab/sp3ctra-synth/internal/additive"
	"github.com/Ondulab/sp3ctra-synth/internal/audioio"
	"github.com/Ondulab/sp3ctra-synth/internal/midi"
	"github.com/Ondulab/sp3ctra-synth/internal/mixer"
	"github.com/Ondulab/sp3ctra-synth/internal/photowave"
	"github.com/Ondulab/sp3ctra-synth/internal/poly"
	"github.com/Ondulab/sp3ctra-synth/internal/synth"
	"github.com/Ondulab/sp3ctra-synth/internal/synthlog"
)

func main() {
	sampleRate := pflag.IntP("sample-rate", "r", 48000, "audio sample rate in Hz")
	bufferSize := pflag.IntP("buffer-size", "b", 512, "frames per audio block")
	numPartials := pflag.Int("num-partials", 1024, "additive partial bank size")
	stereoMode := pflag.String("stereo-mode", "mono", "additive stereo mode: mono|warm_cold")
	duration := pflag.DurationP("duration", "d", 5*time.Second, "how long to run before exiting")
	help := pflag.BoolP("help", "h", false, "display help text")
	pflag.Parse()

	if *help {
		fmt.Fprintln(os.Stderr, "sp3ctra-demo: wires ADDITIVE/POLY/PHOTOWAVE into one mixed audio stream")
		pflag.PrintDefaults()
		return
	}

	cfg := synth.DefaultConfig()
	cfg.SampleRate = *sampleRate
	cfg.AudioBufferSize = *bufferSize
	cfg.NumPartials = *numPartials
	if *stereoMode == "warm_cold" {
		cfg.StereoMode = synth.StereoWarmCold
	}

	once := synthlog.NewOnce()
	cfg.Validate(once)

	if err := run(cfg, *duration); err != nil {
		synthlog.Error("init failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg synth.Config, duration time.Duration) error {
	table := synth.NewWavetable(synth.ShapeSine, 8192)

	additiveEngine := additive.NewEngine(cfg, table, 55.0, 3)
	polyQueue := midi.NewQueue(64)
	photowaveQueue := midi.NewQueue(64)
	polyEngine := poly.NewEngine(cfg, table, polyQueue)
	photowaveEngine := photowave.NewEngine(cfg, photowaveQueue)

	mix := mixer.NewMixer(
		additiveEngine.Output(), polyEngine.Output(), photowaveEngine.Output(),
		cfg.MixLevelAdditive, cfg.MixLevelPoly, cfg.MixLevelPhotowave,
	)

	out, err := audioio.NewOtoOutput(cfg.SampleRate, mix)
	if err != nil {
		return synth.NewInitError("backend", err)
	}

	shutdown := &synth.Shutdown{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		shutdown.Signal()
		cancel()
	}()

	go additiveEngine.Run(ctx, shutdown)
	go polyEngine.Run(shutdown)
	go photowaveEngine.Run(shutdown)
	go feedSyntheticInput(cfg, additiveEngine, polyEngine, photowaveEngine, polyQueue, photowaveQueue, shutdown)
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for !shutdown.Requested() {
			<-ticker.C
			mix.FlushMissCounters()
		}
	}()

	out.Start()
	defer out.Close()

	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
	shutdown.Signal()
	return nil
}

// feedSyntheticInput stands in for the image preprocessor and MIDI
// transport: it generates a plausible moving line, harmonic profile, and
// waveform, and triggers a few notes so the demo is audible end to end.
func feedSyntheticInput(
	cfg synth.Config,
	ae *additive.Engine,
	pe *poly.Engine,
	phe *photowave.Engine,
	polyQueue, photowaveQueue *midi.Queue,
	shutdown *synth.Shutdown,
) {
	rng := rand.New(rand.NewSource(1))

	mono := make([]uint16, cfg.NumPartials)
	for i := range mono {
		mono[i] = uint16(rng.Intn(1 << 16))
	}
	ae.PushLine(additive.Line{Mono: mono})

	gainL := make([]float32, cfg.MaxHarmonicsPerVoice)
	gainR := make([]float32, cfg.MaxHarmonicsPerVoice)
	for h := range gainL {
		gainL[h] = 1.0 / float32(h+1)
		gainR[h] = gainL[h]
	}
	pe.ApplyHarmonicProfile(poly.HarmonicProfile{GainL: gainL, GainR: gainR})

	waveform := make([]float32, 512)
	for i := range waveform {
		waveform[i] = float32(rng.Float64()*2 - 1)
	}
	phe.ApplyWaveform(waveform)

	polyQueue.Push(midi.Event{Kind: midi.NoteOn, Note: 60, Velocity: 100})
	photowaveQueue.Push(midi.Event{Kind: midi.NoteOn, Note: 48, Velocity: 100})

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for !shutdown.Requested() {
		<-ticker.C
		for i := range mono {
			mono[i] = uint16(rng.Intn(1 << 16))
		}
		ae.PushLine(additive.Line{Mono: mono})
	}
}
