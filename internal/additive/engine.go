// Package additive implements the ADDITIVE synthesis engine: a large
// wavetable-scan partial bank driven by an image line, with per-partial
// slew limiting, contrast modulation, and a worker fan-out splitting the
// bank across goroutines each block (spec.md §4.2). The worker goroutines
// are started afresh for every block and exit at its end; none persists
// between blocks.
package additive

import (
	"context"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Ondulab/sp3ctra-synth/internal/mixer"
	"github.com/Ondulab/sp3ctra-synth/internal/synth"
)

// Line is one image-preprocessor delivery: either a single mono channel or
// a warm/cold pair (spec.md §6 "Image preprocessor -> ADDITIVE"). Exactly
// one of Mono or {Warm, Cold} is populated, selected by the engine's
// configured StereoMode.
type Line struct {
	Mono       []uint16
	Warm, Cold []uint16
}

// Engine is the ADDITIVE producer. One instance owns one PartialBank, one
// DoubleBuffer, and per-worker scratch buffers for the numWorkers passed to
// NewEngine (the worker goroutines themselves live for one block); it is driven by
// repeated calls to ProduceBlock, one per block, from its own producer
// thread (spec.md §5).
type Engine struct {
	cfg   synth.Config
	bank  *synth.PartialBank
	out   *mixer.DoubleBuffer
	stage synth.Stage[Line]

	numWorkers int
	scratchL   [][]float32 // per-worker private scratch, summed into the block
	scratchR   [][]float32

	platformGain float32
	sampleClock  uint64
}

// PushLine publishes a new line to the engine's staging area; the external
// image preprocessor calls this asynchronously (spec.md §6). The producer
// picks it up at its own next block boundary.
func (e *Engine) PushLine(line Line) { e.stage.Store(&line) }

// Run drives ProduceBlock once per block period until shutdown is
// signalled, always reading the latest staged line and computing contrast
// from it (spec.md §9 "Continuous production").
func (e *Engine) Run(ctx context.Context, shutdown *synth.Shutdown) {
	blockPeriod := time.Duration(e.cfg.AudioBufferSize) * time.Second / time.Duration(e.cfg.SampleRate)
	synth.RunProducer(shutdown, blockPeriod, func() {
		line := e.stage.Load()
		if line == nil {
			line = &Line{Mono: make([]uint16, len(e.bank.Partials))}
		}
		e.ApplyLine(*line)
		contrast := lineContrast(*line, e.cfg.ContrastMin, e.cfg.ContrastAdjustmentPower)
		_ = e.ProduceBlock(ctx, contrast)
	})
}

// platformGain is the fixed platform-specific scalar from spec.md §4.2 step
// 4 ("downstream drivers differ in native gain"); the oto backend expects
// unit-scale float32 samples so this stays 1.0 for it.
const defaultPlatformGain = 1.0

// NewEngine builds the partial bank and worker scratch space. numWorkers
// follows spec.md §4.2 "typically 3"; the bank is split into that many
// contiguous, non-overlapping ranges so no partial is touched by two
// workers in the same block.
func NewEngine(cfg synth.Config, table *synth.Wavetable, f0 float32, numWorkers int) *Engine {
	if numWorkers < 1 {
		numWorkers = 1
	}
	bank := synth.NewPartialBank(table, cfg.NumPartials, cfg.PartialsPerOctave, f0, cfg.SampleRate)
	e := &Engine{
		cfg:          cfg,
		bank:         bank,
		out:          mixer.NewDoubleBuffer(cfg.AudioBufferSize),
		numWorkers:   numWorkers,
		scratchL:     make([][]float32, numWorkers),
		scratchR:     make([][]float32, numWorkers),
		platformGain: defaultPlatformGain,
	}
	for w := 0; w < numWorkers; w++ {
		e.scratchL[w] = make([]float32, cfg.AudioBufferSize)
		e.scratchR[w] = make([]float32, cfg.AudioBufferSize)
	}
	return e
}

// Output returns the DoubleBuffer the mixer should consume from.
func (e *Engine) Output() *mixer.DoubleBuffer { return e.out }

// shapeIntensity maps a raw 16-bit image intensity to the target volume the
// partial bank actually receives, applying amplitude_gamma (perceptual
// loudness curve) and min_audible_amplitude (silence floor) from spec.md §6.
func shapeIntensity(raw uint16, gamma, minAudible float32) uint16 {
	norm := float64(raw) / 65535.0
	if gamma != 1 {
		norm = math.Pow(norm, float64(gamma))
	}
	if norm < float64(minAudible) {
		return 0
	}
	return uint16(norm*65535.0 + 0.5)
}

// ApplyLine pushes new per-partial target volumes, mono or warm/cold
// according to which field of Line is populated (spec.md §4.2 step 1).
func (e *Engine) ApplyLine(line Line) {
	gamma, minAudible := e.cfg.AmplitudeGamma, e.cfg.MinAudibleAmplitude
	if line.Mono != nil {
		n := len(line.Mono)
		if n > len(e.bank.Partials) {
			n = len(e.bank.Partials)
		}
		for i := 0; i < n; i++ {
			e.bank.SetTargetMono(i, shapeIntensity(line.Mono[i], gamma, minAudible))
		}
		return
	}
	n := len(line.Warm)
	if len(line.Cold) < n {
		n = len(line.Cold)
	}
	if n > len(e.bank.Partials) {
		n = len(e.bank.Partials)
	}
	for i := 0; i < n; i++ {
		warm := shapeIntensity(line.Warm[i], gamma, minAudible)
		cold := shapeIntensity(line.Cold[i], gamma, minAudible)
		e.bank.SetTargetWarmCold(i, warm, cold)
	}
}

// ProduceBlock renders one block: splits the partial bank across the
// worker pool (each worker fills its own scratch L/R), sums the scratch
// into the published block, applies contrast and platform gain, and
// publishes to the DoubleBuffer. contrast comes from the same line that
// fed ApplyLine — callers pass it in rather than recomputing, since the
// variance sample is taken on raw intensities, not post-slew volumes.
func (e *Engine) ProduceBlock(ctx context.Context, contrast float32) error {
	n := len(e.bank.Partials)
	base := n / e.numWorkers
	rem := n % e.numWorkers

	g, _ := errgroup.WithContext(ctx)
	start := 0
	for w := 0; w < e.numWorkers; w++ {
		size := base
		if w < rem {
			size++
		}
		lo, hi := start, start+size
		start = hi
		worker := w
		g.Go(func() error {
			e.renderRange(worker, lo, hi)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	frames := e.cfg.AudioBufferSize
	left, right := e.out.WriteSlot()
	for i := 0; i < frames; i++ {
		var l, r float32
		for w := 0; w < e.numWorkers; w++ {
			l += e.scratchL[w][i]
			r += e.scratchR[w][i]
		}
		gain := contrast * e.platformGain
		left[i] = l * gain
		right[i] = r * gain
	}

	e.sampleClock += uint64(frames)
	e.out.Publish(e.sampleClock)
	return nil
}

// renderRange steps partials [lo,hi) for one full block into worker w's
// private scratch. No partial index in [lo,hi) is touched by any other
// worker this block (spec.md §4.2 "Parallelization").
func (e *Engine) renderRange(w, lo, hi int) {
	l, r := e.scratchL[w], e.scratchR[w]
	for i := range l {
		l[i] = 0
		r[i] = 0
	}
	table := e.bank.Table
	limitHz := e.cfg.HighFreqHarmonicLimitHz
	// FrequencyHz rises with index except at octave boundaries, where the
	// rounded base step can put the first partial of an octave a few
	// percent below the last of the previous one; so each partial is
	// checked against the hard cap on its own rather than stopping at the
	// first one over it.
	for idx := lo; idx < hi; idx++ {
		p := &e.bank.Partials[idx]
		if p.FrequencyHz >= limitHz {
			continue
		}
		for i := 0; i < len(l); i++ {
			s := p.Step(table)
			l[i] += s * p.PanLeft
			r[i] += s * p.PanRight
		}
	}
}
