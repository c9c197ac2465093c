package synth

// ADSRState is the envelope's current stage (spec.md §3 ADSR).
type ADSRState int

const (
	ADSRIdle ADSRState = iota
	ADSRAttack
	ADSRDecay
	ADSRSustain
	ADSRRelease
)

// adsrStageRank orders states for voice-stealing preference: §4.3 prefers
// stealing a voice whose envelope is furthest along (Release first, then
// Sustain, Decay, Attack last).
var adsrStageRank = map[ADSRState]int{
	ADSRRelease: 0,
	ADSRSustain: 1,
	ADSRDecay:   2,
	ADSRAttack:  3,
	ADSRIdle:    -1, // idle voices are always preferred over any active one
}

// StealRank returns this state's steal preference; lower is stolen first.
func (s ADSRState) StealRank() int { return adsrStageRank[s] }

// ADSR is a reusable four-stage envelope with a deterministic state
// machine, implemented as a tagged variant with per-state progress rather
// than thread suspension (spec.md §9).
type ADSR struct {
	state ADSRState
	level float32 // current output, 0..1
	pos   int     // samples into the current stage

	// releaseStart is the level captured at the instant Gate(false) fires,
	// so Release decays from wherever the envelope actually was (Attack,
	// Decay, or Sustain) rather than always assuming Sustain's level —
	// releasing mid-Attack or mid-Decay would otherwise jump discontinuously
	// to sustainLevel before decaying, an audible click.
	releaseStart float32

	attackSamples  int
	decaySamples   int
	sustainLevel   float32
	releaseSamples int

	// pending* hold smoothed-in parameter changes: assigning directly to
	// attackSamples etc. mid-block can click, so updates land here and are
	// applied at the next block boundary (spec.md §3 "smoothed over one
	// audio block").
	pendingAttackSamples  int
	pendingDecaySamples   int
	pendingSustainLevel   float32
	pendingReleaseSamples int
	hasPending            bool
}

// NewADSR builds an idle envelope with the given stage lengths in samples
// and sustain level in [0,1].
func NewADSR(attackSamples, decaySamples int, sustainLevel float32, releaseSamples int) *ADSR {
	e := &ADSR{
		attackSamples:  attackSamples,
		decaySamples:   decaySamples,
		sustainLevel:   clamp01(sustainLevel),
		releaseSamples: releaseSamples,
	}
	return e
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// SetParams schedules new stage lengths/sustain to take effect at the next
// block boundary (ApplyPending), avoiding clicks from a mid-block change.
func (e *ADSR) SetParams(attackSamples, decaySamples int, sustainLevel float32, releaseSamples int) {
	e.pendingAttackSamples = attackSamples
	e.pendingDecaySamples = decaySamples
	e.pendingSustainLevel = clamp01(sustainLevel)
	e.pendingReleaseSamples = releaseSamples
	e.hasPending = true
}

// ApplyPending commits any parameters scheduled by SetParams. Call once per
// block, before generating the block's samples.
func (e *ADSR) ApplyPending() {
	if !e.hasPending {
		return
	}
	e.attackSamples = e.pendingAttackSamples
	e.decaySamples = e.pendingDecaySamples
	e.sustainLevel = e.pendingSustainLevel
	e.releaseSamples = e.pendingReleaseSamples
	e.hasPending = false
}

// State returns the current stage.
func (e *ADSR) State() ADSRState { return e.state }

// Level returns the current output level in [0,1].
func (e *ADSR) Level() float32 { return e.level }

// Gate starts (true) or releases (false) the envelope.
func (e *ADSR) Gate(on bool) {
	if on {
		e.state = ADSRAttack
		e.pos = 0
		return
	}
	if e.state != ADSRIdle && e.state != ADSRRelease {
		e.releaseStart = e.level
		e.state = ADSRRelease
		e.pos = 0
	}
}

// Step advances the envelope by one sample and returns the new level.
func (e *ADSR) Step() float32 {
	switch e.state {
	case ADSRIdle:
		e.level = 0

	case ADSRAttack:
		if e.attackSamples <= 0 {
			e.level = 1
			e.state = ADSRDecay
			e.pos = 0
		} else {
			e.level = float32(e.pos) / float32(e.attackSamples)
			e.pos++
			if e.pos >= e.attackSamples {
				e.level = 1
				e.state = ADSRDecay
				e.pos = 0
			}
		}

	case ADSRDecay:
		if e.decaySamples <= 0 {
			e.level = e.sustainLevel
			e.state = ADSRSustain
			e.pos = 0
		} else {
			t := float32(e.pos) / float32(e.decaySamples)
			e.level = 1 - t*(1-e.sustainLevel)
			e.pos++
			if e.pos >= e.decaySamples {
				e.level = e.sustainLevel
				e.state = ADSRSustain
				e.pos = 0
			}
		}

	case ADSRSustain:
		e.level = e.sustainLevel

	case ADSRRelease:
		if e.releaseSamples <= 0 {
			e.level = 0
			e.state = ADSRIdle
		} else {
			t := float32(e.pos) / float32(e.releaseSamples)
			e.level = e.releaseStart * (1 - t)
			e.pos++
			if e.pos >= e.releaseSamples || e.level <= 0 {
				e.level = 0
				e.state = ADSRIdle
			}
		}
	}
	return e.level
}

// Reset forces the envelope back to Idle, level 0.
func (e *ADSR) Reset() {
	e.state = ADSRIdle
	e.level = 0
	e.pos = 0
}
