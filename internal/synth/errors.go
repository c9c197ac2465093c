package synth

import "fmt"

// InitError wraps a fatal initialisation failure (spec.md §7 "Init
// failure"): bad config, buffer allocation failed, or driver open failed.
// Nothing else in the core returns an error that aborts a caller — RT
// faults recover locally (§7 propagation policy).
type InitError struct {
	Stage string // "config", "wavetable", "backend", ...
	Err   error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("sp3ctra: init failed at %s: %v", e.Stage, e.Err)
}

func (e *InitError) Unwrap() error { return e.Err }

// NewInitError builds an InitError for the given stage.
func NewInitError(stage string, err error) *InitError {
	return &InitError{Stage: stage, Err: err}
}
