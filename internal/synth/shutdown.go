package synth

import "sync/atomic"

// Shutdown is the single atomic token every thread observes to exit
// cleanly (spec.md §9 "collapse to one atomic shutdown token" — replacing
// the source's three independent flags, whose divergence caused a missed-
// flag shutdown bug). Producers check it at each block boundary; the audio
// callback keeps running until the driver itself is torn down.
type Shutdown struct {
	token atomic.Bool
}

// Requested reports whether shutdown has been signalled.
func (s *Shutdown) Requested() bool { return s.token.Load() }

// Signal requests shutdown. Idempotent; safe to call from any thread,
// typically the process's signal handler.
func (s *Shutdown) Signal() { s.token.Store(true) }
