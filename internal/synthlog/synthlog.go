// Package synthlog provides the leveled, non-blocking logging the
// synthesis core uses everywhere except the audio callback itself (spec.md
// §7): warnings for recovered RT faults, debug traces for expected-but-rare
// note-off paths, and a throttled aggregator for counters that would
// otherwise flood the log once per buffer miss.
package synthlog

import (
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Logger is the package-wide structured logger, built on
// github.com/charmbracelet/log as used elsewhere in the retrieved corpus
// for CLI-adjacent Go tools (doismellburning-samoyed).
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "sp3ctra",
})

// Warn logs a recovered fault: voice-not-found, parameter clamp, throttled
// buffer-miss counts. MIDI queue overflow is only counted (midi.Queue's
// Overflows), not logged.
func Warn(msg string, kv ...any) { Logger.Warn(msg, kv...) }

// Debug logs an expected-but-noteworthy path: Priority-2/3 note-off
// resolution.
func Debug(msg string, kv ...any) { Logger.Debug(msg, kv...) }

// Error logs an init-time failure before it is returned to the caller.
func Error(msg string, kv ...any) { Logger.Error(msg, kv...) }

// Once logs msg the first time it is called for a given key within this
// process's lifetime, and silently ignores every later call for that key. Used for
// "clamped once per session per parameter" (spec.md §7).
type Once struct {
	mu   sync.Mutex
	seen map[string]bool
}

// NewOnce creates an empty Once tracker.
func NewOnce() *Once { return &Once{seen: make(map[string]bool)} }

// Warn logs msg under key the first time it is seen, then no-ops.
func (o *Once) Warn(key, msg string, kv ...any) {
	o.mu.Lock()
	already := o.seen[key]
	o.seen[key] = true
	o.mu.Unlock()
	if !already {
		Warn(msg, kv...)
	}
}

// Throttle aggregates a counter incremented from a hot path (the mixer
// callback, an engine producer) without ever logging from that path
// itself. count is an atomic.Int64 so Incr is genuinely lock-free; the
// mutex below only ever guards lastFlush, which Flush touches off the RT
// path.
type Throttle struct {
	count atomic.Int64

	mu        sync.Mutex
	lastFlush time.Time
	interval  time.Duration
	name      string
}

// NewThrottle builds a throttled counter that logs at most once per
// interval when Flush is called by a background ticker owned by the
// top-level wiring (never by the RT callback).
func NewThrottle(name string, interval time.Duration) *Throttle {
	return &Throttle{name: name, interval: interval, lastFlush: time.Now()}
}

// Incr increments the counter with a single atomic add. Safe to call from
// any thread, including the RT callback — it never blocks and never logs.
func (t *Throttle) Incr() {
	t.count.Add(1)
}

// Flush logs and resets the counter if at least one interval has elapsed
// and the count is nonzero. Intended to be called periodically from a
// background goroutine, never from the RT path.
func (t *Throttle) Flush() {
	t.mu.Lock()
	now := time.Now()
	if now.Sub(t.lastFlush) < t.interval {
		t.mu.Unlock()
		return
	}
	t.lastFlush = now
	t.mu.Unlock()

	n := t.count.Swap(0)
	if n == 0 {
		return
	}
	Warn("throttled counter", "name", t.name, "count", n)
}
