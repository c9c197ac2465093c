// Package mixer implements the lock-free producer/consumer handoff between
// the three synthesis engines and the audio driver's real-time callback
// (spec.md §4.5, §5).
package mixer

import "sync/atomic"

// DoubleBuffer is a ping-pong pair of stereo blocks. A producer owns the
// buffer at the inactive index and writes into it; once full it publishes by
// flipping the active index to that buffer and setting `ready` true, so each
// Publish alternates which buffer the producer writes next. The consumer
// reads the buffer at the active index when ready and sets `ready` false; it
// never changes the active index (spec.md §3 "DoubleBuffer (stereo)", §5
// "the buffer pointed to by the inactive index is exclusively owned by the
// producer").
//
// ready is the only cross-thread synchronization point: producer only sets
// false->true, consumer only sets true->false (spec.md §8 invariant 7).
type DoubleBuffer struct {
	blocks [2]stereoBlock
	active atomic.Uint32 // index the consumer should read next
	ready  atomic.Bool
}

type stereoBlock struct {
	left, right  []float32
	writeTimestamp uint64
}

// NewDoubleBuffer allocates both blocks at frames length. Allocation happens
// once at init; neither producer nor consumer allocates afterward.
func NewDoubleBuffer(frames int) *DoubleBuffer {
	db := &DoubleBuffer{}
	for i := range db.blocks {
		db.blocks[i].left = make([]float32, frames)
		db.blocks[i].right = make([]float32, frames)
	}
	return db
}

// WriteSlot returns the L/R slices the producer should fill for the next
// block. The producer owns these slices exclusively until Publish is called
// — the consumer cannot observe them until then.
func (db *DoubleBuffer) WriteSlot() (left, right []float32) {
	idx := 1 - db.active.Load()
	b := &db.blocks[idx]
	return b.left, b.right
}

// Publish marks the just-filled write slot ready for the consumer and
// records its write timestamp (a monotonic sample-clock count, not wall
// time). Called by the producer only, once per block.
func (db *DoubleBuffer) Publish(writeTimestamp uint64) {
	idx := 1 - db.active.Load()
	db.blocks[idx].writeTimestamp = writeTimestamp
	db.active.Store(idx)
	db.ready.Store(true)
}

// TryConsume returns the current read block's L/R and true if a producer has
// published since the last consume; otherwise false and the caller must
// substitute silence (spec.md §4.5 step 1). Never blocks. Called by the
// mixer callback only.
func (db *DoubleBuffer) TryConsume() (left, right []float32, ok bool) {
	if !db.ready.Load() {
		return nil, nil, false
	}
	idx := db.active.Load()
	b := &db.blocks[idx]
	db.ready.Store(false)
	return b.left, b.right, true
}
