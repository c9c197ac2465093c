package mixer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDoubleBuffer_PublishThenConsume(t *testing.T) {
	db := NewDoubleBuffer(4)
	left, right := db.WriteSlot()
	for i := range left {
		left[i] = float32(i)
		right[i] = float32(-i)
	}
	db.Publish(42)

	l, r, ok := db.TryConsume()
	assert.True(t, ok)
	assert.Equal(t, []float32{0, 1, 2, 3}, l)
	assert.Equal(t, []float32{0, -1, -2, -3}, r)
}

func TestDoubleBuffer_TryConsume_FalseWhenNothingPublished(t *testing.T) {
	db := NewDoubleBuffer(4)
	_, _, ok := db.TryConsume()
	assert.False(t, ok)
}

func TestDoubleBuffer_TryConsume_FalseAfterFirstConsume(t *testing.T) {
	db := NewDoubleBuffer(2)
	db.Publish(1)
	_, _, ok1 := db.TryConsume()
	assert.True(t, ok1)
	_, _, ok2 := db.TryConsume()
	assert.False(t, ok2)
}

func TestDoubleBuffer_ProducerAlternatesBuffers(t *testing.T) {
	// spec.md §3 "ping-pong pair": each Publish flips which buffer the
	// producer writes into next, and after two full cycles the producer is
	// back to writing the original buffer.
	db := NewDoubleBuffer(2)
	firstWrite, _ := db.WriteSlot()
	db.Publish(1)

	secondWrite, _ := db.WriteSlot()
	assert.NotEqual(t, &firstWrite[0], &secondWrite[0])

	db.Publish(2)
	thirdWrite, _ := db.WriteSlot()
	assert.Equal(t, &firstWrite[0], &thirdWrite[0])
}

// TestDoubleBuffer_ConcurrentProduceConsume stresses the ready-flag
// handoff with the race detector as the oracle (spec.md §8 invariant 7).
func TestDoubleBuffer_ConcurrentProduceConsume(t *testing.T) {
	db := NewDoubleBuffer(16)
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		var ts uint64
		for {
			select {
			case <-stop:
				return
			default:
			}
			left, right := db.WriteSlot()
			for i := range left {
				left[i] = 1
				right[i] = -1
			}
			ts++
			db.Publish(ts)
		}
	}()
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			db.TryConsume()
		}
	}()

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()
}
