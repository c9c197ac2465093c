package synth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShutdown_SignalIsObservedAcrossGoroutines(t *testing.T) {
	s := &Shutdown{}
	assert.False(t, s.Requested())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for !s.Requested() {
			time.Sleep(time.Millisecond)
		}
	}()

	s.Signal()
	wg.Wait() // must return; race detector is the oracle for visibility
	assert.True(t, s.Requested())
}

func TestRunProducer_StopsPromptlyAfterSignal(t *testing.T) {
	s := &Shutdown{}
	var calls int
	var mu sync.Mutex

	done := make(chan struct{})
	go func() {
		RunProducer(s, 5*time.Millisecond, func() {
			mu.Lock()
			calls++
			mu.Unlock()
		})
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	s.Signal()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("RunProducer did not stop within the bounded-wait budget")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Greater(t, calls, 0)
}

func TestStage_LoadReturnsLatestPublished(t *testing.T) {
	var stage Stage[int]
	assert.Nil(t, stage.Load())

	a, b := 1, 2
	stage.Store(&a)
	stage.Store(&b)
	assert.Equal(t, 2, *stage.Load())
}
