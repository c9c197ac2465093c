package synth

import "time"

// ProducerWait is the bounded condition-wait period every producer thread
// uses between blocks, so a pending Shutdown is observed with bounded
// latency even with no other wake source (spec.md §5 "bounded condition
// wait (e.g., 10 ms)").
const ProducerWait = 10 * time.Millisecond

// RunProducer drives produce() once per blockPeriod until shutdown is
// signalled, checking shutdown at least every ProducerWait regardless of
// blockPeriod so shutdown always makes progress (spec.md §5, §9
// "Continuous production" — produce is called every cycle, never skipped
// while idle).
func RunProducer(shutdown *Shutdown, blockPeriod time.Duration, produce func()) {
	wait := ProducerWait
	if blockPeriod < wait {
		wait = blockPeriod
	}
	if wait <= 0 {
		wait = time.Millisecond
	}

	ticker := time.NewTicker(wait)
	defer ticker.Stop()

	accum := time.Duration(0)
	for !shutdown.Requested() {
		<-ticker.C
		accum += wait
		if accum >= blockPeriod {
			accum -= blockPeriod
			produce()
		}
	}
}
