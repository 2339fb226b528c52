package swarm

import (
	"sync"
	"time"
)

// AIMD governs pool concurrency: additive increase while the API responds
// quickly, multiplicative decrease on throttling signals.
type AIMD struct {
	mu          sync.Mutex
	concurrency int
	minWorkers  int
	maxWorkers  int
	lastChange  time.Time
}

func NewAIMD(start, min, max int) *AIMD {
	if start < min {
		start = min
	}
	if start > max {
		start = max
	}
	return &AIMD{
		concurrency: start,
		minWorkers:  min,
		maxWorkers:  max,
		lastChange:  time.Now(),
	}
}

func (a *AIMD) Concurrency() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.concurrency
}

// Feedback adjusts the target concurrency from one task's outcome.
func (a *AIMD) Feedback(latency time.Duration, throttled bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	// dampen oscillation
	if now.Sub(a.lastChange) < 100*time.Millisecond {
		return
	}

	if throttled {
		a.concurrency /= 2
		if a.concurrency < a.minWorkers {
			a.concurrency = a.minWorkers
		}
		a.lastChange = now
		return
	}

	if latency < 250*time.Millisecond {
		a.concurrency++
		if a.concurrency > a.maxWorkers {
			a.concurrency = a.maxWorkers
		}
		a.lastChange = now
	}
}
