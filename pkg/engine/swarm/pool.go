// Package swarm provides the bounded, adaptively sized worker pool the
// discovery orchestrator schedules (region, family) units onto. Sizing
// follows AIMD feedback so the pool backs off when the cloud API throttles.
package swarm

import (
	"context"
	"sync"
	"time"
)

// Task is one unit of work.
type Task func(ctx context.Context) error

// Stats is a snapshot of pool activity.
type Stats struct {
	ActiveWorkers  int
	Concurrency    int
	TasksCompleted int64
}

// Pool runs submitted tasks on a bounded set of workers. Workers are spawned
// up to the AIMD target and retire themselves when the target shrinks.
type Pool struct {
	aimd  *AIMD
	tasks chan Task
	quit  chan struct{}

	// IsThrottled classifies a task error as a rate-limit signal for AIMD
	// feedback. Nil means no task error is treated as throttling.
	IsThrottled func(error) bool

	workers sync.WaitGroup
	jobs    sync.WaitGroup

	mu        sync.Mutex
	active    int
	completed int64
	stopped   bool
}

// NewPool builds a pool capped at limit concurrent workers.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	start := limit
	if start > 8 {
		start = 8
	}
	return &Pool{
		aimd:  NewAIMD(start, 1, limit),
		tasks: make(chan Task, 1024),
		quit:  make(chan struct{}),
	}
}

// Start launches the supervisor loop.
func (p *Pool) Start(ctx context.Context) {
	go p.supervise(ctx)
}

// Submit queues a task. Must not be called after Stop.
func (p *Pool) Submit(t Task) {
	p.jobs.Add(1)
	p.tasks <- t
}

// Drain blocks until every submitted task has completed.
func (p *Pool) Drain() {
	p.jobs.Wait()
}

// Stop shuts the pool down and waits for workers to exit. Queued tasks that
// have not started are abandoned; callers should Drain first when they need
// completion.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.mu.Unlock()

	close(p.quit)
	p.workers.Wait()

	// Abandoned tasks still count toward Drain; release them so a concurrent
	// Drain unblocks. Workers have exited, so this is the only consumer.
	for {
		select {
		case <-p.tasks:
			p.jobs.Done()
		default:
			return
		}
	}
}

// GetStats returns current pool statistics.
func (p *Pool) GetStats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		ActiveWorkers:  p.active,
		Concurrency:    p.aimd.Concurrency(),
		TasksCompleted: p.completed,
	}
}

func (p *Pool) supervise(ctx context.Context) {
	ticker := time.NewTicker(25 * time.Millisecond)
	defer ticker.Stop()

	p.spawnTo(ctx, p.aimd.Concurrency())

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case <-ticker.C:
			p.spawnTo(ctx, p.aimd.Concurrency())
		}
	}
}

func (p *Pool) spawnTo(ctx context.Context, target int) {
	p.mu.Lock()
	spawn := target - p.active
	p.active += max(spawn, 0)
	p.mu.Unlock()

	for i := 0; i < spawn; i++ {
		p.workers.Add(1)
		go p.worker(ctx)
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer func() {
		p.mu.Lock()
		p.active--
		p.mu.Unlock()
		p.workers.Done()
	}()

	for {
		// Retire when the AIMD target has shrunk below the live count.
		p.mu.Lock()
		over := p.active > p.aimd.Concurrency()
		p.mu.Unlock()
		if over {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-p.quit:
			return
		case task := <-p.tasks:
			start := time.Now()
			err := task(ctx)
			latency := time.Since(start)

			throttled := err != nil && p.IsThrottled != nil && p.IsThrottled(err)
			p.aimd.Feedback(latency, throttled)

			p.mu.Lock()
			p.completed++
			p.mu.Unlock()
			p.jobs.Done()
		}
	}
}
