package swarm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(4)
	p.Start(context.Background())
	defer p.Stop()

	var ran int64
	for i := 0; i < 50; i++ {
		p.Submit(func(ctx context.Context) error {
			atomic.AddInt64(&ran, 1)
			return nil
		})
	}
	p.Drain()

	if got := atomic.LoadInt64(&ran); got != 50 {
		t.Errorf("expected 50 tasks run, got %d", got)
	}
	if stats := p.GetStats(); stats.TasksCompleted != 50 {
		t.Errorf("expected 50 completed in stats, got %d", stats.TasksCompleted)
	}
}

func TestPoolThrottleFeedbackShrinks(t *testing.T) {
	p := NewPool(8)
	throttleErr := errors.New("Throttling")
	p.IsThrottled = func(err error) bool { return errors.Is(err, throttleErr) }
	p.Start(context.Background())
	defer p.Stop()

	before := p.aimd.Concurrency()

	// Space the throttle signals past the AIMD dampening window.
	for i := 0; i < 3; i++ {
		p.Submit(func(ctx context.Context) error { return throttleErr })
		p.Drain()
		time.Sleep(120 * time.Millisecond)
	}

	if after := p.aimd.Concurrency(); after >= before {
		t.Errorf("expected concurrency to shrink from %d, got %d", before, after)
	}
}

func TestPoolStopReleasesQueuedTasks(t *testing.T) {
	p := NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	release := make(chan struct{})
	p.Submit(func(ctx context.Context) error {
		<-release
		return nil
	})
	// These sit in the queue behind the blocked task; Stop abandons them.
	for i := 0; i < 3; i++ {
		p.Submit(func(ctx context.Context) error { return nil })
	}

	close(release)
	p.Stop()

	done := make(chan struct{})
	go func() {
		p.Drain()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Drain still blocked after Stop abandoned queued tasks")
	}
}

func TestPoolStopIdempotent(t *testing.T) {
	p := NewPool(2)
	p.Start(context.Background())
	p.Submit(func(ctx context.Context) error { return nil })
	p.Drain()

	p.Stop()
	p.Stop() // second call must not panic
}
