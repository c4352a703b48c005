package clock

import (
	"context"
	"sync"
)

// Loop is a run-to-completion Executor: posted functions run one after
// another on the goroutine calling Run.
type Loop struct {
	queue   chan func()
	stopped chan struct{}
	once    sync.Once
}

// NewLoop creates a loop with a queue of the given capacity.
func NewLoop(buffer int) *Loop {
	if buffer < 0 {
		buffer = 0
	}
	return &Loop{
		queue:   make(chan func(), buffer),
		stopped: make(chan struct{}),
	}
}

// Post queues f. Work posted after Stop is dropped.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.stopped:
		return false
	default:
	}
	select {
	case l.queue <- f:
		return true
	case <-l.stopped:
		return false
	}
}

// Run executes queued work until Stop is called or ctx is done. It returns
// nil after Stop and ctx.Err() on cancellation.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return ctx.Err()
		case <-l.stopped:
			return nil
		case f := <-l.queue:
			f()
		}
	}
}

// Stop makes Run return and rejects further work. Safe to call repeatedly.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.stopped) })
}

// Stopped is closed once the loop has been stopped.
func (l *Loop) Stopped() <-chan struct{} {
	return l.stopped
}
