// Package clock provides the time sources the timer engine runs on.
//
// Engine state is never guarded by locks. Instead every timer callback is
// delivered through an Executor that runs callbacks one at a time, so a
// session, its scheduler and the persistence debouncer are only ever touched
// by a single goroutine. Real hands callbacks to an Executor (a Loop or the
// bubbletea program); Fake runs them on the goroutine that advances it.
package clock

import "time"

// Clock is the time source used by tickers, schedulers and debouncers.
type Clock interface {
	Now() time.Time
	// AfterFunc calls f once after d has elapsed. The returned Timer can
	// cancel the call if it has not been delivered yet.
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a pending AfterFunc call.
type Timer interface {
	// Stop prevents the call from firing. It reports whether the call was
	// still pending.
	Stop() bool
}

// Executor runs posted functions in order on one goroutine.
type Executor interface {
	// Post queues f. It returns false if the executor no longer accepts
	// work, in which case f is dropped.
	Post(f func()) bool
}

// Real is a wall-clock Clock whose callbacks run on an Executor.
type Real struct {
	exec Executor
}

// NewReal returns a Real clock delivering callbacks through exec.
func NewReal(exec Executor) *Real {
	return &Real{exec: exec}
}

func (r *Real) Now() time.Time {
	return time.Now()
}

func (r *Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, func() {
		r.exec.Post(f)
	})
}
