// Package sched keeps periodic work stable across re-renders.
//
// Both Scheduler and Interval read their callback from a cell that the owner
// may overwrite at any time, so the body of a periodic callback can change
// on every render without the underlying timer being recreated. Both also
// carry a liveness flag set on Mount and cleared on Unmount; every delivery
// checks it before touching state, which makes a duplicated
// Mount/Unmount/Mount sequence harmless.
package sched

import (
	"time"

	"github.com/sadopc/habitr/internal/clock"
)

// Scheduler drives one session's elapsed counter from an elapsed clock and
// hands every tick to the most recently supplied callback. Once a limit is
// reached the counter is clamped and no further ticks are produced.
//
// A Scheduler is not safe for concurrent use.
type Scheduler struct {
	ticker *clock.Ticker
	limit  time.Duration

	// fn is the indirection cell read on every tick.
	fn func(elapsed time.Duration)

	alive  bool
	paused bool
}

// New returns an unmounted Scheduler ticking every period.
func New(c clock.Clock, period time.Duration) *Scheduler {
	return &Scheduler{ticker: clock.NewTicker(c, period)}
}

// SetCallback replaces the tick callback. The timer is left untouched.
func (s *Scheduler) SetCallback(fn func(elapsed time.Duration)) {
	s.fn = fn
}

// SetLimit sets the terminal elapsed value. Zero means unlimited.
func (s *Scheduler) SetLimit(limit time.Duration) {
	s.limit = limit
}

// Mount marks the scheduler live and starts ticking. Mounting an already
// mounted scheduler does not schedule a second timer.
func (s *Scheduler) Mount() {
	s.alive = true
	if !s.paused && !s.Done() {
		s.ticker.Start(s.tick)
	}
}

// Unmount clears the liveness flag and stops the timer. Elapsed is kept.
func (s *Scheduler) Unmount() {
	s.alive = false
	s.ticker.Stop()
}

// Pause stops ticking without tearing the scheduler down.
func (s *Scheduler) Pause() {
	s.paused = true
	s.ticker.Stop()
}

// Resume restarts ticking after Pause.
func (s *Scheduler) Resume() {
	s.paused = false
	if s.alive && !s.Done() {
		s.ticker.Start(s.tick)
	}
}

// Reset unmounts and zeroes the elapsed counter.
func (s *Scheduler) Reset() {
	s.Unmount()
	s.paused = false
	s.ticker.Reset()
}

func (s *Scheduler) Alive() bool   { return s.alive }
func (s *Scheduler) Paused() bool  { return s.paused }
func (s *Scheduler) Running() bool { return s.ticker.Running() }

// Elapsed returns the current elapsed value, clamped to the limit.
func (s *Scheduler) Elapsed() time.Duration {
	e := s.ticker.Elapsed()
	if s.limit > 0 && e > s.limit {
		return s.limit
	}
	return e
}

// Done reports whether the elapsed counter has reached the limit.
func (s *Scheduler) Done() bool {
	return s.limit > 0 && s.ticker.Elapsed() >= s.limit
}

func (s *Scheduler) tick(elapsed time.Duration) {
	if !s.alive {
		return
	}
	if s.limit > 0 && elapsed >= s.limit {
		s.ticker.Stop()
		elapsed = s.limit
	}
	if s.fn != nil {
		s.fn(elapsed)
	}
}
