package session

import "time"

// Signal fires its callback the first time an observed elapsed value
// reaches the target. After firing, or after Disarm, it never fires again.
type Signal struct {
	target   time.Duration
	fn       func()
	fired    bool
	disarmed bool
}

func NewSignal(target time.Duration, fn func()) *Signal {
	return &Signal{target: target, fn: fn}
}

// Observe reports whether this observation fired the signal.
func (s *Signal) Observe(elapsed time.Duration) bool {
	if s.fired || s.disarmed || elapsed < s.target {
		return false
	}
	s.fired = true
	if s.fn != nil {
		s.fn()
	}
	return true
}

// Disarm prevents the signal from ever firing.
func (s *Signal) Disarm() {
	s.disarmed = true
}

func (s *Signal) Fired() bool {
	return s.fired
}
