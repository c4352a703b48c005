package clock

import "time"

// Ticker is the elapsed clock: a fixed-period tick source whose elapsed
// value is always a whole number of periods. It is re-armed after every
// tick rather than driven by a free-running ticker, so ticks are strictly
// ordered and a stopped Ticker never delivers a late tick.
//
// A Ticker is not safe for concurrent use; drive it from one Executor.
type Ticker struct {
	clk    Clock
	period time.Duration
	ticks  int64
	gen    uint64
	timer  Timer
	fn     func(elapsed time.Duration)
}

// NewTicker returns a stopped Ticker. It panics if period is not positive,
// matching time.NewTicker.
func NewTicker(c Clock, period time.Duration) *Ticker {
	if period <= 0 {
		panic("clock: non-positive period for NewTicker")
	}
	return &Ticker{clk: c, period: period}
}

// Start begins delivering ticks to fn, continuing from the current elapsed
// value. Starting a running Ticker does nothing and returns false.
func (t *Ticker) Start(fn func(elapsed time.Duration)) bool {
	if t.timer != nil {
		return false
	}
	t.fn = fn
	t.arm()
	return true
}

// Stop halts ticking and keeps the elapsed value. It returns false if the
// Ticker was not running.
func (t *Ticker) Stop() bool {
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	t.gen++
	return true
}

// Reset stops the Ticker and zeroes its elapsed value.
func (t *Ticker) Reset() {
	t.Stop()
	t.ticks = 0
}

func (t *Ticker) Running() bool {
	return t.timer != nil
}

func (t *Ticker) Period() time.Duration {
	return t.period
}

func (t *Ticker) Elapsed() time.Duration {
	return time.Duration(t.ticks) * t.period
}

func (t *Ticker) arm() {
	t.gen++
	gen := t.gen
	t.timer = t.clk.AfterFunc(t.period, func() { t.fire(gen) })
}

func (t *Ticker) fire(gen uint64) {
	// A callback queued before Stop carries an old generation.
	if t.timer == nil || gen != t.gen {
		return
	}
	t.ticks++
	t.arm()
	t.fn(t.Elapsed())
}
