package sched

import (
	"time"

	"github.com/sadopc/habitr/internal/clock"
)

// Interval calls the latest callback every delay while mounted. A zero
// delay pauses it. Changing the callback never re-arms the timer; changing
// the delay does.
type Interval struct {
	clk   clock.Clock
	delay time.Duration
	fn    func()

	alive bool
	timer clock.Timer
	gen   uint64
}

func NewInterval(c clock.Clock, delay time.Duration) *Interval {
	return &Interval{clk: c, delay: delay}
}

func (i *Interval) SetCallback(fn func()) {
	i.fn = fn
}

func (i *Interval) SetDelay(d time.Duration) {
	if d == i.delay {
		return
	}
	i.delay = d
	if i.alive {
		i.disarm()
		i.arm()
	}
}

func (i *Interval) Delay() time.Duration { return i.delay }
func (i *Interval) Alive() bool          { return i.alive }

func (i *Interval) Mount() {
	if i.alive {
		return
	}
	i.alive = true
	i.arm()
}

func (i *Interval) Unmount() {
	i.alive = false
	i.disarm()
}

func (i *Interval) arm() {
	if i.delay <= 0 {
		return
	}
	i.gen++
	gen := i.gen
	i.timer = i.clk.AfterFunc(i.delay, func() { i.fire(gen) })
}

func (i *Interval) disarm() {
	if i.timer != nil {
		i.timer.Stop()
		i.timer = nil
	}
	i.gen++
}

func (i *Interval) fire(gen uint64) {
	if !i.alive || gen != i.gen {
		return
	}
	i.arm()
	if i.fn != nil {
		i.fn()
	}
}
