package tui

import (
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/clock"
	"github.com/sadopc/habitr/internal/habit"
	"github.com/sadopc/habitr/internal/persist"
	"github.com/sadopc/habitr/internal/sched"
	"github.com/sadopc/habitr/internal/session"
	"github.com/sadopc/habitr/internal/store"
)

// ProgramExecutor runs clock callbacks on the bubbletea program goroutine by
// sending them as messages. Callbacks posted before Attach are dropped.
type ProgramExecutor struct {
	p atomic.Pointer[tea.Program]
}

func (e *ProgramExecutor) Attach(p *tea.Program) {
	e.p.Store(p)
}

func (e *ProgramExecutor) Post(f func()) bool {
	p := e.p.Load()
	if p == nil {
		return false
	}
	p.Send(runMsg(f))
	return true
}

// Deps is everything the UI drives. Runner, Habits and Debouncer must share
// Clock, and Clock must run its callbacks on the program goroutine.
type Deps struct {
	Store     *store.Store
	Clock     clock.Clock
	Runner    *session.Runner
	Habits    *habit.Tracker
	Debouncer *persist.Debouncer[string, habit.State]
	Logger    *zap.Logger
	// Refresh is how often the visible view reloads its data. Zero disables.
	Refresh time.Duration
}

// engine is shared by every copy of the App model. It is only touched on
// the program goroutine.
type engine struct {
	store   *store.Store
	clk     clock.Clock
	runner  *session.Runner
	habits  *habit.Tracker
	deb     *persist.Debouncer[string, habit.State]
	log     *zap.Logger
	refresh *sched.Interval

	// pending holds messages produced by engine callbacks until the next
	// drain.
	pending []tea.Msg
	closed  bool
}

func newEngine(d Deps) *engine {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &engine{
		store:   d.Store,
		clk:     d.Clock,
		runner:  d.Runner,
		habits:  d.Habits,
		deb:     d.Debouncer,
		log:     log,
		refresh: sched.NewInterval(d.Clock, d.Refresh),
	}
}

func (e *engine) emit(msg tea.Msg) {
	e.pending = append(e.pending, msg)
}

// drain turns the pending messages into a command.
func (e *engine) drain() tea.Cmd {
	if len(e.pending) == 0 {
		return nil
	}
	cmds := make([]tea.Cmd, 0, len(e.pending))
	for _, msg := range e.pending {
		cmds = append(cmds, func() tea.Msg { return msg })
	}
	e.pending = nil
	return tea.Batch(cmds...)
}

// watch points the refresh interval at view. The timer keeps its phase.
func (e *engine) watch(view viewState) {
	e.refresh.SetCallback(func() { e.emit(refreshMsg{view: view}) })
}

// completed marks today's Breathe habit once a session finishes.
func (e *engine) completed(id string) {
	if e.habits != nil {
		if err := e.habits.MarkDone(habit.BreatheID, e.clk.Now()); err != nil {
			e.log.Warn("mark breathe habit", zap.Error(err))
		}
	}
	e.emit(sessionDoneMsg{id: id})
}

// shutdown cancels the active session and flushes or drops pending habit
// writes. Calling it again does nothing.
func (e *engine) shutdown() {
	if e.closed {
		return
	}
	e.closed = true
	e.refresh.Unmount()
	e.runner.Close()
	if e.deb != nil {
		e.deb.Close()
	}
	e.log.Info("ui shut down")
}
