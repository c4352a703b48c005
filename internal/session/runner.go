// Package session runs one timed breathing session at a time.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/clock"
	"github.com/sadopc/habitr/internal/phase"
	"github.com/sadopc/habitr/internal/sched"
)

// DefaultTick is the elapsed clock granularity when none is configured.
const DefaultTick = 100 * time.Millisecond

var (
	ErrActive     = errors.New("a session is already active")
	ErrNotRunning = errors.New("no session running")
)

type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusCompleted
	StatusCancelled
)

var statusNames = map[Status]string{
	StatusIdle:      "idle",
	StatusRunning:   "running",
	StatusPaused:    "paused",
	StatusCompleted: "completed",
	StatusCancelled: "cancelled",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for st, n := range statusNames {
		if n == s {
			return st, nil
		}
	}
	return StatusIdle, fmt.Errorf("unknown session status %q", s)
}

// Active reports whether the status still owns the runner.
func (s Status) Active() bool {
	return s == StatusRunning || s == StatusPaused
}

// Callbacks receive session output. OnComplete runs at most once per
// session and never after Cancel.
type Callbacks struct {
	OnTick     func(phase.State)
	OnComplete func()
}

// Record describes a finished session.
type Record struct {
	ID        string
	Preset    string
	Phases    []string
	Length    time.Duration
	Cycles    int
	Elapsed   time.Duration
	Status    Status
	StartedAt time.Time
	EndedAt   time.Time
}

// Recorder persists finished sessions.
type Recorder interface {
	RecordSession(ctx context.Context, r Record) error
}

// Info is a snapshot of the current or last session.
type Info struct {
	ID        string
	Config    phase.Config
	Status    Status
	StartedAt time.Time
	Elapsed   time.Duration
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.rec = rec }
}

func WithTick(d time.Duration) Option {
	return func(r *Runner) { r.tick = d }
}

// Runner owns at most one active session. All methods and callbacks must
// run on the executor behind its clock.
type Runner struct {
	clk  clock.Clock
	tick time.Duration
	log  *zap.Logger
	rec  Recorder

	cb  Callbacks
	cur *run
}

type run struct {
	id      string
	cfg     phase.Config
	sched   *sched.Scheduler
	signal  *Signal
	status  Status
	started time.Time
}

func NewRunner(c clock.Clock, opts ...Option) *Runner {
	r := &Runner{clk: c, tick: DefaultTick, log: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) Tick() time.Duration { return r.tick }

// SetCallbacks replaces the callbacks of the running session without
// touching its timer.
func (r *Runner) SetCallbacks(cb Callbacks) {
	r.cb = cb
}

// Start validates cfg and begins a new session. Invalid configs fail before
// anything is scheduled.
func (r *Runner) Start(cfg phase.Config, cb Callbacks) (string, error) {
	if err := cfg.Validate(r.tick); err != nil {
		return "", err
	}
	if r.cur != nil && r.cur.status.Active() {
		return "", ErrActive
	}

	s := &run{
		id:      uuid.NewString(),
		cfg:     cfg,
		sched:   sched.New(r.clk, r.tick),
		status:  StatusRunning,
		started: r.clk.Now(),
	}
	s.signal = NewSignal(cfg.Total(), func() { r.complete(s) })
	s.sched.SetLimit(cfg.Total())
	s.sched.SetCallback(func(elapsed time.Duration) { r.onTick(s, elapsed) })

	r.cb = cb
	r.cur = s
	s.sched.Mount()

	r.log.Info("session started",
		zap.String("id", s.id),
		zap.String("preset", cfg.Name),
		zap.Duration("total", cfg.Total()),
	)
	return s.id, nil
}

// Cancel stops the active session without firing OnComplete. It returns
// false when nothing was active.
func (r *Runner) Cancel() bool {
	s := r.cur
	if s == nil || !s.status.Active() {
		return false
	}
	s.status = StatusCancelled
	s.signal.Disarm()
	s.sched.Unmount()
	r.log.Info("session cancelled", zap.String("id", s.id), zap.Duration("elapsed", s.sched.Elapsed()))
	r.record(s)
	return true
}

func (r *Runner) Pause() bool {
	s := r.cur
	if s == nil || s.status != StatusRunning {
		return false
	}
	s.status = StatusPaused
	s.sched.Pause()
	return true
}

func (r *Runner) Resume() bool {
	s := r.cur
	if s == nil || s.status != StatusPaused {
		return false
	}
	s.status = StatusRunning
	// Paused on the final tick: the ticker already stopped at the limit, so
	// nothing would ever observe it again.
	if s.sched.Done() {
		s.signal.Observe(s.sched.Elapsed())
		return true
	}
	s.sched.Resume()
	return true
}

// Toggle pauses a running session or resumes a paused one.
func (r *Runner) Toggle() bool {
	if r.cur != nil && r.cur.status == StatusPaused {
		return r.Resume()
	}
	return r.Pause()
}

// State derives the display state of the current or last session.
func (r *Runner) State() (phase.State, bool) {
	if r.cur == nil {
		return phase.State{}, false
	}
	return phase.Derive(r.cur.sched.Elapsed(), r.cur.cfg), true
}

func (r *Runner) Info() (Info, bool) {
	s := r.cur
	if s == nil {
		return Info{Status: StatusIdle}, false
	}
	return Info{
		ID:        s.id,
		Config:    s.cfg,
		Status:    s.status,
		StartedAt: s.started,
		Elapsed:   s.sched.Elapsed(),
	}, true
}

func (r *Runner) Status() Status {
	if r.cur == nil {
		return StatusIdle
	}
	return r.cur.status
}

// Close cancels any active session.
func (r *Runner) Close() {
	r.Cancel()
}

func (r *Runner) onTick(s *run, elapsed time.Duration) {
	if r.cur != s || s.status != StatusRunning {
		return
	}
	if fn := r.cb.OnTick; fn != nil {
		fn(phase.Derive(elapsed, s.cfg))
	}
	// OnTick may have cancelled the session.
	if r.cur != s || s.status != StatusRunning {
		return
	}
	s.signal.Observe(elapsed)
}

func (r *Runner) complete(s *run) {
	s.status = StatusCompleted
	s.sched.Unmount()
	r.log.Info("session completed", zap.String("id", s.id))
	r.record(s)
	if fn := r.cb.OnComplete; fn != nil {
		fn()
	}
}

func (r *Runner) record(s *run) {
	if r.rec == nil {
		return
	}
	rec := Record{
		ID:        s.id,
		Preset:    s.cfg.Name,
		Phases:    s.cfg.Phases,
		Length:    s.cfg.Length,
		Cycles:    s.cfg.Cycles,
		Elapsed:   s.sched.Elapsed(),
		Status:    s.status,
		StartedAt: s.started,
		EndedAt:   r.clk.Now(),
	}
	if err := r.rec.RecordSession(context.Background(), rec); err != nil {
		r.log.Warn("record session", zap.String("id", s.id), zap.Error(err))
	}
}
