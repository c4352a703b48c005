// Package habit keeps a local-first list of daily habits. The whole list is
// one value written through a persist.Debouncer, so rapid toggling costs a
// single store write.
package habit

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/clock"
	"github.com/sadopc/habitr/internal/persist"
)

// Key is the store key holding the habit state.
const Key = "habits"

// BreatheID is the built-in habit marked by completed breathing sessions.
const BreatheID = "breathe"

const dayLayout = "2006-01-02"

var (
	ErrNotFound  = errors.New("habit not found")
	ErrEmptyName = errors.New("habit name is empty")
	ErrDuplicate = errors.New("habit already exists")
)

type Habit struct {
	ID       string    `json:"id" cbor:"id"`
	Name     string    `json:"name" cbor:"name"`
	Color    string    `json:"color,omitempty" cbor:"color,omitempty"`
	Created  time.Time `json:"created" cbor:"created"`
	Archived bool      `json:"archived,omitempty" cbor:"archived,omitempty"`
}

// State is the persisted form: the habits plus, per habit id, the sorted
// days (YYYY-MM-DD) it was done.
type State struct {
	Habits []Habit             `json:"habits" cbor:"habits"`
	Done   map[string][]string `json:"done" cbor:"done"`
}

func (s State) clone() State {
	out := State{
		Habits: slices.Clone(s.Habits),
		Done:   make(map[string][]string, len(s.Done)),
	}
	for id, days := range s.Done {
		out.Done[id] = slices.Clone(days)
	}
	return out
}

type Option func(*Tracker)

func WithLogger(l *zap.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

// Tracker holds the habit state in memory and schedules a write on every
// change. Like the Debouncer it writes through, it is not safe for
// concurrent use.
type Tracker struct {
	clk   clock.Clock
	deb   *persist.Debouncer[string, State]
	log   *zap.Logger
	state State
}

// Open loads the stored state (or a pending unwritten one) and makes sure
// the built-in Breathe habit exists.
func Open(ctx context.Context, c clock.Clock, deb *persist.Debouncer[string, State], opts ...Option) (*Tracker, error) {
	t := &Tracker{clk: c, deb: deb, log: zap.NewNop()}
	for _, o := range opts {
		o(t)
	}

	st, ok, err := deb.Load(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load habits: %w", err)
	}
	if ok {
		t.state = st.clone()
	}
	if t.state.Done == nil {
		t.state.Done = make(map[string][]string)
	}
	if t.find(BreatheID) < 0 {
		t.state.Habits = append([]Habit{{ID: BreatheID, Name: "Breathe", Color: "#7D56F4", Created: c.Now()}}, t.state.Habits...)
		t.save()
	}
	t.log.Debug("habits loaded", zap.Int("count", len(t.state.Habits)), zap.Bool("stored", ok))
	return t, nil
}

// Add creates a habit. Names are unique among active habits, ignoring case.
func (t *Tracker) Add(name, color string) (Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Habit{}, ErrEmptyName
	}
	for _, h := range t.state.Habits {
		if !h.Archived && strings.EqualFold(h.Name, name) {
			return Habit{}, fmt.Errorf("add %q: %w", name, ErrDuplicate)
		}
	}
	h := Habit{ID: uuid.NewString(), Name: name, Color: color, Created: t.clk.Now()}
	t.state.Habits = append(t.state.Habits, h)
	t.save()
	return h, nil
}

// Archive hides a habit from List. Its history is kept.
func (t *Tracker) Archive(id string) error {
	i := t.find(id)
	if i < 0 {
		return fmt.Errorf("archive %s: %w", id, ErrNotFound)
	}
	if t.state.Habits[i].Archived {
		return nil
	}
	t.state.Habits[i].Archived = true
	t.save()
	return nil
}

// Toggle flips the done mark of a habit for day and returns the new mark.
func (t *Tracker) Toggle(id string, day time.Time) (bool, error) {
	if t.find(id) < 0 {
		return false, fmt.Errorf("toggle %s: %w", id, ErrNotFound)
	}
	key := day.Format(dayLayout)
	days := t.state.Done[id]
	if i, ok := slices.BinarySearch(days, key); ok {
		t.state.Done[id] = slices.Delete(days, i, i+1)
		t.save()
		return false, nil
	}
	t.insert(id, key)
	t.save()
	return true, nil
}

// MarkDone marks a habit done for day. Marking twice is a no-op.
func (t *Tracker) MarkDone(id string, day time.Time) error {
	if t.find(id) < 0 {
		return fmt.Errorf("mark %s: %w", id, ErrNotFound)
	}
	if t.insert(id, day.Format(dayLayout)) {
		t.save()
	}
	return nil
}

func (t *Tracker) Done(id string, day time.Time) bool {
	_, ok := slices.BinarySearch(t.state.Done[id], day.Format(dayLayout))
	return ok
}

// Streak counts consecutive done days ending today, or ending yesterday
// when today is not done yet.
func (t *Tracker) Streak(id string, today time.Time) int {
	day := today
	if !t.Done(id, day) {
		day = day.AddDate(0, 0, -1)
	}
	n := 0
	for t.Done(id, day) {
		n++
		day = day.AddDate(0, 0, -1)
	}
	return n
}

// List returns the active habits in creation order.
func (t *Tracker) List() []Habit {
	var out []Habit
	for _, h := range t.state.Habits {
		if !h.Archived {
			out = append(out, h)
		}
	}
	return out
}

func (t *Tracker) Get(id string) (Habit, bool) {
	i := t.find(id)
	if i < 0 {
		return Habit{}, false
	}
	return t.state.Habits[i], true
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() State {
	return t.state.clone()
}

func (t *Tracker) find(id string) int {
	return slices.IndexFunc(t.state.Habits, func(h Habit) bool { return h.ID == id })
}

func (t *Tracker) insert(id, key string) bool {
	days := t.state.Done[id]
	i, ok := slices.BinarySearch(days, key)
	if ok {
		return false
	}
	t.state.Done[id] = slices.Insert(days, i, key)
	return true
}

// save hands a copy to the Debouncer so later edits never alias the
// pending value.
func (t *Tracker) save() {
	t.deb.Update(Key, t.state.clone())
}
