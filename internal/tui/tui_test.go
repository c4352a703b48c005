package tui

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/habitr/internal/clock"
	"github.com/sadopc/habitr/internal/habit"
	"github.com/sadopc/habitr/internal/persist"
	"github.com/sadopc/habitr/internal/phase"
	"github.com/sadopc/habitr/internal/session"
	"github.com/sadopc/habitr/internal/store"
)

var epoch = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

// quick is a four second exercise at a one second tick.
var quick = phase.Config{Name: "quick", Phases: []string{"In", "Out"}, Length: 2 * time.Second, Cycles: 1}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type testEnv struct {
	app   App
	clk   *clock.Fake
	store *store.Store
	deb   *persist.Debouncer[string, habit.State]
	trk   *habit.Tracker
}

func newTestApp(t *testing.T) *testEnv {
	t.Helper()
	s := newTestStore(t)
	if err := s.SaveBreathingConfig(quick); err != nil {
		t.Fatal(err)
	}

	c := clock.NewFake(epoch)
	r := session.NewRunner(c, session.WithTick(time.Second), session.WithRecorder(s))
	deb := persist.New[string, habit.State](c, persist.NewEncoded[habit.State](s.KV(), persist.JSON), persist.DefaultWindow)
	trk, err := habit.Open(context.Background(), c, deb)
	if err != nil {
		t.Fatal(err)
	}

	a := NewApp(Deps{
		Store:     s,
		Clock:     c,
		Runner:    r,
		Habits:    trk,
		Debouncer: deb,
		Refresh:   30 * time.Second,
	}, phase.Box)
	a.exportDir = t.TempDir()
	t.Cleanup(a.Shutdown)

	a, _ = update(a, tea.WindowSizeMsg{Width: 120, Height: 40})
	return &testEnv{app: a, clk: c, store: s, deb: deb, trk: trk}
}

func update(a App, msg tea.Msg) (App, tea.Cmd) {
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends a key and feeds every resulting message back in.
func (e *testEnv) press(keys ...string) {
	for _, k := range keys {
		var cmd tea.Cmd
		e.app, cmd = update(e.app, keyPress(k))
		e.app = feed(e.app, cmd)
	}
}

// advance moves the fake clock and delivers what the engine emitted, the
// way the program would after a runMsg.
func (e *testEnv) advance(d time.Duration) {
	e.clk.Advance(d)
	e.app = feed(e.app, e.app.eng.drain())
}

// collect runs cmd and returns the messages it produced, flattening batches.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func feed(a App, cmd tea.Cmd) App {
	for _, msg := range collect(cmd) {
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		var next tea.Cmd
		a, next = update(a, msg)
		a = feed(a, next)
	}
	return a
}

// ============================================================
// App shell
// ============================================================

func TestAppLoadingBeforeSize(t *testing.T) {
	e := newTestApp(t)
	fresh := e.app
	fresh.width = 0
	if fresh.View() != "Loading..." {
		t.Fatalf("expected loading view, got %q", fresh.View())
	}
}

func TestAppStartsOnToday(t *testing.T) {
	e := newTestApp(t)
	if e.app.activeView != viewToday {
		t.Fatalf("expected today view, got %d", e.app.activeView)
	}
	out := e.app.View()
	for _, want := range []string{"habitr", "Today", "NO SESSION", "Breathe"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestTabSwitching(t *testing.T) {
	e := newTestApp(t)
	tests := []struct {
		key  string
		want viewState
	}{
		{"2", viewBreathe},
		{"3", viewHabits},
		{"4", viewHistory},
		{"5", viewSettings},
		{"tab", viewToday},
		{"tab", viewBreathe},
		{"1", viewToday},
	}
	for _, tt := range tests {
		e.press(tt.key)
		if e.app.activeView != tt.want {
			t.Fatalf("after %q: view = %d, want %d", tt.key, e.app.activeView, tt.want)
		}
	}
}

func TestHelpToggle(t *testing.T) {
	e := newTestApp(t)
	e.press("?")
	if !e.app.showHelp || !e.app.help.ShowAll {
		t.Fatal("help should expand")
	}
	e.press("?")
	if e.app.showHelp {
		t.Fatal("help should collapse")
	}
}

func TestQuitCancelsSession(t *testing.T) {
	e := newTestApp(t)
	e.press("2", "s")
	if e.app.eng.runner.Status() != session.StatusRunning {
		t.Fatal("session should be running")
	}

	_, cmd := update(e.app, keyPress("q"))
	if cmd == nil {
		t.Fatal("quit should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected quit message")
	}
	if e.app.eng.runner.Status() != session.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", e.app.eng.runner.Status())
	}
	rows, _ := e.store.ListSessions(store.SessionFilter{})
	if len(rows) != 1 || rows[0].Status != "cancelled" {
		t.Fatalf("expected one cancelled session, got %+v", rows)
	}
}

// ============================================================
// Breathe
// ============================================================

func TestBreatheSessionCompletes(t *testing.T) {
	e := newTestApp(t)
	e.press("2")
	if got := e.app.breathe.selected().Name; got != "quick" {
		t.Fatalf("saved exercise should be first, got %q", got)
	}

	e.press("s")
	if e.app.eng.runner.Status() != session.StatusRunning {
		t.Fatal("session should be running")
	}
	if !strings.Contains(e.app.status, "quick") {
		t.Fatalf("unexpected status %q", e.app.status)
	}

	e.advance(1 * time.Second)
	if out := e.app.View(); !strings.Contains(out, "IN") || !strings.Contains(out, "BREATHING") {
		t.Fatal("running view should show the phase")
	}

	e.advance(3 * time.Second)
	if e.app.eng.runner.Status() != session.StatusCompleted {
		t.Fatalf("expected completed, got %s", e.app.eng.runner.Status())
	}
	if !strings.Contains(e.app.status, "Session complete") {
		t.Fatalf("status = %q", e.app.status)
	}
	if !e.trk.Done(habit.BreatheID, e.clk.Now()) {
		t.Fatal("Breathe habit should be marked done")
	}

	rows, err := e.store.ListSessions(store.SessionFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Status != "completed" || rows[0].ElapsedMs != 4000 {
		t.Fatalf("unexpected history: %+v", rows)
	}
	if e.app.today.completed != 1 {
		t.Fatalf("today should count the session, got %d", e.app.today.completed)
	}

	// Nothing further fires once complete.
	e.advance(10 * time.Second)
	rows, _ = e.store.ListSessions(store.SessionFilter{})
	if len(rows) != 1 {
		t.Fatalf("expected one record, got %d", len(rows))
	}
}

func TestBreathePauseResumeCancel(t *testing.T) {
	e := newTestApp(t)
	e.press("2", "s")
	e.advance(time.Second)

	e.press(" ")
	if e.app.eng.runner.Status() != session.StatusPaused {
		t.Fatal("space should pause")
	}
	e.advance(5 * time.Second)
	if info, _ := e.app.eng.runner.Info(); info.Elapsed != time.Second {
		t.Fatalf("elapsed moved while paused: %v", info.Elapsed)
	}
	if !strings.Contains(e.app.View(), "PAUSED") {
		t.Fatal("view should show paused")
	}

	e.press(" ")
	e.advance(time.Second)
	if info, _ := e.app.eng.runner.Info(); info.Elapsed != 2*time.Second {
		t.Fatalf("expected 2s elapsed, got %v", info.Elapsed)
	}

	e.press("x")
	if e.app.eng.runner.Status() != session.StatusCancelled {
		t.Fatal("x should cancel")
	}
	if e.trk.Done(habit.BreatheID, e.clk.Now()) {
		t.Fatal("cancelled session must not mark the habit")
	}
	if !strings.Contains(e.app.View(), "cancelled") {
		t.Fatal("idle view should mention the cancelled session")
	}
}

func TestStartFromToday(t *testing.T) {
	e := newTestApp(t)
	e.press("s")
	if e.app.eng.runner.Status() != session.StatusRunning {
		t.Fatal("s on today should start a session")
	}
	if e.app.activeView != viewToday {
		t.Fatal("view should not change")
	}
	if !strings.Contains(e.app.View(), "cycle 1/1") {
		t.Fatal("today should show the running session")
	}
}

func TestChooseExercise(t *testing.T) {
	e := newTestApp(t)
	e.press("2")
	n := len(e.app.breathe.choices)
	if n != 1+len(phase.PresetNames()) {
		t.Fatalf("expected saved + presets, got %d", n)
	}

	e.press("l")
	if e.app.breathe.choice != 1 {
		t.Fatalf("right should advance, got %d", e.app.breathe.choice)
	}
	e.press("h", "h")
	if e.app.breathe.choice != n-1 {
		t.Fatalf("left should wrap, got %d", e.app.breathe.choice)
	}

	// Choice is locked while a session runs.
	e.press("s", "l")
	if e.app.breathe.choice != n-1 {
		t.Fatal("choice changed during a session")
	}
}

func TestStartTwiceIsIgnored(t *testing.T) {
	e := newTestApp(t)
	e.press("2", "s")
	first, _ := e.app.eng.runner.Info()
	e.press("s")
	second, _ := e.app.eng.runner.Info()
	if first.ID != second.ID {
		t.Fatal("second start replaced the running session")
	}
}

func TestRenderCycles(t *testing.T) {
	st := phase.Derive(5*time.Second, phase.Config{Phases: []string{"In", "Out"}, Length: 2 * time.Second, Cycles: 3})
	out := renderCycles(st, 3)
	if strings.Count(out, "●") != 1 || strings.Count(out, "◐") != 1 || strings.Count(out, "○") != 1 {
		t.Fatalf("unexpected dots %q", out)
	}
	if !strings.Contains(out, "2/3") {
		t.Fatalf("missing counter in %q", out)
	}
	if strings.Contains(renderCycles(st, 50), "○") {
		t.Fatal("many cycles should collapse to a counter")
	}
}

// ============================================================
// Habits
// ============================================================

func TestHabitsToggle(t *testing.T) {
	e := newTestApp(t)
	e.press("3", "enter")
	if !e.trk.Done(habit.BreatheID, e.clk.Now()) {
		t.Fatal("enter should mark the habit")
	}
	e.press("enter")
	if e.trk.Done(habit.BreatheID, e.clk.Now()) {
		t.Fatal("enter again should clear the mark")
	}
}

func TestHabitsAddAndArchive(t *testing.T) {
	e := newTestApp(t)
	e.press("3")

	var cmd tea.Cmd
	e.app.habits, cmd = e.app.habits.addHabit("Stretch", habitColors[1])
	e.app = feed(e.app, cmd)
	if len(e.trk.List()) != 2 {
		t.Fatal("habit not added")
	}
	if e.app.habits.cursor != 1 {
		t.Fatalf("cursor should move to the new habit, got %d", e.app.habits.cursor)
	}
	if !strings.Contains(e.app.View(), "Stretch") {
		t.Fatal("view should list the new habit")
	}

	_, cmd = e.app.habits.addHabit("stretch", "")
	msgs := collect(cmd)
	if len(msgs) != 1 || !msgs[0].(statusMsg).isError {
		t.Fatal("duplicate should report an error")
	}

	e.press("d")
	if len(e.trk.List()) != 1 {
		t.Fatal("habit should be archived")
	}

	// The built-in habit cannot be archived.
	e.press("k", "d")
	if len(e.trk.List()) != 1 || !e.app.errored {
		t.Fatal("archiving Breathe should be refused")
	}
}

func TestHabitFormOpensAndCancels(t *testing.T) {
	e := newTestApp(t)
	e.press("3")
	e.app, _ = update(e.app, keyPress("n"))
	if !e.app.isFormActive() {
		t.Fatal("n should open the form")
	}
	// Tab keys go to the form while it is open.
	e.app, _ = update(e.app, keyPress("2"))
	if e.app.activeView != viewHabits {
		t.Fatal("view switched while the form was open")
	}
	e.app, _ = update(e.app, keyPress("esc"))
	if e.app.isFormActive() {
		t.Fatal("esc should close the form")
	}
}

func TestHabitWritesAreDebounced(t *testing.T) {
	e := newTestApp(t)
	e.advance(persist.DefaultWindow)
	e.press("3")
	for i := 0; i < 5; i++ {
		e.press("enter")
	}
	if _, ok := e.deb.Pending(habit.Key); !ok {
		t.Fatal("expected a pending write")
	}
	e.advance(persist.DefaultWindow)
	if e.deb.PendingCount() != 0 {
		t.Fatal("write should have landed")
	}

	raw, ok, err := e.store.KV().Get(context.Background(), habit.Key)
	if err != nil || !ok {
		t.Fatalf("kv missing: %v", err)
	}
	if !strings.Contains(string(raw), epoch.Format("2006-01-02")) {
		t.Fatalf("stored state should include today: %s", raw)
	}
}

// ============================================================
// Refresh interval
// ============================================================

func TestRefreshFollowsActiveView(t *testing.T) {
	e := newTestApp(t)
	e.clk.Advance(30 * time.Second)
	if len(e.app.eng.pending) != 1 || e.app.eng.pending[0] != (refreshMsg{view: viewToday}) {
		t.Fatalf("expected a today refresh, got %v", e.app.eng.pending)
	}
	e.app = feed(e.app, e.app.eng.drain())

	e.press("4")
	e.clk.Advance(30 * time.Second)
	if len(e.app.eng.pending) != 1 || e.app.eng.pending[0] != (refreshMsg{view: viewHistory}) {
		t.Fatalf("expected a history refresh, got %v", e.app.eng.pending)
	}

	// A refresh for a view no longer shown is ignored.
	_, cmd := update(e.app, refreshMsg{view: viewToday})
	if cmd != nil {
		t.Fatal("stale refresh should do nothing")
	}
}

func TestShutdownStopsRefresh(t *testing.T) {
	e := newTestApp(t)
	e.app.Shutdown()
	e.app.Shutdown()
	e.clk.Advance(time.Minute)
	if len(e.app.eng.pending) != 0 {
		t.Fatal("no refresh after shutdown")
	}
}

func TestShutdownFlushesHabits(t *testing.T) {
	e := newTestApp(t)
	e.press("3", "enter")
	e.app.Shutdown()

	if e.deb.PendingCount() != 0 {
		t.Fatal("close should flush")
	}
	if _, ok, _ := e.store.KV().Get(context.Background(), habit.Key); !ok {
		t.Fatal("habits should be stored on shutdown")
	}
}

// ============================================================
// History
// ============================================================

func TestHistoryLoadsSummaries(t *testing.T) {
	e := newTestApp(t)
	rec := session.Record{
		ID: "h1", Preset: "box", Phases: phase.Box.Phases, Length: 4 * time.Second, Cycles: 8,
		Elapsed: 128 * time.Second, Status: session.StatusCompleted,
		StartedAt: epoch.Add(-time.Hour), EndedAt: epoch,
	}
	if err := e.store.RecordSession(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	e.press("4")
	if len(e.app.history.summaries) != 1 || len(e.app.history.recent) != 1 {
		t.Fatalf("expected data, got %d/%d", len(e.app.history.summaries), len(e.app.history.recent))
	}
	out := e.app.View()
	if !strings.Contains(out, "History") || !strings.Contains(out, "box") {
		t.Fatal("view should show history")
	}

	e.press("h")
	if e.app.history.offset != 1 || len(e.app.history.summaries) != 0 {
		t.Fatal("previous block should be empty")
	}
	e.press("l", "l")
	if e.app.history.offset != 0 {
		t.Fatal("offset should not go below zero")
	}
	e.press("enter")
	if e.app.history.mode != historyWeekly {
		t.Fatal("enter should switch to weekly")
	}
}

func TestHistoryDateRange(t *testing.T) {
	e := newTestApp(t)
	r := e.app.history
	from, to := r.dateRange()
	if to.Sub(from) != 7*24*time.Hour {
		t.Fatalf("daily range should span 7 days, got %v", to.Sub(from))
	}
	if !to.After(epoch) {
		t.Fatal("daily range should include today")
	}

	r.mode = historyWeekly
	from, _ = r.dateRange()
	if from.Weekday() != time.Monday {
		t.Fatalf("weekly range should start Monday, got %s", from.Weekday())
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsLoad(t *testing.T) {
	e := newTestApp(t)
	e.press("5")
	if len(e.app.settings.settings) == 0 {
		t.Fatal("settings should load")
	}
	if !strings.Contains(e.app.View(), "breath_cycles") {
		t.Fatal("view should list settings")
	}
}

func TestFreshStoreUsesConfiguredExercise(t *testing.T) {
	s := newTestStore(t)
	c := clock.NewFake(epoch)
	r := session.NewRunner(c, session.WithTick(time.Second), session.WithRecorder(s))
	deb := persist.New[string, habit.State](c, persist.NewEncoded[habit.State](s.KV(), persist.JSON), persist.DefaultWindow)
	trk, err := habit.Open(context.Background(), c, deb)
	if err != nil {
		t.Fatal(err)
	}
	fromFile := phase.Config{Name: "equal", Phases: []string{"Inhale", "Exhale"}, Length: 6 * time.Second, Cycles: 3}
	a := NewApp(Deps{Store: s, Clock: c, Runner: r, Habits: trk, Debouncer: deb}, fromFile)
	t.Cleanup(a.Shutdown)

	got := a.breathe.selected()
	if got.Name != "equal" || got.Length != 6*time.Second || got.Cycles != 3 {
		t.Fatalf("breathe should start from the configured exercise, got %+v", got)
	}

	form, _ := a.settings.showForm()
	if *form.preset != "equal" || *form.phases != "Inhale,Exhale" || *form.phaseSeconds != "6" || *form.cycles != "3" {
		t.Fatalf("settings form = %q %q %q %q", *form.preset, *form.phases, *form.phaseSeconds, *form.cycles)
	}
}

func TestSettingsSave(t *testing.T) {
	e := newTestApp(t)
	s := e.app.settings
	*s.preset = "calm"
	*s.phases = "In, Hold , Out"
	*s.phaseSeconds = "3"
	*s.cycles = "2"
	*s.dailyGoal = "3"

	if err := s.saveSettings(); err != nil {
		t.Fatal(err)
	}
	cfg := e.store.BreathingConfig(phase.Box)
	if cfg.Name != "calm" || len(cfg.Phases) != 3 || cfg.Length != 3*time.Second || cfg.Cycles != 2 {
		t.Fatalf("unexpected saved config %+v", cfg)
	}
	if v, _ := e.store.GetSetting("daily_goal"); v != "3" {
		t.Fatalf("daily goal = %q", v)
	}

	e.app, _ = update(e.app, settingsSavedMsg{})
	if got := e.app.breathe.selected(); got.Name != "calm" {
		t.Fatalf("breathe should pick up saved exercise, got %q", got.Name)
	}
}

func TestSettingsRejectInvalid(t *testing.T) {
	e := newTestApp(t)
	s := e.app.settings
	*s.preset = "box"
	*s.phases = " , "
	*s.phaseSeconds = "4"
	*s.cycles = "8"

	err := s.saveSettings()
	if !errors.Is(err, phase.ErrInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if cfg := e.store.BreathingConfig(phase.Box); cfg.Name != "quick" {
		t.Fatal("invalid settings must not be saved")
	}

	*s.phases = "In,Out"
	*s.phaseSeconds = "abc"
	if err := s.saveSettings(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestPositiveInt(t *testing.T) {
	for _, v := range []string{"0", "-1", "x", ""} {
		if positiveInt(v) == nil {
			t.Errorf("positiveInt(%q) should fail", v)
		}
	}
	if positiveInt(" 4 ") != nil {
		t.Error("positiveInt(4) should pass")
	}
}

// ============================================================
// Export
// ============================================================

func TestExportFromPicker(t *testing.T) {
	e := newTestApp(t)
	e.press("2", "s")
	e.advance(4 * time.Second)

	e.press("e")
	if !e.app.exportPicking {
		t.Fatal("e should open the picker")
	}
	if !strings.Contains(e.app.View(), "Export Sessions") {
		t.Fatal("picker should render")
	}
	e.press("j", "enter")
	if e.app.exportPicking {
		t.Fatal("picker should close")
	}
	if !strings.HasPrefix(e.app.status, "Exported to ") {
		t.Fatalf("status = %q", e.app.status)
	}
	path := strings.TrimPrefix(e.app.status, "Exported to ")
	if !strings.HasSuffix(path, ".json") {
		t.Fatalf("expected json export, got %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"count": 1`) {
		t.Fatalf("export should hold the session: %s", data)
	}
}

func TestExportPickerEsc(t *testing.T) {
	e := newTestApp(t)
	e.press("e", "esc")
	if e.app.exportPicking {
		t.Fatal("esc should close the picker")
	}
}

// ============================================================
// Executor and helpers
// ============================================================

func TestProgramExecutorDropsBeforeAttach(t *testing.T) {
	var ex ProgramExecutor
	if ex.Post(func() { t.Fatal("should not run") }) {
		t.Fatal("Post should report the drop")
	}
}

func TestFormatHelpers(t *testing.T) {
	if got := formatDuration(3661 * time.Second); got != "01:01:01" {
		t.Errorf("formatDuration = %q", got)
	}
	if got := formatClock(128 * time.Second); got != "02:08" {
		t.Errorf("formatClock = %q", got)
	}
	if got := formatClock(-time.Second); got != "00:00" {
		t.Errorf("formatClock negative = %q", got)
	}
	if got := truncate("abcdef", 4); got != "abc…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("abc", 4); got != "abc" {
		t.Errorf("truncate short = %q", got)
	}
}

func TestPhaseColor(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Inhale", string(colorInhale)},
		{"exhale", string(colorExhale)},
		{"Out", string(colorExhale)},
		{"Hold", string(colorHold)},
	}
	for _, tt := range tests {
		if got := string(phaseColor(tt.name)); got != tt.want {
			t.Errorf("phaseColor(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
