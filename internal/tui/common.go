package tui

import (
	"fmt"
	"time"
)

// viewState represents the currently active view.
type viewState int

const (
	viewToday viewState = iota
	viewBreathe
	viewHabits
	viewHistory
	viewSettings
)

var viewNames = []string{"Today", "Breathe", "Habits", "History", "Settings"}

// --- Messages ---

// runMsg carries an engine callback onto the program goroutine.
type runMsg func()

// sessionDoneMsg is emitted when a breathing session completes.
type sessionDoneMsg struct {
	id string
}

// refreshMsg is emitted by the periodic refresh interval.
type refreshMsg struct {
	view viewState
}

type settingsSavedMsg struct{}

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func formatSeconds(secs int64) string {
	return formatDuration(time.Duration(secs) * time.Second)
}

// formatClock renders a short mm:ss countdown.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d", m, s)
}

func formatMinutes(secs int64) string {
	return fmt.Sprintf("%.1f min", float64(secs)/60)
}

// startOfDay truncates t to local midnight.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
