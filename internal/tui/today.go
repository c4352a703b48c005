package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitr/internal/habit"
	"github.com/sadopc/habitr/internal/session"
	"github.com/sadopc/habitr/internal/store"
)

type todayModel struct {
	eng    *engine
	width  int
	height int

	completed int
	totalSecs int64
	goal      int
	recent    []store.SessionRow
}

func newTodayModel(eng *engine) todayModel {
	return todayModel{eng: eng, goal: 1}
}

func (d *todayModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

type todayDataMsg struct {
	completed int
	totalSecs int64
	goal      int
	recent    []store.SessionRow
}

func (d todayModel) loadData() tea.Cmd {
	st := d.eng.store
	if st == nil {
		return nil
	}
	dayStart := startOfDay(d.eng.clk.Now())
	dayEnd := dayStart.AddDate(0, 0, 1)
	return func() tea.Msg {
		completed, secs, _ := st.GetSessionStats(dayStart, dayEnd)
		recent, _ := st.ListSessions(store.SessionFilter{From: &dayStart, To: &dayEnd, Limit: 5})

		goal := 1
		if v, err := st.GetSetting("daily_goal"); err == nil {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				goal = n
			}
		}
		return todayDataMsg{completed: completed, totalSecs: secs, goal: goal, recent: recent}
	}
}

func (d todayModel) update(msg tea.Msg) (todayModel, tea.Cmd) {
	switch msg := msg.(type) {
	case todayDataMsg:
		d.completed = msg.completed
		d.totalSecs = msg.totalSecs
		d.goal = msg.goal
		d.recent = msg.recent
		return d, nil
	case sessionDoneMsg:
		return d, d.loadData()
	}
	return d, nil
}

func (d todayModel) view() string {
	if d.width < 20 {
		return "Terminal too small"
	}
	w := d.width - 4
	return lipgloss.JoinVertical(lipgloss.Left,
		d.renderSessionPanel(w),
		d.renderGoalPanel(w),
		d.renderHabitsPanel(w),
		d.renderRecentPanel(w),
	)
}

func (d todayModel) renderSessionPanel(w int) string {
	info, ok := d.eng.runner.Info()
	if !ok || !info.Status.Active() {
		content := lipgloss.JoinVertical(lipgloss.Center,
			mutedStyle.Render("■  NO SESSION"),
			mutedStyle.Render("Press s to start breathing"),
		)
		return panelStyle.Width(w).Render(lipgloss.NewStyle().Width(w - 6).Align(lipgloss.Center).Render(content))
	}

	st, _ := d.eng.runner.State()
	indicator := successStyle.Render("●  " + strings.ToUpper(st.PhaseName))
	if info.Status == session.StatusPaused {
		indicator = warningStyle.Render("⏸  PAUSED")
	}
	content := lipgloss.JoinVertical(lipgloss.Center,
		countdownStyle.Foreground(phaseColor(st.PhaseName)).Render(formatClock(info.Config.Total()-st.Elapsed)),
		indicator,
		mutedStyle.Render(fmt.Sprintf("%s  cycle %d/%d", info.Config.Name, st.Cycle+1, info.Config.Cycles)),
	)
	return activePanelStyle.Width(w).Render(lipgloss.NewStyle().Width(w - 6).Align(lipgloss.Center).Render(content))
}

func (d todayModel) renderGoalPanel(w int) string {
	title := titleStyle.Render("Today")
	goal := fmt.Sprintf("%d/%d sessions", d.completed, d.goal)
	if d.completed >= d.goal {
		goal = successStyle.Render(goal + "  ✓")
	} else {
		goal = highlightStyle.Render(goal)
	}
	total := mutedStyle.Render("breathing " + formatSeconds(d.totalSecs))

	streak := ""
	if d.eng.habits != nil {
		if n := d.eng.habits.Streak(habit.BreatheID, d.eng.clk.Now()); n > 0 {
			streak = highlightStyle.Render(fmt.Sprintf("  streak %dd", n))
		}
	}
	return panelStyle.Width(w).Render(fmt.Sprintf("%s  %s  %s%s", title, goal, total, streak))
}

func (d todayModel) renderHabitsPanel(w int) string {
	title := titleStyle.Render("Habits")
	if d.eng.habits == nil {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, title, mutedStyle.Render("Habits unavailable")))
	}

	now := d.eng.clk.Now()
	var items []string
	done := 0
	habits := d.eng.habits.List()
	for _, h := range habits {
		mark := mutedStyle.Render("○ ")
		if d.eng.habits.Done(h.ID, now) {
			mark = successStyle.Render("● ")
			done++
		}
		items = append(items, mark+h.Name)
	}
	header := fmt.Sprintf("%s  %s", title, mutedStyle.Render(fmt.Sprintf("%d/%d done", done, len(habits))))
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(items, "   ")))
}

func (d todayModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(d.recent) == 0 {
		return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No sessions today"),
		))
	}

	rows := []string{title}
	for _, s := range d.recent {
		mark := "✓"
		if s.Status != "completed" {
			mark = "×"
		}
		rows = append(rows, fmt.Sprintf("  %s %s  %-12s %s",
			mark, s.StartedAt.Local().Format("15:04"), s.Preset,
			formatSeconds(s.ElapsedMs/int64(time.Second/time.Millisecond)),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
