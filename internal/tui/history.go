package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/store"
)

type historyMode int

const (
	historyDaily historyMode = iota
	historyWeekly
)

// recentLimit is how many sessions the table lists.
const recentLimit = 8

type historyModel struct {
	eng    *engine
	width  int
	height int

	mode      historyMode
	summaries []store.DailySummary
	recent    []store.SessionRow
	offset    int // weeks or 7-day blocks offset from today (0 = current)

	chart barchart.Model
}

func newHistoryModel(eng *engine) historyModel {
	return historyModel{
		eng:   eng,
		chart: barchart.New(60, 12),
	}
}

func (r *historyModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

type historyDataMsg struct {
	summaries []store.DailySummary
	recent    []store.SessionRow
	err       error
}

func (r historyModel) refresh() tea.Cmd {
	st := r.eng.store
	if st == nil {
		return nil
	}
	from, to := r.dateRange()
	return func() tea.Msg {
		summaries, err := st.GetDailySummary(from, to)
		if err != nil {
			return historyDataMsg{err: err}
		}
		recent, err := st.ListSessions(store.SessionFilter{Limit: recentLimit})
		return historyDataMsg{summaries: summaries, recent: recent, err: err}
	}
}

func (r historyModel) dateRange() (time.Time, time.Time) {
	now := r.eng.clk.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	switch r.mode {
	case historyWeekly:
		// Start of current week (Monday)
		weekday := today.Weekday()
		if weekday == time.Sunday {
			weekday = 7
		}
		startOfWeek := today.AddDate(0, 0, -int(weekday-time.Monday))
		startOfWeek = startOfWeek.AddDate(0, 0, -7*r.offset)
		return startOfWeek, startOfWeek.AddDate(0, 0, 7)
	default:
		// Daily: last 7 days
		end := today.AddDate(0, 0, 1-7*r.offset)
		start := end.AddDate(0, 0, -7)
		return start, end
	}
}

func (r historyModel) update(msg tea.Msg) (historyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case historyDataMsg:
		if msg.err != nil {
			r.eng.log.Warn("load history", zap.Error(msg.err))
			return r, errorStatus(fmt.Sprintf("History error: %v", msg.err))
		}
		r.summaries = msg.summaries
		r.recent = msg.recent
		r.buildChart()
		return r, nil

	case sessionDoneMsg:
		return r, r.refresh()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.offset++
			return r, r.refresh()
		case key.Matches(msg, keys.Right):
			if r.offset > 0 {
				r.offset--
			}
			return r, r.refresh()
		case key.Matches(msg, keys.Enter):
			if r.mode == historyDaily {
				r.mode = historyWeekly
			} else {
				r.mode = historyDaily
			}
			r.offset = 0
			return r, r.refresh()
		}
	}
	return r, nil
}

func (r *historyModel) buildChart() {
	chartWidth := max(20, r.width-8)
	chartHeight := 10
	if r.height > 30 {
		chartHeight = 14
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	from, to := r.dateRange()
	byDate := make(map[string]store.DailySummary, len(r.summaries))
	for _, s := range r.summaries {
		byDate[s.Date] = s
	}

	completed := lipgloss.NewStyle().Foreground(colorInhale)
	empty := lipgloss.NewStyle().Foreground(colorSubtle)

	var bars []barchart.BarData
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		value := barchart.BarValue{Name: "minutes", Value: 0, Style: empty}
		if s, ok := byDate[d.Format("2006-01-02")]; ok {
			value = barchart.BarValue{Name: "minutes", Value: float64(s.TotalSeconds) / 60, Style: completed}
		}
		bars = append(bars, barchart.BarData{
			Label:  d.Format("Mon 02"),
			Values: []barchart.BarValue{value},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r historyModel) view() string {
	w := r.width - 4

	dailyTab := inactiveTabStyle.Render("Daily")
	weeklyTab := inactiveTabStyle.Render("Weekly")
	if r.mode == historyDaily {
		dailyTab = activeTabStyle.Render("Daily")
	} else {
		weeklyTab = activeTabStyle.Render("Weekly")
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, dailyTab, weeklyTab)

	from, to := r.dateRange()
	dateLabel := mutedStyle.Render(fmt.Sprintf("%s - %s", from.Format("Jan 02"), to.Add(-24*time.Hour).Format("Jan 02, 2006")))

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("History"), "  ", modeTabs, "  ", dateLabel,
	)

	nav := mutedStyle.Render("  ←/→: navigate  enter: switch mode")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "",
			mutedStyle.Render("  Breathing minutes per day"),
			r.chart.View(), "",
			r.renderTotals(), "",
			r.renderRecent(w), "",
			nav,
		),
	)
}

func (r historyModel) renderTotals() string {
	if len(r.summaries) == 0 {
		return mutedStyle.Render("  No sessions in this period")
	}
	var sessions, completed int
	var secs int64
	for _, s := range r.summaries {
		sessions += s.Sessions
		completed += s.Completed
		secs += s.TotalSeconds
	}
	return fmt.Sprintf("  %s sessions  %s completed  %s breathing",
		highlightStyle.Render(fmt.Sprint(sessions)),
		successStyle.Render(fmt.Sprint(completed)),
		highlightStyle.Render(formatSeconds(secs)),
	)
}

func (r historyModel) renderRecent(w int) string {
	if len(r.recent) == 0 {
		return ""
	}

	var rows []string
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("  %-17s %-10s %-10s %9s", "Started", "Exercise", "Status", "Elapsed")))
	rows = append(rows, mutedStyle.Render("  "+strings.Repeat("─", min(w-6, 50))))

	for _, s := range r.recent {
		mark := successStyle.Render("✓")
		if s.Status != "completed" {
			mark = mutedStyle.Render("×")
		}
		rows = append(rows, fmt.Sprintf("  %-17s %-10s %s %-8s %9s",
			s.StartedAt.Local().Format("Jan 02 15:04"),
			truncate(s.Preset, 10),
			mark, s.Status,
			formatSeconds(s.ElapsedMs/1000),
		))
	}
	return strings.Join(rows, "\n")
}
