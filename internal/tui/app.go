package tui

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/export"
	"github.com/sadopc/habitr/internal/phase"
	"github.com/sadopc/habitr/internal/session"
	"github.com/sadopc/habitr/internal/store"
)

// App is the root Bubble Tea model.
type App struct {
	eng    *engine
	width  int
	height int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	exportDir     string

	today    todayModel
	breathe  breatheModel
	habits   habitsModel
	history  historyModel
	settings settingsModel

	help    help.Model
	status  string
	errored bool
}

// NewApp builds the UI. fallback is the exercise used until one is saved
// from the settings view.
func NewApp(d Deps, fallback phase.Config) App {
	h := help.New()
	h.ShowAll = false

	eng := newEngine(d)
	home, _ := os.UserHomeDir()

	a := App{
		eng:        eng,
		activeView: viewToday,
		exportDir:  home,
		today:      newTodayModel(eng),
		breathe:    newBreatheModel(eng, fallback),
		habits:     newHabitsModel(eng),
		history:    newHistoryModel(eng),
		settings:   newSettingsModel(eng, fallback),
		help:       h,
	}
	eng.watch(a.activeView)
	eng.refresh.Mount()
	return a
}

func (a App) Init() tea.Cmd {
	return a.today.loadData()
}

// Shutdown cancels any running session and settles pending writes. It is
// safe to call after the program has exited.
func (a App) Shutdown() {
	a.eng.shutdown()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.today.setSize(a.width, contentHeight)
		a.breathe.setSize(a.width, contentHeight)
		a.habits.setSize(a.width, contentHeight)
		a.history.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case runMsg:
		msg()
		return a, a.eng.drain()

	case tea.KeyMsg:
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			a.eng.shutdown()
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewToday)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewBreathe)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewHabits)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewHistory)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		case a.activeView == viewToday && (key.Matches(msg, keys.Start) || key.Matches(msg, keys.Pause) || key.Matches(msg, keys.Stop)):
			// Session controls work from the overview too.
			var cmd tea.Cmd
			a.breathe, cmd = a.breathe.update(msg)
			return a, cmd
		}

	case refreshMsg:
		if msg.view != a.activeView {
			return a, nil
		}
		return a, a.refreshCurrentView()

	case sessionDoneMsg:
		a.status = "Session complete \a"
		a.errored = false
		var c1, c2 tea.Cmd
		a.today, c1 = a.today.update(msg)
		a.history, c2 = a.history.update(msg)
		return a, tea.Batch(c1, c2)

	case settingsSavedMsg:
		a.breathe, _ = a.breathe.update(msg)
		return a, nil

	case statusMsg:
		a.status = msg.text
		a.errored = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.errored = false
		a.exportPicking = false
		return a, nil

	case todayDataMsg:
		a.today, _ = a.today.update(msg)
		return a, nil

	case historyDataMsg:
		var cmd tea.Cmd
		a.history, cmd = a.history.update(msg)
		return a, cmd

	case settingsDataMsg:
		a.settings, _ = a.settings.update(msg)
		return a, nil
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	a.eng.watch(v)
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewToday:
		a.today, cmd = a.today.update(msg)
	case viewBreathe:
		a.breathe, cmd = a.breathe.update(msg)
	case viewHabits:
		a.habits, cmd = a.habits.update(msg)
	case viewHistory:
		a.history, cmd = a.history.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewHabits:
		return a.habits.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewToday:
		return a.today.loadData()
	case viewHistory:
		return a.history.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewToday:
		content = a.today.view()
	case viewBreathe:
		content = a.breathe.view()
	case viewHabits:
		content = a.habits.view()
	case viewHistory:
		content = a.history.view()
	case viewSettings:
		content = a.settings.view()
	}

	contentHeight := max(1, a.height-lipgloss.Height(header)-lipgloss.Height(footer))

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("habitr")
	gap := max(1, a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.errored {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Session indicator in footer
	sessionInfo := ""
	if info, ok := a.eng.runner.Info(); ok {
		switch info.Status {
		case session.StatusRunning:
			sessionInfo = successStyle.Render(" ● " + formatDuration(info.Elapsed))
		case session.StatusPaused:
			sessionInfo = warningStyle.Render(" ⏸ " + formatDuration(info.Elapsed))
		}
	}

	left := footerStyle.Render(helpView)
	right := sessionInfo + status

	gap := max(1, a.width-lipgloss.Width(left)-lipgloss.Width(right)-2)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

var exportFormats = []string{"CSV", "JSON"}

func (a App) renderExportPicker() string {
	rows := []string{titleStyle.Render("Export Sessions"), ""}
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	return activePanelStyle.Width(a.width - 4).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	st := a.eng.store
	if st == nil {
		return errorStatus("Export needs a database")
	}
	log := a.eng.log
	dateStr := a.eng.clk.Now().Format("2006-01-02")
	dir := a.exportDir

	return func() tea.Msg {
		sessions, err := st.ListSessions(store.SessionFilter{})
		if err != nil {
			return statusMsg{text: fmt.Sprintf("Export error: %v", err), isError: true}
		}

		var path string
		if format == 0 {
			path = filepath.Join(dir, fmt.Sprintf("habitr-export-%s.csv", dateStr))
			err = export.ToCSV(sessions, path)
		} else {
			path = filepath.Join(dir, fmt.Sprintf("habitr-export-%s.json", dateStr))
			err = export.ToJSON(sessions, path)
		}
		if err != nil {
			log.Warn("export failed", zap.String("path", path), zap.Error(err))
			return statusMsg{text: fmt.Sprintf("%s error: %v", exportFormats[format], err), isError: true}
		}
		log.Info("exported sessions", zap.String("path", path), zap.Int("count", len(sessions)))
		return exportDoneMsg{path: path}
	}
}
