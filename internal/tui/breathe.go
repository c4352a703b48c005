package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/phase"
	"github.com/sadopc/habitr/internal/session"
)

type breatheModel struct {
	eng    *engine
	width  int
	height int

	fallback phase.Config
	// choices is the saved exercise followed by the built-in presets.
	choices []phase.Config
	choice  int

	bar progress.Model
}

func newBreatheModel(eng *engine, fallback phase.Config) breatheModel {
	b := breatheModel{
		eng:      eng,
		fallback: fallback,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	b.loadChoices()
	return b
}

func (b *breatheModel) loadChoices() {
	saved := b.fallback
	if b.eng.store != nil {
		saved = b.eng.store.BreathingConfig(b.fallback)
	}
	b.choices = []phase.Config{saved}
	for _, name := range phase.PresetNames() {
		if name == saved.Name {
			continue
		}
		if p, err := phase.Preset(name); err == nil {
			b.choices = append(b.choices, p)
		}
	}
	if b.choice >= len(b.choices) {
		b.choice = 0
	}
}

func (b *breatheModel) setSize(w, h int) {
	b.width = w
	b.height = h
	b.bar.Width = max(10, w-16)
}

func (b breatheModel) selected() phase.Config {
	return b.choices[b.choice]
}

func (b breatheModel) update(msg tea.Msg) (breatheModel, tea.Cmd) {
	switch msg := msg.(type) {
	case settingsSavedMsg:
		b.choice = 0
		b.loadChoices()
		return b, nil

	case tea.KeyMsg:
		r := b.eng.runner
		switch {
		case key.Matches(msg, keys.Start):
			return b.start()
		case key.Matches(msg, keys.Stop):
			if r.Cancel() {
				return b, status("Session cancelled")
			}
		case key.Matches(msg, keys.Pause):
			r.Toggle()
		case key.Matches(msg, keys.Left):
			if !r.Status().Active() {
				b.choice = (b.choice + len(b.choices) - 1) % len(b.choices)
			}
		case key.Matches(msg, keys.Right):
			if !r.Status().Active() {
				b.choice = (b.choice + 1) % len(b.choices)
			}
		}
	}
	return b, nil
}

func (b breatheModel) start() (breatheModel, tea.Cmd) {
	eng := b.eng
	cfg := b.selected()
	_, err := eng.runner.Start(cfg, session.Callbacks{
		OnComplete: func() {
			info, _ := eng.runner.Info()
			eng.completed(info.ID)
		},
	})
	switch {
	case errors.Is(err, session.ErrActive):
		return b, nil
	case err != nil:
		eng.log.Warn("start session", zap.Error(err))
		return b, errorStatus(fmt.Sprintf("Cannot start: %v", err))
	}
	return b, status("Breathing: " + cfg.Name)
}

func (b breatheModel) view() string {
	w := b.width - 4
	title := titleStyle.Render("Breathe")

	info, ok := b.eng.runner.Info()
	if !ok || !info.Status.Active() {
		return b.renderIdle(w, title, info, ok)
	}

	st, _ := b.eng.runner.State()
	color := phaseColor(st.PhaseName)

	label := phaseLabelStyle.Foreground(color).Render(strings.ToUpper(st.PhaseName))
	count := countdownStyle.Foreground(color).Width(w - 6).Render(fmt.Sprintf("%d", st.Countdown))
	bar := b.bar.ViewAs(st.Progress)

	clockLine := mutedStyle.Render(fmt.Sprintf("%s / %s", formatClock(st.Elapsed), formatClock(info.Config.Total())))
	stateLine := successStyle.Render("●  BREATHING")
	controls := mutedStyle.Render("space: pause  x: cancel")
	if info.Status == session.StatusPaused {
		stateLine = warningStyle.Render("⏸  PAUSED")
		controls = mutedStyle.Render("space: resume  x: cancel")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		label,
		count,
		bar,
		"",
		renderCycles(st, info.Config.Cycles),
		clockLine,
		stateLine,
	)
	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

func (b breatheModel) renderIdle(w int, title string, last session.Info, hasLast bool) string {
	cfg := b.selected()

	name := highlightStyle.Bold(true).Render(cfg.Name)
	if b.choice == 0 {
		name += mutedStyle.Render("  (saved)")
	}
	shape := mutedStyle.Render(fmt.Sprintf("%ds × %d phases × %d cycles = %s",
		int(cfg.Length.Seconds()), len(cfg.Phases), cfg.Cycles, formatClock(cfg.Total())))

	var phases []string
	for _, p := range cfg.Phases {
		phases = append(phases, lipgloss.NewStyle().Foreground(phaseColor(p)).Render(p))
	}

	var outcome string
	if hasLast {
		switch last.Status {
		case session.StatusCompleted:
			outcome = successStyle.Render("Session complete. Breathe habit marked for today.")
		case session.StatusCancelled:
			outcome = mutedStyle.Render(fmt.Sprintf("Last session cancelled at %s", formatClock(last.Elapsed)))
		}
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		title,
		"",
		name,
		strings.Join(phases, mutedStyle.Render(" · ")),
		shape,
		"",
		outcome,
	)
	controls := mutedStyle.Render("←/→: choose  s: start")
	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Center, content, "", controls),
	)
}

// renderCycles draws one dot per cycle, or a counter when there are too
// many to fit.
func renderCycles(st phase.State, cycles int) string {
	counter := mutedStyle.Render(fmt.Sprintf("  %d/%d", st.Cycle+1, cycles))
	if cycles > 20 {
		return counter
	}
	var parts []string
	for i := 0; i < cycles; i++ {
		switch {
		case i < st.Cycle || st.Done:
			parts = append(parts, successStyle.Render("●"))
		case i == st.Cycle:
			parts = append(parts, highlightStyle.Render("◐"))
		default:
			parts = append(parts, mutedStyle.Render("○"))
		}
	}
	return strings.Join(parts, " ") + counter
}

func status(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorStatus(text string) tea.Cmd {
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}
