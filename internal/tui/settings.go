package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/sadopc/habitr/internal/phase"
	"github.com/sadopc/habitr/internal/store"
)

type settingsModel struct {
	eng      *engine
	width    int
	height   int
	fallback phase.Config

	settings   []store.Setting
	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	preset       *string
	phases       *string
	phaseSeconds *string
	cycles       *string
	dailyGoal    *string
}

func newSettingsModel(eng *engine, fallback phase.Config) settingsModel {
	pr, ph, ps, cy, dg := "", "", "", "", ""
	return settingsModel{
		eng:          eng,
		fallback:     fallback,
		preset:       &pr,
		phases:       &ph,
		phaseSeconds: &ps,
		cycles:       &cy,
		dailyGoal:    &dg,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

type settingsDataMsg struct {
	settings []store.Setting
}

func (s settingsModel) refresh() tea.Cmd {
	st := s.eng.store
	if st == nil {
		return nil
	}
	return func() tea.Msg {
		settings, _ := st.GetAllSettings()
		return settingsDataMsg{settings: settings}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case settingsDataMsg:
		s.settings = msg.settings
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			if s.eng.store == nil {
				return s, nil
			}
			return s.showForm()
		}
	}
	return s, nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	cur := s.eng.store.BreathingConfig(s.fallback)
	*s.preset = cur.Name
	*s.phases = strings.Join(cur.Phases, ",")
	*s.phaseSeconds = strconv.Itoa(int(cur.Length / time.Second))
	*s.cycles = strconv.Itoa(cur.Cycles)
	*s.dailyGoal = s.getVal("daily_goal", "1")

	presetOptions := []huh.Option[string]{}
	known := false
	for _, name := range phase.PresetNames() {
		presetOptions = append(presetOptions, huh.NewOption(name, name))
		known = known || name == *s.preset
	}
	if !known {
		presetOptions = append(presetOptions, huh.NewOption(*s.preset, *s.preset))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Preset").Options(presetOptions...).Value(s.preset),
			huh.NewInput().Title("Phases (comma-separated)").Value(s.phases),
			huh.NewInput().Title("Seconds per phase").Value(s.phaseSeconds).Validate(positiveInt),
			huh.NewInput().Title("Cycles").Value(s.cycles).Validate(positiveInt),
		).Title("Breathing"),
		huh.NewGroup(
			huh.NewInput().Title("Daily goal (sessions)").Value(s.dailyGoal).Validate(positiveInt),
		).Title("General"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		s.form = nil
		if err := s.saveSettings(); err != nil {
			return s, errorStatus(fmt.Sprintf("Settings not saved: %v", err))
		}
		return s, tea.Batch(
			s.refresh(),
			func() tea.Msg { return settingsSavedMsg{} },
			status("Settings saved"),
		)
	}

	return s, cmd
}

// formConfig builds the breathing config from the form values.
func (s settingsModel) formConfig() (phase.Config, error) {
	secs, err := strconv.Atoi(strings.TrimSpace(*s.phaseSeconds))
	if err != nil {
		return phase.Config{}, fmt.Errorf("seconds per phase: %w", err)
	}
	cycles, err := strconv.Atoi(strings.TrimSpace(*s.cycles))
	if err != nil {
		return phase.Config{}, fmt.Errorf("cycles: %w", err)
	}
	var phases []string
	for _, p := range strings.Split(*s.phases, ",") {
		if p = strings.TrimSpace(p); p != "" {
			phases = append(phases, p)
		}
	}
	cfg := phase.Config{
		Name:   *s.preset,
		Phases: phases,
		Length: time.Duration(secs) * time.Second,
		Cycles: cycles,
	}
	if err := cfg.Validate(s.eng.runner.Tick()); err != nil {
		return phase.Config{}, err
	}
	return cfg, nil
}

func (s settingsModel) saveSettings() error {
	cfg, err := s.formConfig()
	if err != nil {
		return err
	}
	if err := s.eng.store.SaveBreathingConfig(cfg); err != nil {
		s.eng.log.Warn("save breathing settings", zap.Error(err))
		return err
	}
	return s.eng.store.SetSetting("daily_goal", strings.TrimSpace(*s.dailyGoal))
}

func (s settingsModel) getVal(k, fallback string) string {
	v, err := s.eng.store.GetSetting(k)
	if err != nil {
		return fallback
	}
	return v
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	for _, setting := range s.settings {
		label := lipgloss.NewStyle().Width(24).Render(setting.Key)
		value := highlightStyle.Render(formatSettingValue(setting.Key, setting.Value))
		rows = append(rows, fmt.Sprintf("  %s %s", label, value))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("Press enter to edit settings"))

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func formatSettingValue(k, v string) string {
	switch k {
	case "breath_seconds":
		return v + " s"
	case "breath_phases":
		return strings.ReplaceAll(v, ",", " · ")
	case "daily_goal":
		return v + " sessions"
	}
	return v
}

func positiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("must be a positive whole number")
	}
	return nil
}
