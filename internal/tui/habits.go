package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/habitr/internal/habit"
)

// weekDays is how many past days the habit grid shows.
const weekDays = 7

type habitsModel struct {
	eng    *engine
	width  int
	height int

	cursor int

	formActive bool
	form       *huh.Form

	// Form field pointers (survive value copies)
	formName  *string
	formColor *string
}

func newHabitsModel(eng *engine) habitsModel {
	name, color := "", habitColors[0]
	return habitsModel{
		eng:       eng,
		formName:  &name,
		formColor: &color,
	}
}

func (h *habitsModel) setSize(w, hgt int) {
	h.width = w
	h.height = hgt
}

func (h habitsModel) list() []habit.Habit {
	if h.eng.habits == nil {
		return nil
	}
	return h.eng.habits.List()
}

func (h habitsModel) update(msg tea.Msg) (habitsModel, tea.Cmd) {
	if h.formActive && h.form != nil {
		return h.updateForm(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok || h.eng.habits == nil {
		return h, nil
	}
	habits := h.list()
	if h.cursor >= len(habits) {
		h.cursor = max(0, len(habits)-1)
	}

	switch {
	case key.Matches(km, keys.Up):
		if h.cursor > 0 {
			h.cursor--
		}
	case key.Matches(km, keys.Down):
		if h.cursor < len(habits)-1 {
			h.cursor++
		}
	case key.Matches(km, keys.Enter), key.Matches(km, keys.Pause):
		if len(habits) > 0 {
			done, err := h.eng.habits.Toggle(habits[h.cursor].ID, h.eng.clk.Now())
			if err != nil {
				return h, errorStatus(err.Error())
			}
			if done {
				return h, status(habits[h.cursor].Name + " done for today")
			}
		}
	case key.Matches(km, keys.New):
		return h.showNewHabitForm()
	case key.Matches(km, keys.Delete):
		if len(habits) > 0 {
			target := habits[h.cursor]
			if target.ID == habit.BreatheID {
				return h, errorStatus("The Breathe habit is built in")
			}
			if err := h.eng.habits.Archive(target.ID); err != nil {
				return h, errorStatus(err.Error())
			}
			return h, status("Archived " + target.Name)
		}
	}
	return h, nil
}

func (h habitsModel) showNewHabitForm() (habitsModel, tea.Cmd) {
	*h.formName = ""
	*h.formColor = habitColors[0]

	colorOptions := make([]huh.Option[string], len(habitColors))
	for i, c := range habitColors {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(c)).Render("●")
		colorOptions[i] = huh.NewOption(fmt.Sprintf("%s %s", dot, c), c)
	}

	h.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Habit").Value(h.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("name is required")
					}
					return nil
				}),
			huh.NewSelect[string]().Title("Color").Options(colorOptions...).Value(h.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	h.formActive = true
	return h, h.form.Init()
}

func (h habitsModel) updateForm(msg tea.Msg) (habitsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			h.formActive = false
			h.form = nil
			return h, nil
		}
	}

	form, cmd := h.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		h.form = f
	}

	if h.form.State == huh.StateCompleted {
		h.formActive = false
		h.form = nil
		return h.addHabit(*h.formName, *h.formColor)
	}
	return h, cmd
}

func (h habitsModel) addHabit(name, color string) (habitsModel, tea.Cmd) {
	created, err := h.eng.habits.Add(name, color)
	if err != nil {
		return h, errorStatus(fmt.Sprintf("Cannot add habit: %v", err))
	}
	h.cursor = len(h.list()) - 1
	return h, status("Added " + created.Name)
}

func (h habitsModel) view() string {
	w := h.width - 4

	if h.formActive && h.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render("New Habit"), "", h.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Habits")
	habits := h.list()
	if len(habits) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("No habits yet. Press n to create one."),
		)
		return panelStyle.Width(w).Render(content)
	}

	today := startOfDay(h.eng.clk.Now())

	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")

	var days []string
	for i := weekDays - 1; i >= 0; i-- {
		days = append(days, today.AddDate(0, 0, -i).Format("Mon")[:2])
	}
	rows = append(rows, mutedStyle.Render(fmt.Sprintf("    %-22s %s  %s", "", strings.Join(days, " "), "streak")))

	for i, hb := range habits {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(hb.Color)).Render("●")
		cursor := "  "
		style := normalItemStyle
		if i == h.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		name := style.Render(fmt.Sprintf("%s%s %-22s", cursor, dot, truncate(hb.Name, 22)))
		rows = append(rows, fmt.Sprintf("%s %s  %s", name, h.renderWeek(hb.ID, today), h.renderStreak(hb.ID, today)))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: toggle today  n: new  d: archive"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (h habitsModel) renderWeek(id string, today time.Time) string {
	var cells []string
	for i := weekDays - 1; i >= 0; i-- {
		if h.eng.habits.Done(id, today.AddDate(0, 0, -i)) {
			cells = append(cells, successStyle.Render("■ "))
		} else {
			cells = append(cells, mutedStyle.Render("· "))
		}
	}
	return strings.Join(cells, " ")
}

func (h habitsModel) renderStreak(id string, today time.Time) string {
	n := h.eng.habits.Streak(id, today)
	if n == 0 {
		return mutedStyle.Render("-")
	}
	return highlightStyle.Render(fmt.Sprintf("%dd", n))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
