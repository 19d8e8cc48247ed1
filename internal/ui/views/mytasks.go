package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/analytics"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

// MyTasksView lists the open tasks assigned to the signed-in user
type MyTasksView struct {
	ctrl   *session.Controller
	styles *styles.Styles
	keys   keys.KeyMap
	help   help.Model

	width  int
	height int

	loaded   bool
	sections analytics.Sections
	cursor   int
}

// NewMyTasksView creates the my tasks view
func NewMyTasksView(ctrl *session.Controller) *MyTasksView {
	return &MyTasksView{
		ctrl:   ctrl,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		help:   help.New(),
	}
}

type myTasksLoadedMsg struct {
	sections analytics.Sections
	err      error
}

type myTaskSavedMsg struct {
	update session.TaskUpdate
	err    error
}

// Init loads the tasks
func (v *MyTasksView) Init() tea.Cmd {
	return v.load()
}

func (v *MyTasksView) load() tea.Cmd {
	return call(func(ctx context.Context) tea.Msg {
		sections, err := v.ctrl.MyTasks(ctx)
		return myTasksLoadedMsg{sections: sections, err: err}
	})
}

// flat lists the tasks in display order
func (v *MyTasksView) flat() []models.Task {
	out := append([]models.Task{}, v.sections.Overdue...)
	out = append(out, v.sections.Today...)
	return append(out, v.sections.Upcoming...)
}

// Update handles messages
func (v *MyTasksView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.help.Width = styles.ContentWidth(msg.Width)

	case myTasksLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		v.sections = msg.sections
		v.cursor = clamp(v.cursor, 0, max(0, len(v.flat())-1))

	case myTaskSavedMsg:
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		if msg.update.Apply {
			return v, v.load()
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(BackToProjects{})
		case key.Matches(msg, v.keys.Up):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, v.keys.Down):
			if v.cursor < len(v.flat())-1 {
				v.cursor++
			}
		case key.Matches(msg, v.keys.Toggle):
			tasks := v.flat()
			if v.cursor < len(tasks) {
				t := tasks[v.cursor]
				return v, call(func(ctx context.Context) tea.Msg {
					res, err := v.ctrl.ToggleComplete(ctx, t)
					return myTaskSavedMsg{update: res, err: err}
				})
			}
		case key.Matches(msg, v.keys.Refresh):
			return v, v.load()
		}
	}
	return v, nil
}

// View renders the view
func (v *MyTasksView) View() string {
	s := v.styles
	lines := []string{s.Title.Render("My Tasks"), ""}

	if !v.loaded {
		lines = append(lines, s.TitleMuted.Render("Loading..."))
	} else {
		idx := 0
		section := func(title string, tasks []models.Task, overdue bool) {
			heading := fmt.Sprintf("%s (%d)", title, len(tasks))
			if overdue && len(tasks) > 0 {
				heading = s.TaskOverdue.Render(heading)
			} else {
				heading = s.HelpKey.Render(heading)
			}
			lines = append(lines, heading)
			if len(tasks) == 0 {
				lines = append(lines, s.TitleMuted.Render("  nothing here"))
			}
			for _, t := range tasks {
				lines = append(lines, v.renderRow(t, idx == v.cursor))
				idx++
			}
			lines = append(lines, "")
		}
		section("Overdue", v.sections.Overdue, true)
		section("Today", v.sections.Today, false)
		section("Upcoming", v.sections.Upcoming, false)
	}

	lines = append(lines, v.help.View(bindings{v.keys.Toggle, v.keys.Up, v.keys.Down, v.keys.Refresh, v.keys.Back}))
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, lines...), v.width, v.height)
}

func (v *MyTasksView) renderRow(t models.Task, selected bool) string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	row := "[ ] " + t.Name + "  " + s.TaskPriority.Foreground(styles.PriorityColor(t.Priority)).Render(t.Priority.Label())
	if t.DueDate != nil {
		row += s.TitleMuted.Render("  due " + formatDue(t.DueDate))
	}
	if t.ProjectName != nil {
		row += s.TitleMuted.Render("  " + *t.ProjectName)
	}
	style := s.ListItem
	if selected {
		style = s.ListSelected
	}
	return style.Width(width).Render(row)
}
