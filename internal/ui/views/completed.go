package views

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/analytics"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

// CompletedView lists recently completed tasks grouped by day
type CompletedView struct {
	ctrl   *session.Controller
	styles *styles.Styles
	keys   keys.KeyMap
	help   help.Model

	width  int
	height int

	filter  analytics.Filter
	loaded  bool
	groups  []analytics.DayGroup
	scrollY int
}

// NewCompletedView creates the completed view
func NewCompletedView(ctrl *session.Controller) *CompletedView {
	return &CompletedView{
		ctrl:   ctrl,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		help:   help.New(),
	}
}

type completedLoadedMsg struct {
	filter analytics.Filter
	groups []analytics.DayGroup
	err    error
}

// Init loads the completed tasks
func (v *CompletedView) Init() tea.Cmd {
	return v.load()
}

func (v *CompletedView) load() tea.Cmd {
	filter := v.filter
	return call(func(ctx context.Context) tea.Msg {
		groups, err := v.ctrl.Completed(ctx, filter)
		return completedLoadedMsg{filter: filter, groups: groups, err: err}
	})
}

// Update handles messages
func (v *CompletedView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.help.Width = styles.ContentWidth(msg.Width)

	case completedLoadedMsg:
		// a response for the other filter arrived after a toggle
		if msg.filter != v.filter {
			return v, nil
		}
		v.loaded = true
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		v.groups = msg.groups
		v.scrollY = 0

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(BackToProjects{})
		case key.Matches(msg, v.keys.Tab):
			if v.filter == analytics.FilterAll {
				v.filter = analytics.FilterMine
			} else {
				v.filter = analytics.FilterAll
			}
			v.loaded = false
			return v, v.load()
		case key.Matches(msg, v.keys.Refresh):
			return v, v.load()
		case key.Matches(msg, v.keys.Down):
			v.scrollY++
		case key.Matches(msg, v.keys.Up):
			if v.scrollY > 0 {
				v.scrollY--
			}
		}
	}
	return v, nil
}

// View renders the view
func (v *CompletedView) View() string {
	s := v.styles

	all, mine := s.Button, s.Button
	if v.filter == analytics.FilterMine {
		mine = s.ButtonFocused
	} else {
		all = s.ButtonFocused
	}
	header := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Completed"),
		lipgloss.JoinHorizontal(lipgloss.Center, all.Render(" All "), " ", mine.Render(" Mine ")),
		"",
	)

	var lines []string
	switch {
	case !v.loaded:
		lines = append(lines, s.TitleMuted.Render("Loading..."))
	case len(v.groups) == 0:
		lines = append(lines, s.TitleMuted.Render("No completed tasks."))
	}
	for _, g := range v.groups {
		lines = append(lines, s.HelpKey.Render(dayHeading(g.Date)))
		for _, t := range g.Tasks {
			line := "  [x] " + t.Name
			if t.ProjectName != nil {
				line += s.TitleMuted.Render("  " + *t.ProjectName)
			}
			if t.Assignee != nil {
				line += s.TitleMuted.Render("  @" + t.Assignee.DisplayName())
			}
			lines = append(lines, line)
		}
		lines = append(lines, "")
	}

	visible := max(v.height-10, 3)
	v.scrollY = clamp(v.scrollY, 0, max(0, len(lines)-visible))
	end := min(v.scrollY+visible, len(lines))

	body := lipgloss.JoinVertical(lipgloss.Left, lines[v.scrollY:end]...)
	footer := v.help.View(bindings{
		key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "all/mine")),
		v.keys.Up, v.keys.Down, v.keys.Refresh, v.keys.Back,
	})
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, header, body, "", footer), v.width, v.height)
}

// dayHeading turns a 2006-01-02 key into a readable heading
func dayHeading(date string) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return d.Format("Monday, Jan 2")
}
