package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

const barWidth = 24

// InsightsView shows workspace statistics and recent comments
type InsightsView struct {
	ctrl   *session.Controller
	styles *styles.Styles
	keys   keys.KeyMap
	help   help.Model

	width  int
	height int

	loaded   bool
	insights session.Insights
	activity []models.Comment
}

// NewInsightsView creates the insights view
func NewInsightsView(ctrl *session.Controller) *InsightsView {
	return &InsightsView{
		ctrl:   ctrl,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		help:   help.New(),
	}
}

type insightsLoadedMsg struct {
	insights session.Insights
	activity []models.Comment
	err      error
}

// Init loads the statistics
func (v *InsightsView) Init() tea.Cmd {
	return v.load()
}

func (v *InsightsView) load() tea.Cmd {
	return call(func(ctx context.Context) tea.Msg {
		in, err := v.ctrl.Insights(ctx)
		if err != nil {
			return insightsLoadedMsg{err: err}
		}
		activity, err := v.ctrl.RecentActivity(ctx)
		return insightsLoadedMsg{insights: in, activity: activity, err: err}
	})
}

// Update handles messages
func (v *InsightsView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.help.Width = styles.ContentWidth(msg.Width)

	case insightsLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		v.insights = msg.insights
		v.activity = msg.activity

	case WorkspacesChanged:
		v.loaded = false
		return v, v.load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, navigate(BackToProjects{})
		case key.Matches(msg, v.keys.Refresh):
			return v, v.load()
		case key.Matches(msg, v.keys.Completed):
			return v, navigate(ShowCompleted{})
		}
	}
	return v, nil
}

// View renders the view
func (v *InsightsView) View() string {
	s := v.styles
	sections := []string{s.Title.Render("Insights"), ""}

	if !v.loaded {
		sections = append(sections, s.TitleMuted.Render("Loading..."))
	} else {
		sections = append(sections,
			v.renderCards(), "",
			s.Title.Render("Completed, last 7 days"), v.renderTrend(), "",
			s.Title.Render("Overdue by priority"), v.renderOverdue(), "",
			s.Title.Render("Recent activity"), v.renderActivity(),
		)
	}

	sections = append(sections, "", v.help.View(bindings{v.keys.Refresh, v.keys.Completed, v.keys.Back, v.keys.Quit}))
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, sections...), v.width, v.height)
}

func (v *InsightsView) renderCards() string {
	s := v.styles
	sum := v.insights.Summary
	card := func(label string, n int) string {
		return s.Card.Render(lipgloss.JoinVertical(lipgloss.Center, s.CardValue.Render(fmt.Sprint(n)), s.TitleMuted.Render(label)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Total", sum.Total),
		card("Done", sum.Completed),
		card("Due soon", sum.DueSoon),
		card("Overdue", sum.Overdue),
	)
}

func (v *InsightsView) renderTrend() string {
	s := v.styles
	top := 0
	for _, d := range v.insights.Trend {
		top = max(top, d.Everyone)
	}
	if top == 0 {
		return s.TitleMuted.Render("Nothing completed this week.")
	}

	cell := lipgloss.NewStyle().Width(barWidth + 1)
	var rows []string
	for _, d := range v.insights.Trend {
		mine := styles.Bar(d.Mine, top, barWidth, styles.Current.Primary)
		all := styles.Bar(d.Everyone, top, barWidth, styles.Current.Secondary)
		rows = append(rows,
			d.Label+"  "+cell.Render(mine)+fmt.Sprint(d.Mine),
			"     "+cell.Render(all)+fmt.Sprint(d.Everyone),
		)
	}
	legend := lipgloss.NewStyle().Foreground(styles.Current.Primary).Render("■ mine") + "  " +
		lipgloss.NewStyle().Foreground(styles.Current.Secondary).Render("■ everyone")
	return strings.Join(append(rows, legend), "\n")
}

func (v *InsightsView) renderOverdue() string {
	s := v.styles
	if len(v.insights.Overdue) == 0 {
		return s.TitleMuted.Render("No overdue tasks.")
	}
	top := 0
	for _, c := range v.insights.Overdue {
		top = max(top, c.Count)
	}
	var rows []string
	for _, c := range v.insights.Overdue {
		color := styles.PriorityColor(c.Priority)
		label := lipgloss.NewStyle().Foreground(color).Width(8).Render(c.Priority.Label())
		rows = append(rows, label+styles.Bar(c.Count, top, barWidth, color)+" "+fmt.Sprint(c.Count))
	}
	return strings.Join(rows, "\n")
}

func (v *InsightsView) renderActivity() string {
	s := v.styles
	if len(v.activity) == 0 {
		return s.TitleMuted.Render("No comments yet.")
	}
	width := max(styles.ContentWidth(v.width)-4, 20)
	var rows []string
	for _, c := range v.activity {
		author := "Unknown"
		if c.Author != nil {
			author = c.Author.DisplayName()
		}
		where := deref(c.TaskName)
		if c.ProjectName != nil {
			where = *c.ProjectName + " / " + where
		}
		rows = append(rows,
			s.HelpKey.Render(author)+" on "+where+" "+s.TitleMuted.Render(c.CreatedAt.Local().Format("Jan 2 15:04")),
			lipgloss.NewStyle().Width(width).Foreground(styles.Current.ForegroundDim).Render(c.Content),
		)
	}
	return strings.Join(rows, "\n")
}
