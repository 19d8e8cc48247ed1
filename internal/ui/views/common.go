package views

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

// requestTimeout bounds every backend call issued from a view
const requestTimeout = 15 * time.Second

// Navigation messages handled by the app
type (
	SelectedWorkspace struct{ Workspace models.Workspace }
	SelectedProject   struct{ Project models.Project }
	BackToProjects    struct{}
	ShowWorkspaces    struct{}
	ShowInsights      struct{}
	ShowCompleted     struct{}
	ShowMembers       struct{}
	ShowMyTasks       struct{}
)

// Store change notifications, sent by the store subscriptions
type (
	WorkspacesChanged struct{}
	ProjectsChanged   struct{}
	UserChanged       struct{}
)

// Notify asks the app to show a transient notification. A non-nil Err is
// shown as a failure.
type Notify struct {
	Text string
	Err  error
}

func notify(text string) tea.Cmd {
	return func() tea.Msg { return Notify{Text: text} }
}

func notifyErr(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return func() tea.Msg { return Notify{Err: err} }
}

func navigate(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// call runs fn as a command with a bounded context
func call(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return fn(ctx)
	}
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// centered places content in the middle of the content area
func centered(content string, width, height int) string {
	placed := lipgloss.Place(styles.ContentWidth(width), height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(placed, width, height)
}

func formatDue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Local().Format("Jan 2")
}

// bindings adapts a flat list of key bindings to help.KeyMap
type bindings []key.Binding

func (b bindings) ShortHelp() []key.Binding  { return b }
func (b bindings) FullHelp() [][]key.Binding { return [][]key.Binding{b} }
