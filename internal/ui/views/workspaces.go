package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

// WorkspaceListView lets the user pick or create a workspace
type WorkspaceListView struct {
	ctrl   *session.Controller
	styles *styles.Styles
	keys   keys.KeyMap

	width  int
	height int

	cursor   int
	loaded   bool
	creating bool
	newName  textinput.Model
}

// NewWorkspaceListView creates the workspace picker
func NewWorkspaceListView(ctrl *session.Controller) *WorkspaceListView {
	newName := textinput.New()
	newName.Placeholder = "Workspace name"
	newName.CharLimit = 100

	return &WorkspaceListView{
		ctrl:    ctrl,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		newName: newName,
	}
}

type workspacesLoadedMsg struct{ err error }

type workspaceCreatedMsg struct {
	workspace *models.Workspace
	err       error
}

// Init loads the workspace list
func (v *WorkspaceListView) Init() tea.Cmd {
	return call(func(ctx context.Context) tea.Msg {
		_, err := v.ctrl.LoadWorkspaces(ctx)
		return workspacesLoadedMsg{err: err}
	})
}

func (v *WorkspaceListView) workspaces() []models.Workspace {
	return v.ctrl.Workspaces.Get().Workspaces
}

// Update handles messages
func (v *WorkspaceListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case workspacesLoadedMsg:
		v.loaded = true
		v.cursor = clamp(v.cursor, 0, max(0, len(v.workspaces())-1))
		return v, notifyErr(msg.err)

	case workspaceCreatedMsg:
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		v.creating = false
		return v, tea.Batch(
			notify(fmt.Sprintf("Created workspace %q", msg.workspace.Name)),
			navigate(SelectedWorkspace{Workspace: *msg.workspace}),
		)

	case tea.KeyMsg:
		if v.creating {
			return v.updateCreating(msg)
		}

		list := v.workspaces()
		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			if v.ctrl.Workspaces.Get().Current != nil {
				return v, navigate(BackToProjects{})
			}
		case key.Matches(msg, v.keys.Up):
			if v.cursor > 0 {
				v.cursor--
			}
		case key.Matches(msg, v.keys.Down):
			if v.cursor < len(list)-1 {
				v.cursor++
			}
		case key.Matches(msg, v.keys.New):
			v.creating = true
			v.newName.Reset()
			v.newName.Focus()
			return v, textinput.Blink
		case key.Matches(msg, v.keys.Enter):
			if v.cursor < len(list) {
				return v, navigate(SelectedWorkspace{Workspace: list[v.cursor]})
			}
		}
	}
	return v, nil
}

func (v *WorkspaceListView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		v.newName.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Save):
		name := strings.TrimSpace(v.newName.Value())
		if name == "" {
			return v, nil
		}
		return v, call(func(ctx context.Context) tea.Msg {
			w, err := v.ctrl.CreateWorkspace(ctx, name)
			return workspaceCreatedMsg{workspace: w, err: err}
		})
	}

	var cmd tea.Cmd
	v.newName, cmd = v.newName.Update(msg)
	return v, cmd
}

// View renders the picker
func (v *WorkspaceListView) View() string {
	s := v.styles

	if v.creating {
		inputWidth := clamp(styles.ContentWidth(v.width)-6, 20, 50)
		form := lipgloss.JoinVertical(lipgloss.Left,
			s.Title.Render("New Workspace"),
			"",
			"Name:",
			s.InputFocused.Width(inputWidth).Render(v.newName.View()),
			"",
			s.TitleMuted.Render("↵: create • Esc: cancel"),
		)
		return centered(form, v.width, v.height)
	}

	if !v.loaded {
		return s.TitleMuted.Render("Loading...")
	}

	list := v.workspaces()
	if len(list) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Center,
			s.Title.Render("No Workspaces"),
			"",
			s.TitleMuted.Render("Press 'n' to create your first workspace"),
			"",
			s.ButtonPrimary.Render(" New Workspace "),
		)
		return centered(content, v.width, v.height)
	}

	current := v.ctrl.Workspaces.Get().Current
	width := max(styles.ContentWidth(v.width)-4, 20)
	rows := []string{s.Title.Render("Workspaces"), ""}
	for i, w := range list {
		label := w.Name
		if w.Role != nil {
			label += s.TitleMuted.Render("  " + string(*w.Role))
		}
		if current != nil && current.ID == w.ID {
			label = "● " + label
		} else {
			label = "  " + label
		}

		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}
		rows = append(rows, style.Width(width).Render(label))
	}

	help := s.Help.Render(fmt.Sprintf("%s open • %s new • %s back • %s quit",
		s.HelpKey.Render("↵"),
		s.HelpKey.Render("n"),
		s.HelpKey.Render("esc"),
		s.HelpKey.Render("q"),
	))
	content := lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
	return styles.CenterView(content+"\n"+help, v.width, v.height)
}
