package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

// MembersView manages the members of the current workspace
type MembersView struct {
	ctrl   *session.Controller
	styles *styles.Styles
	keys   keys.KeyMap
	help   help.Model

	width  int
	height int

	loaded  bool
	members []models.WorkspaceMember
	cursor  int

	adding     bool
	emailInput textinput.Model

	confirmingRemove bool
}

// NewMembersView creates the members view
func NewMembersView(ctrl *session.Controller) *MembersView {
	email := textinput.New()
	email.Placeholder = "name@example.com"
	email.CharLimit = 254

	return &MembersView{
		ctrl:       ctrl,
		styles:     styles.NewStyles(),
		keys:       keys.DefaultKeyMap(),
		help:       help.New(),
		emailInput: email,
	}
}

type membersLoadedMsg struct {
	members []models.WorkspaceMember
	err     error
}

// memberChangedMsg reports a role change or removal
type memberChangedMsg struct {
	text string
	err  error
}

// Init loads the members
func (v *MembersView) Init() tea.Cmd {
	return v.load()
}

func (v *MembersView) load() tea.Cmd {
	return call(func(ctx context.Context) tea.Msg {
		members, err := v.ctrl.Members(ctx)
		return membersLoadedMsg{members: members, err: err}
	})
}

func (v *MembersView) selected() (models.WorkspaceMember, bool) {
	if v.cursor < 0 || v.cursor >= len(v.members) {
		return models.WorkspaceMember{}, false
	}
	return v.members[v.cursor], true
}

// Update handles messages
func (v *MembersView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.help.Width = styles.ContentWidth(msg.Width)

	case membersLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		v.members = msg.members
		v.cursor = clamp(v.cursor, 0, max(0, len(v.members)-1))

	case memberChangedMsg:
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		return v, tea.Batch(notify(msg.text), v.load())

	case tea.KeyMsg:
		if v.adding {
			return v.updateAdding(msg)
		}
		if v.confirmingRemove {
			return v.updateConfirmRemove(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *MembersView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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
		if v.cursor < len(v.members)-1 {
			v.cursor++
		}
	case key.Matches(msg, v.keys.New), key.Matches(msg, v.keys.Subtask):
		v.adding = true
		v.emailInput.Reset()
		v.emailInput.Focus()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Delete):
		if m, ok := v.selected(); ok && m.Role != models.RoleOwner {
			v.confirmingRemove = true
		}
	case key.Matches(msg, v.keys.Role):
		m, ok := v.selected()
		if !ok || m.Role == models.RoleOwner {
			return v, nil
		}
		next := models.RoleAdmin
		if m.Role == models.RoleAdmin {
			next = models.RoleMember
		}
		return v, call(func(ctx context.Context) tea.Msg {
			err := v.ctrl.SetMemberRole(ctx, m.User.ID, next)
			return memberChangedMsg{text: fmt.Sprintf("%s is now %s", m.User.DisplayName(), next), err: err}
		})
	case key.Matches(msg, v.keys.Refresh):
		return v, v.load()
	}
	return v, nil
}

func (v *MembersView) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.adding = false
		v.emailInput.Blur()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		v.adding = false
		v.emailInput.Blur()
		email := strings.TrimSpace(v.emailInput.Value())
		if email == "" {
			return v, nil
		}
		return v, call(func(ctx context.Context) tea.Msg {
			members, err := v.ctrl.AddMember(ctx, email)
			if err != nil {
				return memberChangedMsg{err: err}
			}
			return membersLoadedMsg{members: members}
		})
	}
	var cmd tea.Cmd
	v.emailInput, cmd = v.emailInput.Update(msg)
	return v, cmd
}

func (v *MembersView) updateConfirmRemove(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingRemove = false
		m, ok := v.selected()
		if !ok {
			return v, nil
		}
		return v, call(func(ctx context.Context) tea.Msg {
			err := v.ctrl.RemoveMember(ctx, m.User.ID)
			return memberChangedMsg{text: "Removed " + m.User.DisplayName(), err: err}
		})
	case "n", "N", "esc":
		v.confirmingRemove = false
	}
	return v, nil
}

// View renders the view
func (v *MembersView) View() string {
	s := v.styles
	width := max(styles.ContentWidth(v.width)-4, 20)

	title := "Members"
	if w, err := v.ctrl.CurrentWorkspace(); err == nil {
		title = w.Name + " members"
	}
	lines := []string{s.Title.Render(title), ""}

	switch {
	case !v.loaded:
		lines = append(lines, s.TitleMuted.Render("Loading..."))
	case len(v.members) == 0:
		lines = append(lines, s.TitleMuted.Render("No members."))
	}
	for i, m := range v.members {
		style := s.ListItem
		if i == v.cursor {
			style = s.ListSelected
		}
		row := m.User.DisplayName() + "  " + s.TitleMuted.Render(m.User.Email) + "  " + s.HelpKey.Render(string(m.Role))
		lines = append(lines, style.Width(width).Render(row))
	}

	if v.adding {
		lines = append(lines, "", "Add member by email:",
			s.InputFocused.Width(clamp(width-4, 20, 50)).Render(v.emailInput.View()))
	}
	if v.confirmingRemove {
		if m, ok := v.selected(); ok {
			lines = append(lines, "",
				s.Title.Foreground(styles.Current.Error).Render(fmt.Sprintf("Remove %s? (y/n)", m.User.DisplayName())))
		}
	}

	lines = append(lines, "", v.help.View(bindings{
		key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "add")),
		key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "remove")),
		v.keys.Role, v.keys.Refresh, v.keys.Back,
	}))
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, lines...), v.width, v.height)
}
