package views

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/store"
	"github.com/tgienger/taskboard/internal/ui/keys"
	"github.com/tgienger/taskboard/internal/ui/styles"
)

type projectItem struct {
	project models.Project
}

func (i projectItem) Title() string       { return i.project.Name }
func (i projectItem) Description() string { return deref(i.project.Description) }
func (i projectItem) FilterValue() string { return i.project.Name }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	dot := lipgloss.NewStyle().Foreground(styles.ProjectColor(p.project.Color)).Render("●")
	title := titleStyle.Render(dot + " " + p.Title())
	desc := descStyle.Render("  " + p.Description())

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// form fields of the project dialog
const (
	fieldName = iota
	fieldDesc
	fieldColor
	fieldSubmit
	fieldCount
)

// ProjectListView lists the current workspace's projects. The create/edit
// dialog follows the project store's dialog state.
type ProjectListView struct {
	ctrl     *session.Controller
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool

	confirmingDelete bool
	deleteTarget     models.Project

	// dialog form
	newName  textinput.Model
	newDesc  textinput.Model
	colorIdx int
	focusIdx int

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewProjectListView creates the project list
func NewProjectListView(ctrl *session.Controller) *ProjectListView {
	s := styles.NewStyles()

	newName := textinput.New()
	newName.Placeholder = "Project name"
	newName.CharLimit = 100

	newDesc := textinput.New()
	newDesc.Placeholder = "Description (optional)"
	newDesc.CharLimit = 200

	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		ctrl:     ctrl,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
		newName:  newName,
		newDesc:  newDesc,
	}
}

type projectsLoadedMsg struct{ err error }

type projectSavedMsg struct {
	created *models.Project
	err     error
}

type projectDeletedMsg struct {
	name string
	err  error
}

// Init loads the current workspace's projects
func (v *ProjectListView) Init() tea.Cmd {
	v.refresh()
	return call(func(ctx context.Context) tea.Msg {
		_, err := v.ctrl.LoadProjects(ctx)
		return projectsLoadedMsg{err: err}
	})
}

// refresh rebuilds the list from the project store
func (v *ProjectListView) refresh() {
	state := v.ctrl.Projects.Get()
	items := make([]list.Item, len(state.Projects))
	for i, p := range state.Projects {
		items[i] = projectItem{project: p}
	}
	v.list.SetItems(items)

	title := "Projects"
	if w := v.ctrl.Workspaces.Get().Current; w != nil {
		title = w.Name + " / Projects"
	}
	v.list.Title = title
}

func (v *ProjectListView) dialog() store.DialogMode {
	return v.ctrl.Projects.Get().Dialog
}

// Update handles messages
func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		// Use content width (capped at MaxWidth) for internal layout
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case ProjectsChanged, WorkspacesChanged:
		v.refresh()
		return v, nil

	case projectsLoadedMsg:
		v.loaded = true
		v.refresh()
		return v, notifyErr(msg.err)

	case projectSavedMsg:
		v.refresh()
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		if msg.created != nil {
			return v, notify(fmt.Sprintf("Created project %q", msg.created.Name))
		}
		return v, notify("Project saved")

	case projectDeletedMsg:
		v.refresh()
		if msg.err != nil {
			return v, notifyErr(msg.err)
		}
		return v, notify(fmt.Sprintf("Deleted project %q", msg.name))

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}

		if v.dialog() != store.DialogClosed {
			return v.updateDialog(msg)
		}

		// let the list own keys while the user is filtering
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, nil
		case key.Matches(msg, v.keys.New):
			v.ctrl.Projects.Update(store.OpenCreate())
			return v, v.startDialog(nil)
		case key.Matches(msg, v.keys.Edit):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.ctrl.Projects.Update(store.OpenEdit(item.project))
				return v, v.startDialog(&item.project)
			}
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				return v, navigate(SelectedProject{Project: item.project})
			}
		case key.Matches(msg, v.keys.Delete):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				v.confirmingDelete = true
				v.deleteTarget = item.project
				return v, nil
			}
		case key.Matches(msg, v.keys.Workspaces):
			return v, navigate(ShowWorkspaces{})
		case key.Matches(msg, v.keys.Insights):
			return v, navigate(ShowInsights{})
		case key.Matches(msg, v.keys.Completed):
			return v, navigate(ShowCompleted{})
		case key.Matches(msg, v.keys.Members):
			return v, navigate(ShowMembers{})
		case key.Matches(msg, v.keys.MyTasks):
			return v, navigate(ShowMyTasks{})
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

func (v *ProjectListView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		target := v.deleteTarget
		return v, call(func(ctx context.Context) tea.Msg {
			err := v.ctrl.DeleteProject(ctx, target.ID)
			return projectDeletedMsg{name: target.Name, err: err}
		})
	case "n", "N", "esc":
		v.confirmingDelete = false
		return v, nil
	}
	return v, nil
}

// startDialog fills the form from p, or clears it for a new project
func (v *ProjectListView) startDialog(p *models.Project) tea.Cmd {
	v.focusIdx = fieldName
	v.newName.Reset()
	v.newDesc.Reset()
	v.colorIdx = 0
	if p != nil {
		v.newName.SetValue(p.Name)
		v.newDesc.SetValue(deref(p.Description))
		for i, c := range models.Colors {
			if c == p.Color {
				v.colorIdx = i
			}
		}
	}
	v.updateFocus()
	return textinput.Blink
}

func (v *ProjectListView) updateDialog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.ctrl.Projects.Update(store.CloseDialog())
		return v, nil

	case key.Matches(msg, v.keys.Save):
		return v, v.submit()

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + fieldCount - 1) % fieldCount
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % fieldCount
		v.updateFocus()
		return v, nil

	case v.focusIdx == fieldColor && key.Matches(msg, v.keys.Left):
		v.colorIdx = (v.colorIdx + len(models.Colors) - 1) % len(models.Colors)
		return v, nil

	case v.focusIdx == fieldColor && key.Matches(msg, v.keys.Right):
		v.colorIdx = (v.colorIdx + 1) % len(models.Colors)
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx == fieldSubmit {
			return v, v.submit()
		}
		v.focusIdx++
		v.updateFocus()
		return v, nil
	}

	var cmd tea.Cmd
	switch v.focusIdx {
	case fieldName:
		v.newName, cmd = v.newName.Update(msg)
	case fieldDesc:
		v.newDesc, cmd = v.newDesc.Update(msg)
	}
	return v, cmd
}

// submit creates or edits depending on the dialog mode
func (v *ProjectListView) submit() tea.Cmd {
	name := strings.TrimSpace(v.newName.Value())
	if name == "" {
		return nil
	}
	desc := strings.TrimSpace(v.newDesc.Value())
	color := models.Colors[v.colorIdx]

	state := v.ctrl.Projects.Get()
	if state.Dialog == store.DialogEdit && state.Editing != nil {
		id := state.Editing.ID
		patch := db.ProjectPatch{Name: &name, Description: &desc, Color: &color}
		return call(func(ctx context.Context) tea.Msg {
			return projectSavedMsg{err: v.ctrl.EditProject(ctx, id, patch)}
		})
	}

	in := db.ProjectInput{Name: name, Color: color}
	if desc != "" {
		in.Description = &desc
	}
	return call(func(ctx context.Context) tea.Msg {
		p, err := v.ctrl.CreateProject(ctx, in)
		return projectSavedMsg{created: p, err: err}
	})
}

func (v *ProjectListView) updateFocus() {
	v.newName.Blur()
	v.newDesc.Blur()
	switch v.focusIdx {
	case fieldName:
		v.newName.Focus()
	case fieldDesc:
		v.newDesc.Focus()
	}
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirmingDelete {
		return v.renderDeleteConfirm()
	}

	if v.dialog() != store.DialogClosed {
		return v.renderDialog()
	}

	if !v.loaded && len(v.list.Items()) == 0 {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render("Press 'n' to create your first project"),
		"",
		s.ButtonPrimary.Render(" New Project "),
	)
	return centered(content, v.width, v.height)
}

func (v *ProjectListView) renderDialog() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	formTitle, button := "New Project", " Create "
	if v.dialog() == store.DialogEdit {
		formTitle, button = "Edit Project", " Save "
	}

	nameStyle := s.Input
	descStyle := s.Input
	colorStyle := s.Input
	btnStyle := s.Button

	switch v.focusIdx {
	case fieldName:
		nameStyle = s.InputFocused
	case fieldDesc:
		descStyle = s.InputFocused
	case fieldColor:
		colorStyle = s.InputFocused
	case fieldSubmit:
		btnStyle = s.ButtonFocused
	}

	// Dynamic input width based on content width
	inputWidth := clamp(contentWidth-6, 20, 50)

	var swatches []string
	for i, c := range models.Colors {
		mark := "○"
		if i == v.colorIdx {
			mark = "●"
		}
		swatches = append(swatches, lipgloss.NewStyle().Foreground(styles.ProjectColor(c)).Render(mark))
	}
	colorLine := strings.Join(swatches, " ") + "  " + string(models.Colors[v.colorIdx])

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render(formTitle),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.newName.View()),
		"",
		"Description:",
		descStyle.Width(inputWidth).Render(v.newDesc.View()),
		"",
		"Color:",
		colorStyle.Width(inputWidth).Render(colorLine),
		"",
		btnStyle.Render(button),
		"",
		s.TitleMuted.Render("Tab: next • ←→: color • Ctrl+S: save • Esc: cancel"),
	)
	return centered(form, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s open • %s new • %s edit • %s del • %s insights • %s done • %s members • %s mine • %s workspaces • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("i"),
			v.styles.HelpKey.Render("v"),
			v.styles.HelpKey.Render("m"),
			v.styles.HelpKey.Render("u"),
			v.styles.HelpKey.Render("w"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open project",
		s.HelpKey.Render("n") + "      new project",
		s.HelpKey.Render("e") + "      edit project",
		s.HelpKey.Render("d") + "      delete project",
		s.HelpKey.Render("i") + "      insights",
		s.HelpKey.Render("v") + "      completed tasks",
		s.HelpKey.Render("m") + "      members",
		s.HelpKey.Render("u") + "      my tasks",
		s.HelpKey.Render("w") + "      switch workspace",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)
	return centered(s.Popup.Render(content), v.width, v.height)
}

func (v *ProjectListView) renderDeleteConfirm() string {
	s := v.styles

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete Project?"),
		"",
		s.TitleMuted.Render(fmt.Sprintf("%q and all of its tasks will be deleted.", v.deleteTarget.Name)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	return centered(content, v.width, v.height)
}
