package ui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/taskboard/internal/logging"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/store"
	"github.com/tgienger/taskboard/internal/ui/styles"
	"github.com/tgienger/taskboard/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewLoading View = iota
	ViewWorkspaces
	ViewProjects
	ViewTasks
	ViewInsights
	ViewCompleted
	ViewMembers
	ViewMyTasks
)

const (
	toastDuration  = 4 * time.Second
	startupTimeout = 15 * time.Second
)

// startupMsg carries the result of the first load
type startupMsg struct {
	lastProject *models.Project
	err         error
}

type clearToastMsg struct{ id int }

type App struct {
	ctrl        *session.Controller
	styles      *styles.Styles
	currentView View

	workspaceList *views.WorkspaceListView
	projectList   *views.ProjectListView
	active        tea.Model // the view shown when not on a list

	toast    string
	toastErr bool
	toastID  int

	width  int
	height int
}

// NewApp creates the application
func NewApp(ctrl *session.Controller) *App {
	return &App{
		ctrl:          ctrl,
		styles:        styles.NewStyles(),
		currentView:   ViewLoading,
		workspaceList: views.NewWorkspaceListView(ctrl),
		projectList:   views.NewProjectListView(ctrl),
	}
}

// Init loads the profile and workspaces, then reopens the last project
func (a *App) Init() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		if _, err := a.ctrl.LoadProfile(ctx); err != nil {
			return startupMsg{err: err}
		}
		if _, err := a.ctrl.LoadWorkspaces(ctx); err != nil {
			return startupMsg{err: err}
		}
		if _, err := a.ctrl.CurrentWorkspace(); err != nil {
			return startupMsg{}
		}
		if _, err := a.ctrl.LoadProjects(ctx); err != nil {
			return startupMsg{err: err}
		}
		if id := a.ctrl.LastProject(); id != "" {
			if p, _, ok := a.ctrl.Projects.Get().Find(id); ok {
				return startupMsg{lastProject: &p}
			}
		}
		return startupMsg{}
	}
}

// resize hands the views the window size minus the toast line
func (a *App) resize() {
	inner := tea.WindowSizeMsg{Width: a.width, Height: max(a.height-1, 0)}
	// Always update list sizes since they persist
	a.workspaceList.Update(inner)
	a.projectList.Update(inner)
	if a.active != nil {
		a.active.Update(inner)
	}
}

// show switches to a full-screen view and initializes it
func (a *App) show(view View, m tea.Model) tea.Cmd {
	a.currentView = view
	a.active = m
	a.resize()
	return m.Init()
}

func (a *App) openProject(project models.Project) tea.Cmd {
	return a.show(ViewTasks, views.NewTaskListView(a.ctrl, project))
}

func (a *App) showProjects() tea.Cmd {
	a.currentView = ViewProjects
	a.active = nil
	return a.projectList.Init()
}

func (a *App) showWorkspaces() tea.Cmd {
	a.currentView = ViewWorkspaces
	a.active = nil
	return a.workspaceList.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		return a, nil

	case startupMsg:
		if msg.err != nil {
			return a, tea.Batch(a.notify(views.Notify{Err: msg.err}), a.showWorkspaces())
		}
		if _, err := a.ctrl.CurrentWorkspace(); err != nil {
			return a, a.showWorkspaces()
		}
		if msg.lastProject != nil {
			return a, a.openProject(*msg.lastProject)
		}
		return a, a.showProjects()

	case views.Notify:
		return a, a.notify(msg)

	case clearToastMsg:
		if msg.id == a.toastID {
			a.toast = ""
		}
		return a, nil

	case views.SelectedWorkspace:
		w := msg.Workspace
		a.ctrl.ForgetLastProject()
		// SelectWorkspace loads the projects itself; the list follows the store
		a.currentView = ViewProjects
		a.active = nil
		return a, func() tea.Msg {
			ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
			defer cancel()
			if _, err := a.ctrl.SelectWorkspace(ctx, w); err != nil {
				return views.Notify{Err: err}
			}
			return nil
		}

	case views.SelectedProject:
		return a, a.openProject(msg.Project)

	case views.BackToProjects:
		a.ctrl.ForgetLastProject()
		return a, a.showProjects()

	case views.ShowWorkspaces:
		return a, a.showWorkspaces()

	case views.ShowInsights:
		return a, a.show(ViewInsights, views.NewInsightsView(a.ctrl))

	case views.ShowCompleted:
		return a, a.show(ViewCompleted, views.NewCompletedView(a.ctrl))

	case views.ShowMembers:
		return a, a.show(ViewMembers, views.NewMembersView(a.ctrl))

	case views.ShowMyTasks:
		return a, a.show(ViewMyTasks, views.NewMyTasksView(a.ctrl))

	case views.ProjectsChanged, views.WorkspacesChanged:
		// the lists render straight from the stores
		_, c1 := a.workspaceList.Update(msg)
		_, c2 := a.projectList.Update(msg)
		var c3 tea.Cmd
		if a.active != nil {
			_, c3 = a.active.Update(msg)
		}
		return a, tea.Batch(c1, c2, c3)

	case views.UserChanged:
		return a, nil
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewLoading:
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case ViewWorkspaces:
		_, cmd = a.workspaceList.Update(msg)
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	default:
		if a.active != nil {
			_, cmd = a.active.Update(msg)
		}
	}

	return a, cmd
}

func (a *App) notify(n views.Notify) tea.Cmd {
	a.toastID++
	a.toastErr = n.Err != nil
	a.toast = n.Text
	if n.Err != nil {
		a.toast = n.Err.Error()
	}
	id := a.toastID
	return tea.Tick(toastDuration, func(time.Time) tea.Msg { return clearToastMsg{id: id} })
}

func (a *App) View() string {
	var body string
	switch a.currentView {
	case ViewLoading:
		body = lipgloss.Place(a.width, max(a.height-1, 0), lipgloss.Center, lipgloss.Center,
			a.styles.TitleMuted.Render("Loading..."))
	case ViewWorkspaces:
		body = a.workspaceList.View()
	case ViewProjects:
		body = a.projectList.View()
	default:
		if a.active != nil {
			body = a.active.View()
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, body, a.statusLine())
}

// statusLine shows the current toast, or who is signed in
func (a *App) statusLine() string {
	if a.toast != "" {
		if a.toastErr {
			return a.styles.ToastErr.Render(a.toast)
		}
		return a.styles.Toast.Render(a.toast)
	}
	if p := a.ctrl.User.Get().Profile; p != nil {
		name := p.Email
		if p.FullName != nil && *p.FullName != "" {
			name = *p.FullName
		}
		if w := a.ctrl.Workspaces.Get().Current; w != nil {
			name += " • " + w.Name
		}
		return a.styles.StatusBar.Render(name)
	}
	return ""
}

// Run starts the program and forwards store changes to it until it exits
func Run(ctrl *session.Controller) error {
	app := NewApp(ctrl)
	p := tea.NewProgram(app, tea.WithAltScreen())

	// Send blocks until the event loop reads, so it must never run on it
	unsubscribe := []func(){
		ctrl.Workspaces.Subscribe(func(store.WorkspaceState) { go p.Send(views.WorkspacesChanged{}) }),
		ctrl.Projects.Subscribe(func(store.ProjectState) { go p.Send(views.ProjectsChanged{}) }),
		ctrl.User.Subscribe(func(store.UserState) { go p.Send(views.UserChanged{}) }),
	}
	defer func() {
		for _, u := range unsubscribe {
			u()
		}
	}()

	_, err := p.Run()
	if err != nil {
		logging.Logger.WithError(err).Error("program exited")
	}
	return err
}
