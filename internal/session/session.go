// Package session is what the views talk to. A Controller runs gateway calls
// on behalf of the signed-in user and keeps the stores in step with the
// results.
package session

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/taskboard/internal/auth"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/logging"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/store"
)

var (
	ErrNoWorkspace    = errors.New("no workspace selected")
	ErrNameRequired   = errors.New("name is required")
	ErrEmptyComment   = errors.New("comment is empty")
	ErrEmailRequired  = errors.New("email is required")
	ErrUnknownProject = errors.New("project is not loaded")
)

// Backend is the part of the gateway the controller uses
type Backend interface {
	Identity() *auth.Identity

	CurrentProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.UserProfile, error)

	ListWorkspaces(ctx context.Context) ([]models.Workspace, error)
	CreateWorkspace(ctx context.Context, name string) (*models.Workspace, error)

	ListProjects(ctx context.Context, workspaceID string) ([]models.Project, error)
	CreateProject(ctx context.Context, workspaceID string, in db.ProjectInput) (*models.Project, error)
	UpdateProject(ctx context.Context, projectID string, patch db.ProjectPatch) error
	DeleteProject(ctx context.Context, projectID string) error

	ListWorkspaceTasks(ctx context.Context, workspaceID string) ([]models.Task, error)
	ListUserTasks(ctx context.Context, workspaceID, userID string) ([]models.Task, error)
	ListProjectTasks(ctx context.Context, projectID string) ([]models.Task, error)
	ListCompletedTasks(ctx context.Context, workspaceID string) ([]models.Task, error)
	CreateTask(ctx context.Context, workspaceID string, in db.TaskInput) (*models.Task, error)
	UpdateTask(ctx context.Context, taskID string, patch db.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
	ListSubtasks(ctx context.Context, parentID string) ([]models.Task, error)
	CreateSubtask(ctx context.Context, parentID, name string, assigneeID *string) (*models.Task, error)

	ListMembers(ctx context.Context, workspaceID string) ([]models.WorkspaceMember, error)
	AddMemberByEmail(ctx context.Context, workspaceID, email string) error
	RemoveMember(ctx context.Context, workspaceID, userID string) error
	UpdateMemberRole(ctx context.Context, workspaceID, userID string, role models.Role) error

	ListTaskComments(ctx context.Context, taskID string) ([]models.Comment, error)
	AddComment(ctx context.Context, taskID, content string) (*models.Comment, error)
	RecentActivity(ctx context.Context, workspaceID string) ([]models.Comment, error)
}

// Settings remembers small bits of client state between runs
type Settings interface {
	LastProject() (string, error)
	SetLastProject(id string) error
}

// Stores groups the state containers a controller keeps current
type Stores struct {
	User       *store.UserStore
	Workspaces *store.WorkspaceStore
	Projects   *store.ProjectStore
}

// NewStores returns empty stores
func NewStores() Stores {
	return Stores{
		User:       store.NewUserStore(),
		Workspaces: store.NewWorkspaceStore(),
		Projects:   store.NewProjectStore(),
	}
}

// Controller runs user actions against the backend
type Controller struct {
	backend  Backend
	settings Settings
	now      func() time.Time

	Stores

	projectEdits *store.Pending[models.Project]
	taskEdits    *store.Pending[models.Task]
}

// Option configures a Controller
type Option func(*Controller)

// WithClock sets the clock used for dashboards
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithSettings lets the controller remember the last opened project
func WithSettings(s Settings) Option {
	return func(c *Controller) { c.settings = s }
}

// New creates a controller over backend and stores
func New(backend Backend, stores Stores, opts ...Option) *Controller {
	c := &Controller{
		backend:      backend,
		now:          time.Now,
		Stores:       stores,
		projectEdits: store.NewPending[models.Project](),
		taskEdits:    store.NewPending[models.Task](),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// UserID is the signed-in user's id, or ""
func (c *Controller) UserID() string {
	if id := c.backend.Identity(); id != nil {
		return id.UserID
	}
	return ""
}

// CurrentWorkspace returns the selected workspace
func (c *Controller) CurrentWorkspace() (models.Workspace, error) {
	cur := c.Workspaces.Get().Current
	if cur == nil {
		return models.Workspace{}, ErrNoWorkspace
	}
	return *cur, nil
}

// fail logs a failed action and hands the error back to the view
func (c *Controller) fail(op string, err error, fields logrus.Fields) error {
	entry := logging.Logger.WithError(err).WithField("action", op)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Warn("action failed")
	return err
}

// LoadProfile fetches the signed-in user's profile, creating it on first use
func (c *Controller) LoadProfile(ctx context.Context) (*models.UserProfile, error) {
	p, err := c.backend.CurrentProfile(ctx)
	if err != nil {
		return nil, c.fail("load profile", err, nil)
	}
	c.User.Update(store.SetUser(p))
	return p, nil
}

// UpdateProfile saves a self-edit and patches the user store
func (c *Controller) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.UserProfile, error) {
	p, err := c.backend.UpdateProfile(ctx, patch)
	if err != nil {
		return nil, c.fail("update profile", err, nil)
	}
	c.User.Update(store.PatchUser(patch))
	return p, nil
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	return name, nil
}
