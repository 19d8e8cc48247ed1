package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskboard/internal/analytics"
	"github.com/tgienger/taskboard/internal/auth"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/models"
	"github.com/tgienger/taskboard/internal/store"
)

var (
	ada   = &auth.Identity{UserID: "u-ada", Email: "ada@example.com", FullName: "Ada Lovelace"}
	grace = &auth.Identity{UserID: "u-grace", Email: "grace@example.com"}
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type memSettings struct{ last string }

func (m *memSettings) LastProject() (string, error) { return m.last, nil }

func (m *memSettings) SetLastProject(id string) error {
	m.last = id
	return nil
}

type fixture struct {
	ctx      context.Context
	gw       *db.DB
	clock    *clock
	settings *memSettings
	c        *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := &clock{t: time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)}
	gw, err := db.Open("sqlite3", ":memory:?_foreign_keys=on", ada, db.Options{Now: clk.now})
	require.NoError(t, err)
	t.Cleanup(func() { gw.Close() })

	settings := &memSettings{}
	f := &fixture{
		ctx:      context.Background(),
		gw:       gw,
		clock:    clk,
		settings: settings,
		c:        New(gw, NewStores(), WithClock(clk.now), WithSettings(settings)),
	}
	_, err = f.c.LoadProfile(f.ctx)
	require.NoError(t, err)
	return f
}

// withWorkspace creates and selects a workspace
func (f *fixture) withWorkspace(t *testing.T, name string) models.Workspace {
	t.Helper()
	w, err := f.c.CreateWorkspace(f.ctx, name)
	require.NoError(t, err)
	return *w
}

func (f *fixture) withProject(t *testing.T, name string) models.Project {
	t.Helper()
	p, err := f.c.CreateProject(f.ctx, db.ProjectInput{Name: name})
	require.NoError(t, err)
	return *p
}

func TestLoadProfile(t *testing.T) {
	f := newFixture(t)
	p := f.c.User.Get().Profile
	require.NotNil(t, p)
	assert.Equal(t, "ada@example.com", p.Email)

	title := "Analyst"
	_, err := f.c.UpdateProfile(f.ctx, models.ProfilePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Analyst", *f.c.User.Get().Profile.Title)
	assert.Equal(t, "Ada Lovelace", *f.c.User.Get().Profile.FullName)
}

func TestWorkspaces(t *testing.T) {
	f := newFixture(t)

	list, err := f.c.LoadWorkspaces(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = f.c.CurrentWorkspace()
	assert.ErrorIs(t, err, ErrNoWorkspace)

	_, err = f.c.CreateWorkspace(f.ctx, "   ")
	assert.ErrorIs(t, err, ErrNameRequired)

	acme := f.withWorkspace(t, "  Acme ")
	assert.Equal(t, "Acme", acme.Name)
	cur, err := f.c.CurrentWorkspace()
	require.NoError(t, err)
	assert.Equal(t, acme.ID, cur.ID)

	other := f.withWorkspace(t, "Other")
	list, err = f.c.LoadWorkspaces(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	cur, _ = f.c.CurrentWorkspace()
	assert.Equal(t, other.ID, cur.ID, "reloading keeps the selection")
}

func TestSelectWorkspaceClearsProjects(t *testing.T) {
	f := newFixture(t)
	first := f.withWorkspace(t, "First")
	f.withProject(t, "Roadmap")
	second := f.withWorkspace(t, "Second")

	_, err := f.c.SelectWorkspace(f.ctx, first)
	require.NoError(t, err)
	assert.Len(t, f.c.Projects.Get().Projects, 1)

	projects, err := f.c.SelectWorkspace(f.ctx, second)
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Empty(t, f.c.Projects.Get().Projects)
	assert.Equal(t, second.ID, f.c.Projects.Get().WorkspaceID)
}

func TestCreateProjectClosesDialog(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")
	f.c.Projects.Update(store.OpenCreate())

	_, err := f.c.CreateProject(f.ctx, db.ProjectInput{Name: ""})
	assert.ErrorIs(t, err, ErrNameRequired)
	assert.Equal(t, store.DialogCreate, f.c.Projects.Get().Dialog)

	p := f.withProject(t, "Roadmap")
	assert.Equal(t, store.DialogClosed, f.c.Projects.Get().Dialog)
	assert.Equal(t, p.ID, f.c.Projects.Get().Projects[0].ID)
}

func TestEditProject(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")
	p := f.withProject(t, "Roadmap")
	f.c.Projects.Update(store.OpenEdit(p))

	name := "Plan"
	color := models.ColorRed
	require.NoError(t, f.c.EditProject(f.ctx, p.ID, db.ProjectPatch{Name: &name, Color: &color}))
	got, _, _ := f.c.Projects.Get().Find(p.ID)
	assert.Equal(t, "Plan", got.Name)
	assert.Equal(t, models.ColorRed, got.Color)
	assert.Equal(t, store.DialogClosed, f.c.Projects.Get().Dialog)

	list, err := f.c.LoadProjects(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, "Plan", list[0].Name)

	assert.ErrorIs(t, f.c.EditProject(f.ctx, "missing", db.ProjectPatch{Name: &name}), ErrUnknownProject)
}

func TestEditProjectRevertsOnFailure(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")
	p := f.withProject(t, "Roadmap")

	// deleted elsewhere; the local copy is stale
	require.NoError(t, f.gw.DeleteProject(f.ctx, p.ID))

	name := "Plan"
	err := f.c.EditProject(f.ctx, p.ID, db.ProjectPatch{Name: &name})
	assert.ErrorIs(t, err, db.ErrNotFound)
	got, _, ok := f.c.Projects.Get().Find(p.ID)
	require.True(t, ok)
	assert.Equal(t, "Roadmap", got.Name)
}

// gatedBackend holds UpdateProject calls that rename to "Slow" until
// released, then fails them with err or saves them. Renames to "Fast" fail
// with fastErr when it is set.
type gatedBackend struct {
	Backend
	entered chan struct{}
	release chan struct{}
	err     error
	fastErr error
}

func (g *gatedBackend) UpdateProject(ctx context.Context, projectID string, patch db.ProjectPatch) error {
	if patch.Name != nil {
		switch {
		case *patch.Name == "Slow":
			g.entered <- struct{}{}
			<-g.release
			if g.err != nil {
				return g.err
			}
		case *patch.Name == "Fast" && g.fastErr != nil:
			return g.fastErr
		}
	}
	return g.Backend.UpdateProject(ctx, projectID, patch)
}

func TestEditProjectLatestWins(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")
	p := f.withProject(t, "Roadmap")

	gate := &gatedBackend{
		Backend: f.gw,
		entered: make(chan struct{}),
		release: make(chan struct{}),
		err:     errors.New("connection reset"),
	}
	c := New(gate, f.c.Stores, WithClock(f.clock.now))

	slow, fast := "Slow", "Fast"
	done := make(chan error, 1)
	go func() { done <- c.EditProject(f.ctx, p.ID, db.ProjectPatch{Name: &slow}) }()
	<-gate.entered

	require.NoError(t, c.EditProject(f.ctx, p.ID, db.ProjectPatch{Name: &fast}))
	close(gate.release)
	assert.Error(t, <-done)

	// the older request failed after the newer one was saved; nothing reverts
	got, _, _ := c.Projects.Get().Find(p.ID)
	assert.Equal(t, "Fast", got.Name)
}

func TestEditProjectOlderSuccessAfterNewerFailure(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")
	p := f.withProject(t, "Roadmap")

	gate := &gatedBackend{
		Backend: f.gw,
		entered: make(chan struct{}),
		release: make(chan struct{}),
		fastErr: errors.New("connection reset"),
	}
	c := New(gate, f.c.Stores, WithClock(f.clock.now))

	slow, fast := "Slow", "Fast"
	done := make(chan error, 1)
	go func() { done <- c.EditProject(f.ctx, p.ID, db.ProjectPatch{Name: &slow}) }()
	<-gate.entered

	assert.Error(t, c.EditProject(f.ctx, p.ID, db.ProjectPatch{Name: &fast}))
	got, _, _ := c.Projects.Get().Find(p.ID)
	assert.Equal(t, "Roadmap", got.Name, "the failed edit reverts to the last saved name")

	close(gate.release)
	require.NoError(t, <-done)

	// the older edit is what the backend holds now
	got, _, _ = c.Projects.Get().Find(p.ID)
	assert.Equal(t, "Slow", got.Name)

	saved, err := f.gw.ListProjects(f.ctx, p.WorkspaceID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "Slow", saved[0].Name)
}

type failingDelete struct {
	Backend
}

func (failingDelete) DeleteProject(context.Context, string) error {
	return errors.New("connection refused")
}

func TestDeleteProject(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")
	a := f.withProject(t, "A")
	b := f.withProject(t, "B")
	f.withProject(t, "C")

	failing := New(failingDelete{f.gw}, f.c.Stores)
	assert.Error(t, failing.DeleteProject(f.ctx, b.ID))
	_, i, ok := f.c.Projects.Get().Find(b.ID)
	require.True(t, ok)
	assert.Equal(t, 1, i, "restored at its old position")

	_, err := f.c.ProjectTasks(f.ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, f.c.LastProject())

	require.NoError(t, f.c.DeleteProject(f.ctx, a.ID))
	_, _, ok = f.c.Projects.Get().Find(a.ID)
	assert.False(t, ok)
	assert.Empty(t, f.c.LastProject())

	list, err := f.c.LoadProjects(f.ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestTasksAndInsights(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")
	p := f.withProject(t, "Roadmap")

	me := ada.UserID
	yesterday := time.Date(2024, 1, 14, 9, 0, 0, 0, time.UTC)
	late, err := f.c.CreateTask(f.ctx, db.TaskInput{
		Name: "Late", ProjectID: &p.ID, Priority: models.PriorityHigh, DueDate: &yesterday, AssigneeID: &me,
	})
	require.NoError(t, err)
	shipped, err := f.c.CreateTask(f.ctx, db.TaskInput{Name: "Ship", ProjectID: &p.ID, AssigneeID: &me})
	require.NoError(t, err)

	res, err := f.c.ToggleComplete(f.ctx, *shipped)
	require.NoError(t, err)
	assert.True(t, res.Apply)
	assert.Equal(t, models.StatusCompleted, res.Task.Status)
	require.NotNil(t, res.Task.CompletedAt)

	ins, err := f.c.Insights(f.ctx)
	require.NoError(t, err)
	require.Len(t, ins.Trend, 7)
	assert.Equal(t, 1, ins.Trend[6].Everyone)
	assert.Equal(t, 1, ins.Trend[6].Mine)
	assert.Equal(t, []analytics.PriorityCount{{Priority: models.PriorityHigh, Count: 1}}, ins.Overdue)
	assert.Equal(t, 1, ins.Summary.Completed)

	groups, err := f.c.Completed(f.ctx, analytics.FilterMine)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "2024-01-15", groups[0].Date)
	assert.Equal(t, shipped.ID, groups[0].Tasks[0].ID)

	mine, err := f.c.MyTasks(f.ctx)
	require.NoError(t, err)
	require.Len(t, mine.Overdue, 1)
	assert.Equal(t, late.ID, mine.Overdue[0].ID)

	res, err = f.c.ToggleComplete(f.ctx, res.Task)
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, res.Task.Status)
	assert.Nil(t, res.Task.CompletedAt)
}

func TestUpdateTaskFailureReturnsLastSaved(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")
	task, err := f.c.CreateTask(f.ctx, db.TaskInput{Name: "Write"})
	require.NoError(t, err)

	res, err := f.c.UpdateTask(f.ctx, *task, db.TaskPatch{"estimate": 3})
	assert.Error(t, err)
	assert.True(t, res.Apply)
	assert.Equal(t, "Write", res.Task.Name)
}

func TestSubtasksAndComments(t *testing.T) {
	f := newFixture(t)
	w := f.withWorkspace(t, "Acme")
	parent, err := f.c.CreateTask(f.ctx, db.TaskInput{Name: "Write report"})
	require.NoError(t, err)

	sub, err := f.c.AddSubtask(f.ctx, *parent, "Draft outline")
	require.NoError(t, err)
	assert.Equal(t, w.ID, sub.WorkspaceID)
	assert.Equal(t, models.StatusTodo, sub.Status)

	subs, err := f.c.Subtasks(f.ctx, parent.ID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	_, err = f.c.AddComment(f.ctx, parent.ID, "  ")
	assert.ErrorIs(t, err, ErrEmptyComment)
	_, err = f.c.AddComment(f.ctx, parent.ID, "first pass done")
	require.NoError(t, err)

	comments, err := f.c.Comments(f.ctx, parent.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "Ada Lovelace", comments[0].Author.DisplayName())

	activity, err := f.c.RecentActivity(f.ctx)
	require.NoError(t, err)
	assert.Len(t, activity, 1)
}

func TestMembers(t *testing.T) {
	f := newFixture(t)
	f.withWorkspace(t, "Acme")

	_, err := db.New(f.gw.DB, grace, db.Options{Now: f.clock.now}).CurrentProfile(f.ctx)
	require.NoError(t, err)

	members, err := f.c.AddMember(f.ctx, " grace@example.com ")
	require.NoError(t, err)
	assert.Len(t, members, 2)

	_, err = f.c.AddMember(f.ctx, "grace@example.com")
	assert.ErrorIs(t, err, db.ErrConflict)
	assert.Equal(t, "User is already a member", err.Error())

	_, err = f.c.AddMember(f.ctx, "nobody@example.com")
	assert.ErrorIs(t, err, db.ErrNotFound)
	assert.Equal(t, "User not found", err.Error())

	_, err = f.c.AddMember(f.ctx, "")
	assert.ErrorIs(t, err, ErrEmailRequired)

	require.NoError(t, f.c.SetMemberRole(f.ctx, grace.UserID, models.RoleAdmin))
	require.NoError(t, f.c.RemoveMember(f.ctx, grace.UserID))
	members, err = f.c.Members(f.ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)
}
