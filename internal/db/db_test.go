package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/taskboard/internal/auth"
	"github.com/tgienger/taskboard/internal/models"
)

// tickingClock advances one second per reading so created_at orderings are stable
type tickingClock struct{ t time.Time }

func (c *tickingClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

var (
	ada   = &auth.Identity{UserID: "u-ada", Email: "ada@example.com", FullName: "Ada Lovelace"}
	grace = &auth.Identity{UserID: "u-grace", Email: "grace@example.com"}
)

func newTestDB(t *testing.T, identity *auth.Identity) (*DB, *tickingClock) {
	t.Helper()
	clock := &tickingClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	db, err := Open("sqlite3", ":memory:?_foreign_keys=on", identity, Options{Now: clock.now})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, clock
}

// as returns a gateway on the same connection acting for another identity
func as(db *DB, clock *tickingClock, identity *auth.Identity) *DB {
	return New(db.DB, identity, Options{Now: clock.now})
}

// withProfile makes sure the identity has a users row
func withProfile(t *testing.T, db *DB) {
	t.Helper()
	_, err := db.CurrentProfile(context.Background())
	require.NoError(t, err)
}

func TestCurrentProfileSelfHeals(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t, grace)

	_, found, err := db.LookupProfile(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	p, err := db.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u-grace", p.ID)
	assert.Equal(t, "grace@example.com", p.Email)
	require.NotNil(t, p.FullName)
	assert.Equal(t, "grace", *p.FullName)

	again, found, err := db.LookupProfile(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, p.ID, again.ID)

	// a second client finds the existing row instead of inserting again
	other := as(db, clock, grace)
	p2, err := other.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, p2.ID)
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, ada)
	withProfile(t, db)

	bio := "Analyst"
	p, err := db.UpdateProfile(ctx, models.ProfilePatch{Bio: &bio})
	require.NoError(t, err)
	require.NotNil(t, p.Bio)
	assert.Equal(t, "Analyst", *p.Bio)
	require.NotNil(t, p.FullName)
	assert.Equal(t, "Ada Lovelace", *p.FullName)
}

func TestNotAuthenticated(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, nil)

	_, err := db.CreateWorkspace(ctx, "Acme")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = db.ListWorkspaces(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = db.CreateSubtask(ctx, "parent", "x", nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, _, err = db.LookupProfile(ctx)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestCreateWorkspaceAddsOwnerMembership(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, ada)
	withProfile(t, db)

	first, err := db.CreateWorkspace(ctx, "First")
	require.NoError(t, err)
	second, err := db.CreateWorkspace(ctx, "Second")
	require.NoError(t, err)

	list, err := db.ListWorkspaces(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)
	require.NotNil(t, list[0].Role)
	assert.Equal(t, models.RoleOwner, *list[0].Role)

	members, err := db.ListMembers(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "u-ada", members[0].User.ID)
	assert.Equal(t, models.RoleOwner, members[0].Role)
}

func TestCreateWorkspaceIsAtomic(t *testing.T) {
	ctx := context.Background()
	// no users row: the owner membership insert violates its foreign key
	db, _ := newTestDB(t, ada)

	_, err := db.CreateWorkspace(ctx, "Orphan")
	require.Error(t, err)

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM workspaces").Scan(&n))
	assert.Equal(t, 0, n, "workspace row must be rolled back")
}

func TestAddMemberByEmail(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t, ada)
	withProfile(t, db)
	withProfile(t, as(db, clock, grace))

	ws, err := db.CreateWorkspace(ctx, "Acme")
	require.NoError(t, err)

	t.Run("unknown email", func(t *testing.T) {
		err := db.AddMemberByEmail(ctx, ws.ID, "nobody@example.com")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.EqualError(t, err, "User not found")
	})

	t.Run("adds member", func(t *testing.T) {
		require.NoError(t, db.AddMemberByEmail(ctx, ws.ID, "grace@example.com"))
		members, err := db.ListMembers(ctx, ws.ID)
		require.NoError(t, err)
		require.Len(t, members, 2)
		assert.Equal(t, "u-grace", members[0].User.ID)
		assert.Equal(t, models.RoleMember, members[0].Role)
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		err := db.AddMemberByEmail(ctx, ws.ID, "grace@example.com")
		assert.ErrorIs(t, err, ErrConflict)
		assert.EqualError(t, err, "User is already a member")

		var n int
		require.NoError(t, db.QueryRow(
			"SELECT COUNT(*) FROM workspace_members WHERE workspace_id = $1 AND user_id = $2",
			ws.ID, "u-grace").Scan(&n))
		assert.Equal(t, 1, n)
	})

	t.Run("role change and removal", func(t *testing.T) {
		require.NoError(t, db.UpdateMemberRole(ctx, ws.ID, "u-grace", models.RoleAdmin))
		members, err := db.ListMembers(ctx, ws.ID)
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, members[0].Role)

		require.NoError(t, db.RemoveMember(ctx, ws.ID, "u-grace"))
		members, err = db.ListMembers(ctx, ws.ID)
		require.NoError(t, err)
		assert.Len(t, members, 1)
	})
}

func TestProjects(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, ada)
	withProfile(t, db)
	ws, err := db.CreateWorkspace(ctx, "Acme")
	require.NoError(t, err)

	desc := "Q1 launch"
	older, err := db.CreateProject(ctx, ws.ID, ProjectInput{Name: "Launch", Description: &desc, Color: models.ColorRed})
	require.NoError(t, err)
	assert.Equal(t, "u-ada", older.OwnerID)
	assert.Equal(t, models.ColorRed, older.Color)

	newer, err := db.CreateProject(ctx, ws.ID, ProjectInput{Name: "Ops"})
	require.NoError(t, err)
	assert.Equal(t, models.ColorBlue, newer.Color, "default color")

	list, err := db.ListProjects(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)

	name := "Operations"
	require.NoError(t, db.UpdateProject(ctx, newer.ID, ProjectPatch{Name: &name}))
	err = db.UpdateProject(ctx, "missing", ProjectPatch{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, db.DeleteProject(ctx, older.ID))
	list, err = db.ListProjects(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Operations", list[0].Name)
}

func TestListTasksOrderedByDueDate(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, ada)
	withProfile(t, db)
	ws, err := db.CreateWorkspace(ctx, "Acme")
	require.NoError(t, err)

	day := func(d int) *time.Time {
		t := time.Date(2024, 2, d, 0, 0, 0, 0, time.UTC)
		return &t
	}
	me := "u-ada"
	_, err = db.CreateTask(ctx, ws.ID, TaskInput{Name: "undated", AssigneeID: &me})
	require.NoError(t, err)
	_, err = db.CreateTask(ctx, ws.ID, TaskInput{Name: "late", DueDate: day(20), AssigneeID: &me})
	require.NoError(t, err)
	_, err = db.CreateTask(ctx, ws.ID, TaskInput{Name: "soon", DueDate: day(3)})
	require.NoError(t, err)

	tasks, err := db.ListWorkspaceTasks(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, []string{"soon", "late", "undated"}, names(tasks))

	mine, err := db.ListUserTasks(ctx, ws.ID, me)
	require.NoError(t, err)
	assert.Equal(t, []string{"late", "undated"}, names(mine))
	require.NotNil(t, mine[0].Assignee)
	assert.Equal(t, "ada@example.com", mine[0].Assignee.Email)
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, ada)
	withProfile(t, db)
	ws, err := db.CreateWorkspace(ctx, "Acme")
	require.NoError(t, err)
	task, err := db.CreateTask(ctx, ws.ID, TaskInput{Name: "Write report"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)

	t.Run("dueDate alias", func(t *testing.T) {
		due := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		updated, err := db.UpdateTask(ctx, task.ID, TaskPatch{"dueDate": due, "priority": "high"})
		require.NoError(t, err)
		require.NotNil(t, updated.DueDate)
		assert.True(t, due.Equal(*updated.DueDate))
		assert.Equal(t, models.PriorityHigh, updated.Priority)
	})

	t.Run("completion stamps completed_at", func(t *testing.T) {
		updated, err := db.UpdateTask(ctx, task.ID, TaskPatch{"status": "done"})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCompleted, updated.Status, "done is canonicalized")
		assert.NotNil(t, updated.CompletedAt)

		completed, err := db.ListCompletedTasks(ctx, ws.ID)
		require.NoError(t, err)
		assert.Len(t, completed, 1)

		updated, err = db.UpdateTask(ctx, task.ID, TaskPatch{"status": models.StatusTodo})
		require.NoError(t, err)
		assert.Nil(t, updated.CompletedAt)
	})

	t.Run("malformed field", func(t *testing.T) {
		_, err := db.UpdateTask(ctx, task.ID, TaskPatch{"name; DROP TABLE tasks": "x"})
		assert.Error(t, err)
	})

	t.Run("unknown field passes through to the backend", func(t *testing.T) {
		_, err := db.UpdateTask(ctx, task.ID, TaskPatch{"estimate": 3})
		require.Error(t, err)
		assert.False(t, isDomainError(err))
	})

	t.Run("missing task", func(t *testing.T) {
		_, err := db.UpdateTask(ctx, "missing", TaskPatch{"name": "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCreateSubtask(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, ada)
	withProfile(t, db)

	_, err := db.Exec("INSERT INTO workspaces (id, name, owner_id, created_at) VALUES ($1, $2, $3, $4)",
		"W1", "Writers", "u-ada", time.Now().UTC())
	require.NoError(t, err)
	parent, err := db.CreateTask(ctx, "W1", TaskInput{Name: "Write book"})
	require.NoError(t, err)

	sub, err := db.CreateSubtask(ctx, parent.ID, "Draft outline", nil)
	require.NoError(t, err)
	require.NotNil(t, sub.ParentID)
	assert.Equal(t, parent.ID, *sub.ParentID)
	assert.Equal(t, "W1", sub.WorkspaceID)
	assert.Equal(t, models.StatusTodo, sub.Status)
	assert.Equal(t, "Draft outline", sub.Name)

	_, err = db.CreateSubtask(ctx, parent.ID, "Write chapter one", nil)
	require.NoError(t, err)

	subs, err := db.ListSubtasks(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Draft outline", "Write chapter one"}, names(subs), "oldest first")

	_, err = db.CreateSubtask(ctx, "missing", "x", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "Parent task not found")
}

func TestComments(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t, ada)
	withProfile(t, db)
	ws, err := db.CreateWorkspace(ctx, "Acme")
	require.NoError(t, err)
	task, err := db.CreateTask(ctx, ws.ID, TaskInput{Name: "Review"})
	require.NoError(t, err)

	_, err = db.AddComment(ctx, task.ID, "first")
	require.NoError(t, err)
	_, err = db.AddComment(ctx, task.ID, "second")
	require.NoError(t, err)

	comments, err := db.ListTaskComments(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	require.NotNil(t, comments[0].Author)
	assert.Equal(t, "ada@example.com", comments[0].Author.Email)

	activity, err := db.RecentActivity(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, activity, 2)
	assert.Equal(t, "second", activity[0].Content)
	require.NotNil(t, activity[0].TaskName)
	assert.Equal(t, "Review", *activity[0].TaskName)
}

func TestErrorKinds(t *testing.T) {
	err := notFound("Task not found", nil)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.True(t, isDomainError(err))
}

func TestTaskPatchNormalize(t *testing.T) {
	due := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := TaskPatch{"dueDate": due, "status": "done", "estimate": 3}.Normalize()
	assert.Equal(t, TaskPatch{"due_date": due, "status": "completed", "estimate": 3}, p)

	applied := TaskPatch{"dueDate": due, "name": "New"}.Apply(models.Task{Name: "Old"})
	assert.Equal(t, "New", applied.Name)
	require.NotNil(t, applied.DueDate)
	assert.True(t, due.Equal(*applied.DueDate))
}

func names(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Name
	}
	return out
}
