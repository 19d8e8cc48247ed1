package db

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/tgienger/taskboard/internal/models"
)

const taskColumns = "id, workspace_id, project_id, parent_id, name, description, status, priority, " +
	"due_date, assignee_id, created_by, completed_at, created_at, updated_at"

// joined read: task row, project name, assignee
var taskSelect = `
	SELECT ` + qualify("t", taskColumns) + `, p.name, u.id, u.email, u.full_name, u.avatar_url
	FROM tasks t
	LEFT JOIN projects p ON p.id = t.project_id
	LEFT JOIN users u ON u.id = t.assignee_id
`

// undated tasks sort last on both backends
const byDueDate = " ORDER BY t.due_date IS NULL, t.due_date ASC, t.created_at ASC"

func taskFields(t *models.Task) []any {
	return []any{&t.ID, &t.WorkspaceID, &t.ProjectID, &t.ParentID, &t.Name, &t.Description, &t.Status,
		&t.Priority, &t.DueDate, &t.AssigneeID, &t.CreatedBy, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt}
}

func scanTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	if err := row.Scan(taskFields(t)...); err != nil {
		return nil, err
	}
	return t, nil
}

func scanJoinedTask(row rowScanner) (*models.Task, error) {
	t := &models.Task{}
	var userID, email *string
	var fullName, avatar *string
	dest := append(taskFields(t), &t.ProjectName, &userID, &email, &fullName, &avatar)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if userID != nil {
		t.Assignee = &models.UserRef{ID: *userID, FullName: fullName, AvatarURL: avatar}
		if email != nil {
			t.Assignee.Email = *email
		}
	}
	return t, nil
}

// taskRow reads back a single row after a write
func (db *DB) taskRow(ctx context.Context, taskID string) (*models.Task, error) {
	return scanTask(db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = $1", taskID))
}

func (db *DB) queryTasks(ctx context.Context, op, query string, args ...any) ([]models.Task, error) {
	var tasks []models.Task
	err := db.do(ctx, op, func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanJoinedTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, *t)
		}
		return rows.Err()
	})
	return tasks, err
}

// ListWorkspaceTasks returns every task in a workspace, subtasks included,
// ordered by due date
func (db *DB) ListWorkspaceTasks(ctx context.Context, workspaceID string) ([]models.Task, error) {
	return db.queryTasks(ctx, "list workspace tasks",
		taskSelect+" WHERE t.workspace_id = $1"+byDueDate, workspaceID)
}

// ListUserTasks returns the tasks assigned to a user in a workspace, ordered by due date
func (db *DB) ListUserTasks(ctx context.Context, workspaceID, userID string) ([]models.Task, error) {
	return db.queryTasks(ctx, "list user tasks",
		taskSelect+" WHERE t.workspace_id = $1 AND t.assignee_id = $2"+byDueDate, workspaceID, userID)
}

// ListProjectTasks returns the top-level tasks of a project, ordered by due date
func (db *DB) ListProjectTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	return db.queryTasks(ctx, "list project tasks",
		taskSelect+" WHERE t.project_id = $1 AND t.parent_id IS NULL"+byDueDate, projectID)
}

// ListCompletedTasks returns the latest 100 completed tasks of a workspace,
// most recently completed first
func (db *DB) ListCompletedTasks(ctx context.Context, workspaceID string) ([]models.Task, error) {
	return db.queryTasks(ctx, "list completed tasks",
		taskSelect+` WHERE t.workspace_id = $1 AND t.status IN ('completed', 'done')
		ORDER BY t.completed_at IS NULL, t.completed_at DESC LIMIT 100`, workspaceID)
}

// GetTask returns a task with its project name and assignee
func (db *DB) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	var task *models.Task
	err := db.do(ctx, "get task", func(ctx context.Context) error {
		t, err := scanJoinedTask(db.QueryRowContext(ctx, taskSelect+" WHERE t.id = $1", taskID))
		if isNoRows(err) {
			return notFound("Task not found", err)
		}
		task = t
		return err
	})
	return task, err
}

// TaskInput holds the fields of a new top-level task
type TaskInput struct {
	Name        string
	Description *string
	ProjectID   *string
	Status      models.Status
	Priority    models.Priority
	DueDate     *time.Time
	AssigneeID  *string
}

// CreateTask creates a task in a workspace
func (db *DB) CreateTask(ctx context.Context, workspaceID string, in TaskInput) (*models.Task, error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = models.StatusTodo
	}
	in.Status = models.NormalizeStatus(in.Status)
	in.Priority = in.Priority.OrDefault()

	now := db.timestamp()
	var completedAt *time.Time
	if in.Status.IsComplete() {
		completedAt = &now
	}

	var task *models.Task
	err = db.do(ctx, "create task", func(ctx context.Context) error {
		taskID := newID()
		_, err := db.ExecContext(ctx, `
			INSERT INTO tasks (id, workspace_id, project_id, name, description, status, priority,
				due_date, assignee_id, created_by, completed_at, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)
		`, taskID, workspaceID, in.ProjectID, in.Name, in.Description, string(in.Status), string(in.Priority),
			utcPtr(in.DueDate), in.AssigneeID, id.UserID, completedAt, now)
		if err != nil {
			return err
		}
		task, err = db.taskRow(ctx, taskID)
		return err
	})
	return task, err
}

// TaskPatch is a partial task update keyed by field name. Keys use the
// persisted column names; "dueDate" is accepted as an alias of "due_date".
// Other keys pass through unchanged.
type TaskPatch map[string]any

var fieldAliases = map[string]string{
	"dueDate": "due_date",
}

var columnName = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Normalize returns a copy with aliased field names translated to the
// persisted names and legacy statuses canonicalized
func (p TaskPatch) Normalize() TaskPatch {
	out := make(TaskPatch, len(p))
	for k, v := range p {
		if alias, ok := fieldAliases[k]; ok {
			k = alias
		}
		out[k] = v
	}
	if s, ok := statusValue(out["status"]); ok {
		out["status"] = string(models.NormalizeStatus(s))
	}
	return out
}

func statusValue(v any) (models.Status, bool) {
	switch s := v.(type) {
	case models.Status:
		return s, true
	case string:
		return models.Status(s), true
	}
	return "", false
}

// Apply returns t with the patch applied to the fields the client models
func (p TaskPatch) Apply(t models.Task) models.Task {
	for k, v := range p.Normalize() {
		switch k {
		case "name":
			if s, ok := v.(string); ok {
				t.Name = s
			}
		case "status":
			if s, ok := statusValue(v); ok {
				t.Status = s
			}
		case "priority":
			switch s := v.(type) {
			case string:
				t.Priority = models.Priority(s)
			case models.Priority:
				t.Priority = s
			}
		case "description":
			t.Description = stringPtr(v)
		case "assignee_id":
			t.AssigneeID = stringPtr(v)
		case "due_date":
			t.DueDate = timePtr(v)
		case "completed_at":
			t.CompletedAt = timePtr(v)
		}
	}
	return t
}

func stringPtr(v any) *string {
	switch s := v.(type) {
	case string:
		return &s
	case *string:
		return s
	}
	return nil
}

func timePtr(v any) *time.Time {
	switch s := v.(type) {
	case time.Time:
		return &s
	case *time.Time:
		return s
	}
	return nil
}

// bindValue converts client-side typed values into plain driver values
func bindValue(v any) any {
	switch x := v.(type) {
	case models.Status:
		return string(x)
	case models.Priority:
		return string(x)
	case time.Time:
		return x.UTC()
	case *time.Time:
		return utcPtr(x)
	}
	return v
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// UpdateTask applies a partial update and returns the stored row. Moving the
// status to complete stamps completed_at unless the patch sets it; moving it
// away clears it.
func (db *DB) UpdateTask(ctx context.Context, taskID string, patch TaskPatch) (*models.Task, error) {
	fields := patch.Normalize()
	now := db.timestamp()

	if s, ok := statusValue(fields["status"]); ok {
		if _, set := fields["completed_at"]; !set {
			if s.IsComplete() {
				fields["completed_at"] = now
			} else {
				fields["completed_at"] = nil
			}
		}
	}
	if _, set := fields["updated_at"]; !set {
		fields["updated_at"] = now
	}
	delete(fields, "id")

	cols := make([]string, 0, len(fields))
	for k := range fields {
		if !columnName.MatchString(k) {
			return nil, fmt.Errorf("update task: invalid field %q", k)
		}
		cols = append(cols, k)
	}
	sort.Strings(cols)

	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		args = append(args, bindValue(fields[c]))
	}
	set, next := setClause(cols, 1)
	args = append(args, taskID)

	var task *models.Task
	err := db.do(ctx, "update task", func(ctx context.Context) error {
		res, err := db.ExecContext(ctx, "UPDATE tasks SET "+set+" WHERE id = "+placeholder(next), args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFound("Task not found", nil)
		}
		task, err = db.taskRow(ctx, taskID)
		return err
	})
	return task, err
}

// DeleteTask deletes a task and its subtasks
func (db *DB) DeleteTask(ctx context.Context, taskID string) error {
	return db.do(ctx, "delete task", func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1", taskID)
		return err
	})
}

// ListSubtasks returns the subtasks of a task, oldest first
func (db *DB) ListSubtasks(ctx context.Context, parentID string) ([]models.Task, error) {
	return db.queryTasks(ctx, "list subtasks",
		taskSelect+" WHERE t.parent_id = $1 ORDER BY t.created_at ASC", parentID)
}

// CreateSubtask creates a todo subtask under parentID in the parent's workspace
func (db *DB) CreateSubtask(ctx context.Context, parentID, name string, assigneeID *string) (*models.Task, error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, err
	}

	var task *models.Task
	err = db.do(ctx, "create subtask", func(ctx context.Context) error {
		var workspaceID string
		err := db.QueryRowContext(ctx, "SELECT workspace_id FROM tasks WHERE id = $1", parentID).Scan(&workspaceID)
		if isNoRows(err) {
			return notFound("Parent task not found", err)
		}
		if err != nil {
			return err
		}

		taskID := newID()
		_, err = db.ExecContext(ctx, `
			INSERT INTO tasks (id, workspace_id, parent_id, name, status, priority, assignee_id,
				created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		`, taskID, workspaceID, parentID, name, string(models.StatusTodo), string(models.PriorityMedium),
			assigneeID, id.UserID, db.timestamp())
		if err != nil {
			return err
		}
		task, err = db.taskRow(ctx, taskID)
		return err
	})
	return task, err
}
