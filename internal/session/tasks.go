package session

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tgienger/taskboard/internal/analytics"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/models"
)

// ProjectTasks lists a project's top-level tasks and remembers the project
// for the next start
func (c *Controller) ProjectTasks(ctx context.Context, projectID string) ([]models.Task, error) {
	tasks, err := c.backend.ListProjectTasks(ctx, projectID)
	if err != nil {
		return nil, c.fail("load tasks", err, logrus.Fields{"project": projectID})
	}
	c.rememberProject(projectID)
	return tasks, nil
}

// CreateTask adds a task to a project of the current workspace
func (c *Controller) CreateTask(ctx context.Context, in db.TaskInput) (*models.Task, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return nil, err
	}
	if in.Name, err = cleanName(in.Name); err != nil {
		return nil, err
	}
	t, err := c.backend.CreateTask(ctx, w.ID, in)
	if err != nil {
		return nil, c.fail("create task", err, logrus.Fields{"workspace": w.ID})
	}
	return t, nil
}

// DeleteTask deletes a task and its subtasks
func (c *Controller) DeleteTask(ctx context.Context, taskID string) error {
	if err := c.backend.DeleteTask(ctx, taskID); err != nil {
		return c.fail("delete task", err, logrus.Fields{"task": taskID})
	}
	return nil
}

// TaskUpdate is the outcome of a task edit. Apply is false when a newer
// edit of the same task was issued meanwhile and still stands, in which case
// Task should be ignored. On failure Task is the last saved version to restore.
type TaskUpdate struct {
	Task  models.Task
	Apply bool
}

// UpdateTask saves a partial edit of task. Edits of one task are sequenced:
// only the response to the latest one is applied.
func (c *Controller) UpdateTask(ctx context.Context, task models.Task, patch db.TaskPatch) (TaskUpdate, error) {
	token := c.taskEdits.Begin(task.ID, task)

	saved, err := c.backend.UpdateTask(ctx, task.ID, patch)
	if err != nil {
		prev, ok := c.taskEdits.Revert(task.ID, token)
		return TaskUpdate{Task: prev, Apply: ok}, c.fail("update task", err, logrus.Fields{"task": task.ID})
	}

	result := *saved
	result.ProjectName = task.ProjectName
	if sameAssignee(task, result) {
		result.Assignee = task.Assignee
	}
	return TaskUpdate{Task: result, Apply: c.taskEdits.Settle(task.ID, token, result)}, nil
}

func sameAssignee(a, b models.Task) bool {
	if a.AssigneeID == nil || b.AssigneeID == nil {
		return a.AssigneeID == b.AssigneeID
	}
	return *a.AssigneeID == *b.AssigneeID
}

// ToggleComplete flips a task between complete and todo
func (c *Controller) ToggleComplete(ctx context.Context, task models.Task) (TaskUpdate, error) {
	next := models.StatusCompleted
	if task.Status.IsComplete() {
		next = models.StatusTodo
	}
	return c.UpdateTask(ctx, task, db.TaskPatch{"status": next})
}

// Subtasks lists the subtasks of a task, oldest first
func (c *Controller) Subtasks(ctx context.Context, parentID string) ([]models.Task, error) {
	tasks, err := c.backend.ListSubtasks(ctx, parentID)
	if err != nil {
		return nil, c.fail("load subtasks", err, logrus.Fields{"task": parentID})
	}
	return tasks, nil
}

// AddSubtask creates a subtask under parent, assigned like its parent
func (c *Controller) AddSubtask(ctx context.Context, parent models.Task, name string) (*models.Task, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	t, err := c.backend.CreateSubtask(ctx, parent.ID, name, parent.AssigneeID)
	if err != nil {
		return nil, c.fail("add subtask", err, logrus.Fields{"task": parent.ID})
	}
	return t, nil
}

// Comments lists the comments on a task, oldest first
func (c *Controller) Comments(ctx context.Context, taskID string) ([]models.Comment, error) {
	comments, err := c.backend.ListTaskComments(ctx, taskID)
	if err != nil {
		return nil, c.fail("load comments", err, logrus.Fields{"task": taskID})
	}
	return comments, nil
}

// AddComment posts a comment on a task
func (c *Controller) AddComment(ctx context.Context, taskID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	comment, err := c.backend.AddComment(ctx, taskID, content)
	if err != nil {
		return nil, c.fail("add comment", err, logrus.Fields{"task": taskID})
	}
	return comment, nil
}

// MyTasks returns the user's open tasks in the current workspace, split into
// overdue, today and upcoming
func (c *Controller) MyTasks(ctx context.Context) (analytics.Sections, error) {
	w, err := c.CurrentWorkspace()
	if err != nil {
		return analytics.Sections{}, err
	}
	tasks, err := c.backend.ListUserTasks(ctx, w.ID, c.UserID())
	if err != nil {
		return analytics.Sections{}, c.fail("load my tasks", err, logrus.Fields{"workspace": w.ID})
	}
	return analytics.SectionMyTasks(c.now(), tasks), nil
}
