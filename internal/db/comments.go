package db

import (
	"context"

	"github.com/tgienger/taskboard/internal/models"
)

const recentActivityLimit = 20

// AddComment adds a comment by the current user to a task
func (db *DB) AddComment(ctx context.Context, taskID, content string) (*models.Comment, error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, err
	}

	c := &models.Comment{
		ID:        newID(),
		TaskID:    taskID,
		UserID:    id.UserID,
		Content:   content,
		CreatedAt: db.timestamp(),
	}
	err = db.do(ctx, "add comment", func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO comments (id, task_id, user_id, content, created_at) VALUES ($1, $2, $3, $4, $5)
		`, c.ID, c.TaskID, c.UserID, c.Content, c.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListTaskComments returns the comments on a task, oldest first
func (db *DB) ListTaskComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.do(ctx, "list comments", func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, `
			SELECT c.id, c.task_id, c.user_id, c.content, c.created_at, u.email, u.full_name, u.avatar_url
			FROM comments c
			JOIN users u ON u.id = c.user_id
			WHERE c.task_id = $1
			ORDER BY c.created_at ASC
		`, taskID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c models.Comment
			author := &models.UserRef{}
			if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt,
				&author.Email, &author.FullName, &author.AvatarURL); err != nil {
				return err
			}
			author.ID = c.UserID
			c.Author = author
			comments = append(comments, c)
		}
		return rows.Err()
	})
	return comments, err
}

// RecentActivity returns the newest comments across a workspace with the
// task and project they belong to
func (db *DB) RecentActivity(ctx context.Context, workspaceID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := db.do(ctx, "recent activity", func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, `
			SELECT c.id, c.task_id, c.user_id, c.content, c.created_at,
				t.name, p.name, u.email, u.full_name, u.avatar_url
			FROM comments c
			JOIN tasks t ON t.id = c.task_id
			LEFT JOIN projects p ON p.id = t.project_id
			JOIN users u ON u.id = c.user_id
			WHERE t.workspace_id = $1
			ORDER BY c.created_at DESC
			LIMIT $2
		`, workspaceID, recentActivityLimit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var c models.Comment
			author := &models.UserRef{}
			if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt,
				&c.TaskName, &c.ProjectName, &author.Email, &author.FullName, &author.AvatarURL); err != nil {
				return err
			}
			author.ID = c.UserID
			c.Author = author
			comments = append(comments, c)
		}
		return rows.Err()
	})
	return comments, err
}
