package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/tgienger/taskboard/internal/models"
)

// ListWorkspaces returns the workspaces the current user belongs to, newest
// first, each annotated with the user's role
func (db *DB) ListWorkspaces(ctx context.Context) ([]models.Workspace, error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, err
	}

	var workspaces []models.Workspace
	err = db.do(ctx, "list workspaces", func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, `
			SELECT w.id, w.name, w.owner_id, wm.role, w.created_at
			FROM workspaces w
			JOIN workspace_members wm ON wm.workspace_id = w.id
			WHERE wm.user_id = $1
			ORDER BY w.created_at DESC
		`, id.UserID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var w models.Workspace
			if err := rows.Scan(&w.ID, &w.Name, &w.OwnerID, &w.Role, &w.CreatedAt); err != nil {
				return err
			}
			workspaces = append(workspaces, w)
		}
		return rows.Err()
	})
	return workspaces, err
}

// CreateWorkspace creates a workspace and the creator's owner membership in
// one transaction. Either both rows exist afterwards or neither does.
func (db *DB) CreateWorkspace(ctx context.Context, name string) (*models.Workspace, error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, err
	}

	role := models.RoleOwner
	w := &models.Workspace{
		ID:        newID(),
		Name:      name,
		OwnerID:   id.UserID,
		Role:      &role,
		CreatedAt: db.timestamp(),
	}

	err = db.do(ctx, "create workspace", func(ctx context.Context) error {
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO workspaces (id, name, owner_id, created_at) VALUES ($1, $2, $3, $4)
		`, w.ID, w.Name, w.OwnerID, w.CreatedAt); err != nil {
			return err
		}

		if err := insertMember(ctx, tx, w.ID, id.UserID, models.RoleOwner, w.CreatedAt); err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return nil, err
	}
	return w, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertMember(ctx context.Context, ex execer, workspaceID, userID string, role models.Role, at time.Time) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO workspace_members (id, workspace_id, user_id, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, newID(), workspaceID, userID, string(role), at)
	return err
}
