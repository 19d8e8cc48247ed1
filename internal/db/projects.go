package db

import (
	"context"
	"strconv"

	"github.com/tgienger/taskboard/internal/models"
)

const projectColumns = "id, workspace_id, owner_id, name, description, color, icon, created_at"

func scanProject(row rowScanner) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(&p.ID, &p.WorkspaceID, &p.OwnerID, &p.Name, &p.Description, &p.Color, &p.Icon, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

// ProjectInput holds the fields of a new project
type ProjectInput struct {
	Name        string
	Description *string
	Color       models.Color
	Icon        *string
}

// ListProjects returns the projects of a workspace, newest first
func (db *DB) ListProjects(ctx context.Context, workspaceID string) ([]models.Project, error) {
	var projects []models.Project
	err := db.do(ctx, "list projects", func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, `
			SELECT `+projectColumns+`
			FROM projects
			WHERE workspace_id = $1
			ORDER BY created_at DESC
		`, workspaceID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProject(rows)
			if err != nil {
				return err
			}
			projects = append(projects, *p)
		}
		return rows.Err()
	})
	return projects, err
}

// CreateProject creates a project owned by the current user
func (db *DB) CreateProject(ctx context.Context, workspaceID string, in ProjectInput) (*models.Project, error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, err
	}
	if in.Color == "" {
		in.Color = models.ColorBlue
	}

	var project *models.Project
	err = db.do(ctx, "create project", func(ctx context.Context) error {
		projectID := newID()
		_, err := db.ExecContext(ctx, `
			INSERT INTO projects (id, workspace_id, owner_id, name, description, color, icon, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, projectID, workspaceID, id.UserID, in.Name, in.Description, string(in.Color), in.Icon, db.timestamp())
		if err != nil {
			return err
		}
		project, err = scanProject(db.QueryRowContext(ctx,
			"SELECT "+projectColumns+" FROM projects WHERE id = $1", projectID))
		return err
	})
	return project, err
}

// ProjectPatch holds project fields to change; nil fields are left alone
type ProjectPatch struct {
	Name        *string
	Description *string
	Color       *models.Color
	Icon        *string
}

// Apply returns p with the patch applied
func (pp ProjectPatch) Apply(p models.Project) models.Project {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = pp.Description
	}
	if pp.Color != nil {
		p.Color = *pp.Color
	}
	if pp.Icon != nil {
		p.Icon = pp.Icon
	}
	return p
}

// UpdateProject applies a patch to a project
func (db *DB) UpdateProject(ctx context.Context, projectID string, patch ProjectPatch) error {
	var cols []string
	var args []any
	if patch.Name != nil {
		cols, args = append(cols, "name"), append(args, *patch.Name)
	}
	if patch.Description != nil {
		cols, args = append(cols, "description"), append(args, *patch.Description)
	}
	if patch.Color != nil {
		cols, args = append(cols, "color"), append(args, string(*patch.Color))
	}
	if patch.Icon != nil {
		cols, args = append(cols, "icon"), append(args, *patch.Icon)
	}
	if len(cols) == 0 {
		return nil
	}

	set, next := setClause(cols, 1)
	args = append(args, projectID)

	return db.do(ctx, "update project", func(ctx context.Context) error {
		res, err := db.ExecContext(ctx, "UPDATE projects SET "+set+" WHERE id = "+placeholder(next), args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFound("Project not found", nil)
		}
		return nil
	})
}

// DeleteProject deletes a project and, through the backend's cascade, its tasks
func (db *DB) DeleteProject(ctx context.Context, projectID string) error {
	return db.do(ctx, "delete project", func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, "DELETE FROM projects WHERE id = $1", projectID)
		return err
	})
}
