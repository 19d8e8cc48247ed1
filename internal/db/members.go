package db

import (
	"context"

	"github.com/tgienger/taskboard/internal/models"
)

// ListMembers returns the members of a workspace joined with their user rows
func (db *DB) ListMembers(ctx context.Context, workspaceID string) ([]models.WorkspaceMember, error) {
	var members []models.WorkspaceMember
	err := db.do(ctx, "list members", func(ctx context.Context) error {
		rows, err := db.QueryContext(ctx, `
			SELECT wm.workspace_id, wm.role, wm.created_at, u.id, u.email, u.full_name, u.avatar_url
			FROM workspace_members wm
			JOIN users u ON u.id = wm.user_id
			WHERE wm.workspace_id = $1
			ORDER BY wm.created_at DESC
		`, workspaceID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m models.WorkspaceMember
			if err := rows.Scan(&m.WorkspaceID, &m.Role, &m.CreatedAt,
				&m.User.ID, &m.User.Email, &m.User.FullName, &m.User.AvatarURL); err != nil {
				return err
			}
			members = append(members, m)
		}
		return rows.Err()
	})
	return members, err
}

// AddMemberByEmail adds the user with the given email to a workspace as a
// member. The insert is attempted directly; a uniqueness conflict from the
// backend means the user already belongs to the workspace.
func (db *DB) AddMemberByEmail(ctx context.Context, workspaceID, email string) error {
	return db.do(ctx, "add member", func(ctx context.Context) error {
		var userID string
		err := db.QueryRowContext(ctx, "SELECT id FROM users WHERE email = $1", email).Scan(&userID)
		if isNoRows(err) {
			return errUserNotFound
		}
		if err != nil {
			return err
		}

		err = insertMember(ctx, db, workspaceID, userID, models.RoleMember, db.timestamp())
		if isUniqueViolation(err) {
			return &Error{Kind: ErrConflict, Message: "User is already a member", Err: err}
		}
		return err
	})
}

// RemoveMember removes a user from a workspace
func (db *DB) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	return db.do(ctx, "remove member", func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, `
			DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2
		`, workspaceID, userID)
		return err
	})
}

// UpdateMemberRole changes a member's role
func (db *DB) UpdateMemberRole(ctx context.Context, workspaceID, userID string, role models.Role) error {
	return db.do(ctx, "update member role", func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, `
			UPDATE workspace_members SET role = $1 WHERE workspace_id = $2 AND user_id = $3
		`, string(role), workspaceID, userID)
		return err
	})
}
