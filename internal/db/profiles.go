package db

import (
	"context"
	"strings"

	"github.com/tgienger/taskboard/internal/models"
)

const profileColumns = "id, email, full_name, avatar_url, bio, title, location, website"

func scanProfile(row rowScanner) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	err := row.Scan(&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.Bio, &p.Title, &p.Location, &p.Website)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// LookupProfile fetches the current user's profile row. A missing row is
// reported through found, not as an error.
func (db *DB) LookupProfile(ctx context.Context) (profile *models.UserProfile, found bool, err error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, false, err
	}

	err = db.do(ctx, "lookup profile", func(ctx context.Context) error {
		p, err := scanProfile(db.QueryRowContext(ctx,
			"SELECT "+profileColumns+" FROM users WHERE id = $1", id.UserID))
		if isNoRows(err) {
			return nil
		}
		if err != nil {
			return err
		}
		profile, found = p, true
		return nil
	})
	return profile, found, err
}

// CreateProfile inserts the current user's profile from the identity claims.
// The display name falls back to the local part of the email.
func (db *DB) CreateProfile(ctx context.Context) (*models.UserProfile, error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, err
	}

	fullName := id.DisplayName()
	p := &models.UserProfile{ID: id.UserID, Email: id.Email, FullName: &fullName}
	if id.AvatarURL != "" {
		avatar := id.AvatarURL
		p.AvatarURL = &avatar
	}

	err = db.do(ctx, "create profile", func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, `
			INSERT INTO users (id, email, full_name, avatar_url, created_at) VALUES ($1, $2, $3, $4, $5)
		`, p.ID, p.Email, p.FullName, p.AvatarURL, db.timestamp())
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// CurrentProfile returns the current user's profile, creating it from the
// identity claims when the row does not exist yet.
func (db *DB) CurrentProfile(ctx context.Context) (*models.UserProfile, error) {
	p, found, err := db.LookupProfile(ctx)
	if err != nil {
		return nil, err
	}
	if found {
		return p, nil
	}

	p, err = db.CreateProfile(ctx)
	if err != nil && isUniqueViolation(err) {
		// created concurrently by another client
		p, _, err = db.LookupProfile(ctx)
	}
	return p, err
}

func profileAssignments(p models.ProfilePatch) ([]string, []any) {
	var cols []string
	var args []any
	add := func(col string, v *string) {
		if v != nil {
			cols = append(cols, col)
			args = append(args, *v)
		}
	}
	add("full_name", p.FullName)
	add("avatar_url", p.AvatarURL)
	add("bio", p.Bio)
	add("title", p.Title)
	add("location", p.Location)
	add("website", p.Website)
	return cols, args
}

// UpdateProfile applies a self-edit to the current user's profile and
// returns the stored row
func (db *DB) UpdateProfile(ctx context.Context, patch models.ProfilePatch) (*models.UserProfile, error) {
	id, err := db.requireIdentity()
	if err != nil {
		return nil, err
	}

	cols, args := profileAssignments(patch)
	if len(cols) == 0 {
		p, _, err := db.LookupProfile(ctx)
		return p, err
	}
	set, next := setClause(cols, 1)
	args = append(args, id.UserID)

	var profile *models.UserProfile
	err = db.do(ctx, "update profile", func(ctx context.Context) error {
		res, err := db.ExecContext(ctx, "UPDATE users SET "+set+" WHERE id = "+placeholder(next), args...)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return notFound("Profile not found", nil)
		}
		profile, err = scanProfile(db.QueryRowContext(ctx,
			"SELECT "+profileColumns+" FROM users WHERE id = $1", id.UserID))
		return err
	})
	return profile, err
}

// setClause renders "a = $n, b = $n+1" starting at placeholder start and
// returns the next free placeholder index
func setClause(cols []string, start int) (string, int) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " = " + placeholder(start+i)
	}
	return strings.Join(parts, ", "), start + len(cols)
}
