package db

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Error kinds. Match with errors.Is.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
)

// Error is a named gateway failure with a message fit for the user
type Error struct {
	Kind    error
	Message string
	Err     error // underlying driver error, if any
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }

func notFound(msg string, err error) error {
	return &Error{Kind: ErrNotFound, Message: msg, Err: err}
}

var (
	errNotAuthenticated = &Error{Kind: ErrNotAuthenticated, Message: "Not authenticated"}
	errUserNotFound     = &Error{Kind: ErrNotFound, Message: "User not found"}
)

// isDomainError reports errors that describe the request, not the backend's health
func isDomainError(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrNotAuthenticated)
}

// isUniqueViolation recognizes a uniqueness conflict from either backend
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
