// Package localdb is the client's own sqlite file. It keeps settings and the
// persisted client state between runs; nothing here is shared with the
// backend.
package localdb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// Setting keys
const (
	KeyLastProject = "last_project_id"
	KeyLocalUser   = "local_user_id"
	stateKeyPrefix = "state."
)

// DB wraps the local database connection
type DB struct {
	*sql.DB
}

// Open opens or creates the database at path and initializes the schema.
// An empty path uses the default location under the XDG data directory.
func Open(path string) (*DB, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init local schema: %w", err)
	}

	return &DB{conn}, nil
}

// DefaultPath returns the path to the local state file
func DefaultPath() (string, error) {
	// Use XDG data directory or fallback to home directory
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "taskboard", "state.db"), nil
}

// GetSetting retrieves a setting value by key. A missing key yields "".
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}

// DeleteSetting removes a setting
func (db *DB) DeleteSetting(key string) error {
	_, err := db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

// Load returns the saved state for key
func (db *DB) Load(key string) ([]byte, bool, error) {
	var value string
	err := db.QueryRow("SELECT value FROM settings WHERE key = ?", stateKeyPrefix+key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// Save stores state under key
func (db *DB) Save(key string, data []byte) error {
	return db.SetSetting(stateKeyPrefix+key, string(data))
}

// LastProject returns the id of the project opened last, or ""
func (db *DB) LastProject() (string, error) {
	return db.GetSetting(KeyLastProject)
}

// SetLastProject remembers the project to reopen on the next start
func (db *DB) SetLastProject(id string) error {
	if id == "" {
		return db.DeleteSetting(KeyLastProject)
	}
	return db.SetSetting(KeyLastProject, id)
}

// LocalUserID returns this machine's local user id, generating it on first use
func (db *DB) LocalUserID() (string, error) {
	id, err := db.GetSetting(KeyLocalUser)
	if err != nil || id != "" {
		return id, err
	}
	id = uuid.NewString()
	if err := db.SetSetting(KeyLocalUser, id); err != nil {
		return "", err
	}
	return id, nil
}
