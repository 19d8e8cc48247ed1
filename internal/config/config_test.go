package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultUsesSQLite(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, c.Backend.Driver)
	assert.Contains(t, c.Backend.DSN, "backend.db")
	assert.Equal(t, filepath.Join(c.DataDir, "state.db"), c.StatePath())
	assert.NoError(t, c.Validate())
}

func TestLoadMergesYAMLThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
backend:
  driver: postgres
  dsn: postgres://localhost/tasks
  breaker_timeout: 2s
log_level: debug
`), 0644))

	t.Setenv("TASKBOARD_LOG_LEVEL", "warn")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, c.Backend.Driver)
	assert.Equal(t, "postgres://localhost/tasks", c.Backend.DSN)
	assert.Equal(t, 2*time.Second, c.Backend.BreakerTimeout)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestDataDirMovesDerivedPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	chdir(t, dir)

	moved := filepath.Join(dir, "elsewhere")
	t.Setenv("TASKBOARD_DATA_DIR", moved)

	c, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(moved, "backend.db")+"?_foreign_keys=on", c.Backend.DSN)
	assert.Equal(t, filepath.Join(moved, "logs", "taskboard.log"), c.LogFile)
	assert.Equal(t, filepath.Join(moved, "state.db"), c.StatePath())
}

func TestDataDirKeepsExplicitPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)
	chdir(t, dir)

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: /srv/taskboard
log_file: /var/log/taskboard.log
backend:
  dsn: /srv/shared/backend.db
`), 0644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/shared/backend.db", c.Backend.DSN)
	assert.Equal(t, "/var/log/taskboard.log", c.LogFile)
	assert.Equal(t, "/srv/taskboard/state.db", c.StatePath())
}

func TestValidate(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())

	c, err := Default()
	require.NoError(t, err)

	c.Backend.Driver = "mysql"
	assert.Error(t, c.Validate())

	c.Backend.Driver = DriverSQLite
	c.Auth.AccessToken = "token"
	assert.Error(t, c.Validate())

	c.Auth.JWTSecret = "secret"
	assert.NoError(t, c.Validate())
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
