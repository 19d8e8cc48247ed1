// Package config resolves runtime settings from defaults, an optional YAML
// file, an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Backend drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Config holds everything the binary needs to start
type Config struct {
	Backend struct {
		Driver         string        `yaml:"driver"`
		DSN            string        `yaml:"dsn"`
		BreakerTimeout time.Duration `yaml:"breaker_timeout"`
	} `yaml:"backend"`

	Auth struct {
		AccessToken string `yaml:"access_token"`
		JWTSecret   string `yaml:"jwt_secret"`
	} `yaml:"auth"`

	DataDir  string `yaml:"data_dir"`
	LogFile  string `yaml:"log_file"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when nothing else is provided:
// a local sqlite backend under the data directory.
func Default() (*Config, error) {
	dataDir, err := dataDir()
	if err != nil {
		return nil, err
	}

	c := &Config{DataDir: dataDir, LogLevel: "info"}
	c.Backend.Driver = DriverSQLite
	c.Backend.DSN = sqliteDSN(dataDir)
	c.Backend.BreakerTimeout = 5 * time.Second
	c.LogFile = logPath(dataDir)
	return c, nil
}

func sqliteDSN(dataDir string) string {
	return filepath.Join(dataDir, "backend.db") + "?_foreign_keys=on"
}

func logPath(dataDir string) string {
	return filepath.Join(dataDir, "logs", "taskboard.log")
}

// Load builds the configuration. yamlPath may be empty, in which case the
// default location is tried and silently skipped when absent.
func Load(yamlPath string) (*Config, error) {
	c, err := Default()
	if err != nil {
		return nil, err
	}
	defaults := *c

	if yamlPath == "" {
		yamlPath = defaultYAMLPath()
	}
	if yamlPath != "" {
		if err := c.mergeYAML(yamlPath); err != nil {
			return nil, err
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	c.mergeEnv()
	c.followDataDir(defaults)

	return c, c.Validate()
}

func (c *Config) mergeYAML(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) mergeEnv() {
	setString(&c.Backend.Driver, "TASKBOARD_BACKEND_DRIVER")
	setString(&c.Backend.DSN, "TASKBOARD_BACKEND_DSN")
	setString(&c.Auth.AccessToken, "TASKBOARD_ACCESS_TOKEN")
	setString(&c.Auth.JWTSecret, "TASKBOARD_JWT_SECRET")
	setString(&c.DataDir, "TASKBOARD_DATA_DIR")
	setString(&c.LogFile, "TASKBOARD_LOG_FILE")
	setString(&c.LogLevel, "TASKBOARD_LOG_LEVEL")

	if v := os.Getenv("TASKBOARD_BREAKER_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Backend.BreakerTimeout = d
		}
	}
}

// Validate checks the resolved configuration
func (c *Config) Validate() error {
	switch c.Backend.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unsupported backend driver %q", c.Backend.Driver)
	}
	if strings.TrimSpace(c.Backend.DSN) == "" {
		return errors.New("backend dsn is required")
	}
	if c.Auth.AccessToken != "" && c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required to verify the access token")
	}
	return nil
}

// followDataDir moves the paths derived from the data directory when the
// directory was overridden and the paths were not set explicitly
func (c *Config) followDataDir(defaults Config) {
	if c.DataDir == defaults.DataDir {
		return
	}
	if c.Backend.Driver == DriverSQLite && c.Backend.DSN == defaults.Backend.DSN {
		c.Backend.DSN = sqliteDSN(c.DataDir)
	}
	if c.LogFile == defaults.LogFile {
		c.LogFile = logPath(c.DataDir)
	}
}

// StatePath is the local state database file
func (c *Config) StatePath() string {
	return filepath.Join(c.DataDir, "state.db")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

// dataDir returns the XDG data directory for the app
func dataDir() (string, error) {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dir, "taskboard"), nil
}

func defaultYAMLPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "taskboard", "config.yaml")
}
