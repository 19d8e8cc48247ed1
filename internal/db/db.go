// Package db is the gateway to the task service's database. Every exported
// method performs one logical remote operation on behalf of the bound
// identity and returns parsed rows or an error.
package db

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tgienger/taskboard/internal/auth"
	"github.com/tgienger/taskboard/internal/logging"
)

//go:embed schema.sql
var schema string

// DB wraps the backend connection
type DB struct {
	*sql.DB
	identity *auth.Identity
	breaker  *gobreaker.CircuitBreaker
	now      func() time.Time
}

// Options tune a gateway
type Options struct {
	BreakerTimeout time.Duration    // how long the breaker stays open, default 5s
	Now            func() time.Time // clock for created_at/updated_at, default time.Now
}

// Open connects to the backend. For sqlite the schema is provisioned on open;
// the hosted Postgres service manages its own schema.
func Open(driver, dsn string, identity *auth.Identity, opts Options) (*DB, error) {
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == "sqlite3" {
		// one writer; keeps in-memory databases shared across the pool
		conn.SetMaxOpenConns(1)
		if _, err := conn.Exec(schema); err != nil {
			conn.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	return New(conn, identity, opts), nil
}

// New wraps an existing connection
func New(conn *sql.DB, identity *auth.Identity, opts Options) *DB {
	if opts.BreakerTimeout <= 0 {
		opts.BreakerTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "backend",
		MaxRequests: 1,
		Timeout:     opts.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		IsSuccessful: func(err error) bool {
			return err == nil || isDomainError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("circuit breaker state changed")
		},
	})

	return &DB{DB: conn, identity: identity, breaker: breaker, now: opts.Now}
}

// Identity returns the identity the gateway acts for, or nil
func (db *DB) Identity() *auth.Identity {
	return db.identity
}

func (db *DB) requireIdentity() (*auth.Identity, error) {
	if db.identity == nil || db.identity.UserID == "" {
		return nil, errNotAuthenticated
	}
	return db.identity, nil
}

// timestamp returns the current time at the precision the backend stores
func (db *DB) timestamp() time.Time {
	return db.now().UTC().Truncate(time.Microsecond)
}

func newID() string {
	return uuid.NewString()
}

// do runs one remote operation through the circuit breaker. Named gateway
// errors pass through untouched; anything else is wrapped with op.
func (db *DB) do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := db.breaker.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err == nil || isDomainError(err) {
		return err
	}

	logging.Logger.WithError(err).WithField("op", op).Error("backend call failed")
	return fmt.Errorf("%s: %w", op, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// qualify prefixes each column in a comma separated list with alias
func qualify(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
