package main

import (
	"errors"
	"fmt"
	"os"
	"os/user"

	"github.com/tgienger/taskboard/internal/auth"
	"github.com/tgienger/taskboard/internal/config"
	"github.com/tgienger/taskboard/internal/db"
	"github.com/tgienger/taskboard/internal/localdb"
	"github.com/tgienger/taskboard/internal/logging"
	"github.com/tgienger/taskboard/internal/session"
	"github.com/tgienger/taskboard/internal/store"
	"github.com/tgienger/taskboard/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("taskboard %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logging.Init(cfg.LogFile, cfg.LogLevel); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	logging.Logger.WithField("driver", cfg.Backend.Driver).Info("starting taskboard ", version)

	local, err := localdb.Open(cfg.StatePath())
	if err != nil {
		return fmt.Errorf("open local state: %w", err)
	}
	defer local.Close()

	identity, err := resolveIdentity(cfg, local)
	if err != nil {
		return err
	}

	gw, err := db.Open(cfg.Backend.Driver, cfg.Backend.DSN, identity, db.Options{
		BreakerTimeout: cfg.Backend.BreakerTimeout,
	})
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer gw.Close()

	// restore this user's last workspace and profile for a quick first paint
	stores := session.NewStores()
	stopWorkspaces, err := store.Persist(stores.Workspaces, store.UserKey("workspace", identity.UserID), local)
	if err != nil {
		return fmt.Errorf("restore workspace state: %w", err)
	}
	defer stopWorkspaces()
	stopUser, err := store.Persist(stores.User, store.UserKey("user", identity.UserID), local)
	if err != nil {
		return fmt.Errorf("restore user state: %w", err)
	}
	defer stopUser()

	ctrl := session.New(gw, stores, session.WithSettings(local))
	if err := ui.Run(ctrl); err != nil {
		return fmt.Errorf("running application: %w", err)
	}
	return nil
}

// resolveIdentity verifies the configured access token. Against a local
// sqlite backend without a token, a stable per-machine user is used.
func resolveIdentity(cfg *config.Config, local *localdb.DB) (*auth.Identity, error) {
	if cfg.Auth.AccessToken != "" {
		id, err := auth.Parse(cfg.Auth.AccessToken, []byte(cfg.Auth.JWTSecret))
		if err != nil {
			return nil, err
		}
		return id, nil
	}
	if cfg.Backend.Driver != config.DriverSQLite {
		return nil, errors.New("an access token is required for the hosted backend")
	}

	userID, err := local.LocalUserID()
	if err != nil {
		return nil, fmt.Errorf("local user: %w", err)
	}

	id := &auth.Identity{UserID: userID, Email: "local@localhost"}
	if u, err := user.Current(); err == nil {
		id.Email = u.Username + "@localhost"
		id.FullName = u.Name
	}
	return id, nil
}
