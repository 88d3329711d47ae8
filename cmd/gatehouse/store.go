package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sagarc03/gatehouse"
	"github.com/sagarc03/gatehouse/config"
	"github.com/sagarc03/gatehouse/database"
	"github.com/sagarc03/gatehouse/filesystem"
	"github.com/sagarc03/gatehouse/userbackend"
)

// openUserStore opens the configured user store, migrating and validating
// database backends. The returned close function is never nil.
func openUserStore(ctx context.Context, cfg *config.Config) (gatehouse.UserStore, func() error, error) {
	if cfg.Database.Type == "memory" {
		store, err := userbackend.NewUserStore(cfg.Auth.Users)
		if err != nil {
			return nil, nil, fmt.Errorf("load users: %w", err)
		}
		slog.Info("using in-memory user store", "file", cfg.Auth.Users.File)
		return store, func() error { return nil }, nil
	}

	db, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}

	if err = db.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}

	if err = db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	if err = db.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("validate database schema: %w", err)
	}

	slog.Info("connected to database", "type", cfg.Database.Type)
	return db.GetRepo(), db.Close, nil
}

// openStorage creates the storage directory if needed and returns the
// resolver and file store rooted at its canonical path.
func openStorage(path string) (*gatehouse.PathResolver, *filesystem.Store, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, nil, fmt.Errorf("create storage directory: %w", err)
	}

	resolver, err := gatehouse.NewPathResolver(path)
	if err != nil {
		return nil, nil, fmt.Errorf("storage root: %w", err)
	}

	root, err := os.OpenRoot(resolver.Root())
	if err != nil {
		return nil, nil, fmt.Errorf("open storage root: %w", err)
	}

	return resolver, filesystem.NewFileStorage(root), nil
}
