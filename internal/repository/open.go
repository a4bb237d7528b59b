// Package repository opens the user store selected by configuration.
package repository

import (
	"context"
	"fmt"

	"github.com/msomdec/accountd/internal/config"
	"github.com/msomdec/accountd/internal/domain"
	"github.com/msomdec/accountd/internal/repository/memory"
	"github.com/msomdec/accountd/internal/repository/postgres"
	"github.com/msomdec/accountd/internal/repository/sqlite"
)

// Open connects to the configured backend and applies its migrations.
func Open(ctx context.Context, cfg config.Database) (domain.Store, error) {
	var (
		store domain.Store
		err   error
	)
	switch cfg.Driver {
	case config.DriverSQLite:
		store, err = sqlite.New(cfg.Path)
	case config.DriverPostgres:
		store, err = postgres.Open(postgres.Config{DSN: cfg.URL, MaxConns: cfg.MaxConns})
	case config.DriverMemory:
		store = memory.New()
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate %s store: %w", cfg.Driver, err)
	}
	return store, nil
}
