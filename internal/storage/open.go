package storage

import (
	"context"
	"fmt"
	"strings"

	"schnicken/internal/config"
	"schnicken/internal/db"
	"schnicken/internal/repository"
	"schnicken/internal/repository/sqlite"
)

// Open returns the store selected by cfg.StorageDriver. Postgres is
// migrated first when cfg.AutoMigrate is set; sqlite always migrates.
func Open(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch strings.ToLower(cfg.StorageDriver) {
	case "postgres":
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if cfg.AutoMigrate {
			if _, err := repository.Migrate(ctx, pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return repository.NewPostgresStore(pool), nil
	case "sqlite", "":
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
