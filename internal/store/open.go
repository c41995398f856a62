// Package store opens the core.Store selected by configuration.
package store

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/playlist-api/internal/config"
	"github.com/JonMunkholm/playlist-api/internal/core"
	"github.com/JonMunkholm/playlist-api/internal/store/filestore"
	"github.com/JonMunkholm/playlist-api/internal/store/pgstore"
	"github.com/JonMunkholm/playlist-api/internal/store/sqlitestore"
)

// Open returns the backend named by cfg.Storage.Backend.
func Open(ctx context.Context, cfg *config.Config) (core.Store, error) {
	var (
		s   core.Store
		err error
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		s, err = pgstore.Open(ctx, cfg.Database)
	case config.BackendSQLite:
		s, err = sqlitestore.Open(ctx, cfg.Storage.SQLitePath)
	case config.BackendFilesystem:
		s, err = filestore.Open(cfg.Storage.DataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Backend, err)
	}
	return s, nil
}
