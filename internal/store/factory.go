package store

import (
	"context"
	"fmt"

	"github.com/deppfellow/vdpulizie/internal/config"
	"github.com/deppfellow/vdpulizie/internal/database"
	loggerPkg "github.com/deppfellow/vdpulizie/internal/logger"
	"github.com/rs/zerolog"
)

// Open creates the Store selected by cfg.Store.Backend.
//
// Supported backends:
//
//	"postgres" - JSONB documents in PostgreSQL (DATABASE_URL)
//	"sqlite"   - JSON documents in a SQLite file (store.sqlite_path)
//	"memory"   - in-memory, lost on restart
func Open(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (Store, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		db, err := database.New(cfg, logger, loggerService)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := database.Migrate(ctx, logger, cfg); err != nil {
				db.Close()
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		return NewPostgresStore(db.Pool), nil

	case config.BackendSQLite:
		s, err := NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info().Str("path", cfg.Store.SQLitePath).Msg("opened sqlite store")
		return s, nil

	case config.BackendMemory:
		logger.Warn().Msg("using in-memory store, leads are lost on restart")
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown store backend: %q (supported: postgres, sqlite, memory)", cfg.Store.Backend)
	}
}
