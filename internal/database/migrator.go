package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/deppfellow/vdpulizie/internal/config"
	"github.com/jackc/pgx/v5"
	tern "github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrations embed.FS

const versionTable = "schema_version"

// SchemaVersion is the applied and the newest embedded migration version.
type SchemaVersion struct {
	Current int32
	Latest  int32
}

func (v SchemaVersion) UpToDate() bool {
	return v.Current >= v.Latest
}

// Migrate brings the documents schema up to the latest embedded version.
func Migrate(ctx context.Context, logger *zerolog.Logger, cfg *config.Config) error {
	return withMigrator(ctx, cfg, func(m *tern.Migrator) error {
		before, err := m.GetCurrentVersion(ctx)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}

		if err := m.Migrate(ctx); err != nil {
			return fmt.Errorf("applying migrations: %w", err)
		}

		latest := int32(len(m.Migrations))
		if before == latest {
			logger.Info().Int32("version", latest).Msg("documents schema up to date")
		} else {
			logger.Info().Int32("from", before).Int32("to", latest).Msg("migrated documents schema")
		}
		return nil
	})
}

// Status reports the schema version without changing it.
func Status(ctx context.Context, cfg *config.Config) (SchemaVersion, error) {
	var v SchemaVersion
	err := withMigrator(ctx, cfg, func(m *tern.Migrator) error {
		current, err := m.GetCurrentVersion(ctx)
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
		v = SchemaVersion{Current: current, Latest: int32(len(m.Migrations))}
		return nil
	})
	return v, err
}

func withMigrator(ctx context.Context, cfg *config.Config, fn func(*tern.Migrator) error) error {
	dsn, err := ConnString(cfg)
	if err != nil {
		return err
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connecting for migrations: %w", err)
	}
	defer conn.Close(ctx)

	m, err := tern.NewMigrator(ctx, conn, versionTable)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	files, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	if err := m.LoadMigrations(files); err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	return fn(m)
}
