package postgres

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/go-extras/go-kit/must"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"valvx/internal/domain/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

var migrationsDir = must.Must(fs.Sub(migrationFS, "migrations"))

// Migration is one versioned schema change loaded from migrations/NNNN_name.sql.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// LoadMigrations parses NNNN_description.sql files from fsys, sorted by version.
func LoadMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	var migrations []Migration
	seen := make(map[int]string)
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".sql" {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".sql")
		prefix, desc, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: expected NNNN_description.sql", e.Name())
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= 0 {
			return nil, fmt.Errorf("migration %s: invalid version %q", e.Name(), prefix)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration %s: version %d already used by %s", e.Name(), version, other)
		}
		seen[version] = e.Name()

		body, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}
		migrations = append(migrations, Migration{
			Version:     version,
			Description: strings.ReplaceAll(desc, "_", " "),
			SQL:         string(body),
		})
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Migrate applies every embedded migration newer than the recorded schema
// version. Each migration runs in its own transaction.
func Migrate(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	migrations, err := LoadMigrations(migrationsDir)
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version     INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	logger.Info("migrating database", "current_version", current, "total_migrations", len(migrations))

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, description) VALUES ($1, $2)`,
				m.Version, m.Description)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		logger.Info("applied migration", "version", m.Version, "description", m.Description)
	}

	return nil
}

// EnsureRootFolder creates the top-level "root" folder when it does not exist yet.
func EnsureRootFolder(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	tag, err := pool.Exec(ctx, `
		INSERT INTO folders (name, description)
		SELECT $1, $2
		WHERE NOT EXISTS (SELECT 1 FROM folders WHERE name = $1 AND parent_id IS NULL)`,
		models.RootFolderName, "Root folder for all PDF documents")
	if err != nil {
		return fmt.Errorf("ensure root folder: %w", err)
	}
	if tag.RowsAffected() > 0 {
		logger.Info("created root folder")
	}
	return nil
}

// managedTables lists every table the migrations create, children first.
var managedTables = []string{
	"pdf_annotations",
	"pdf_metadata",
	"pdf_versions",
	"pdf_documents",
	"folders",
	"users",
	"schema_migrations",
}

// DropAll removes every table owned by the application, including the
// migration bookkeeping, so the next Migrate starts from scratch.
func DropAll(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, table := range managedTables {
			if _, err := tx.Exec(ctx, "DROP TABLE IF EXISTS "+pgx.Identifier{table}.Sanitize()+" CASCADE"); err != nil {
				return fmt.Errorf("drop %s: %w", table, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Warn("dropped all tables", "tables", len(managedTables))
	return nil
}
