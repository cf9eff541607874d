package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/creatorpulse/creatorpulse/internal/infrastructure/logging"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockID serializes migrators of several replicas starting at once.
const migrationLockID int64 = 0x63705f6d6967 // "cp_mig"

// ErrNoMigrations is returned by Rollback when nothing is applied.
var ErrNoMigrations = errors.New("no applied migrations")

var migrationFile = regexp.MustCompile(`^(\d{6})_([a-z0-9_]+)\.(up|down)\.sql$`)

// Migration is one versioned schema change with its undo script.
type Migration struct {
	Version     string
	Description string
	UpSQL       string
	DownSQL     string
}

// Migrator applies the embedded migrations.
// applied versions are tracked in <schema>.schema_migrations.
type Migrator struct {
	pool   *pgxpool.Pool
	schema string
	files  fs.FS
	logger *logging.Logger
}

// NewMigrator creates a new migrator instance.
func NewMigrator(conn *Connection, logger *logging.Logger) *Migrator {
	return &Migrator{
		pool:   conn.Pool(),
		schema: conn.Schema(),
		files:  migrationsFS,
		logger: logger.WithComponent("migrator"),
	}
}

func (m *Migrator) table() string {
	return pgx.Identifier{m.schema, "schema_migrations"}.Sanitize()
}

// Run applies all pending migrations in version order.
func (m *Migrator) Run(ctx context.Context) error {
	m.logger.MigrationStarted()

	migrations, err := parseMigrations(m.files)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	if err := m.ensureTable(ctx); err != nil {
		return err
	}

	applied := 0
	for _, mig := range migrations {
		ok, err := m.apply(ctx, mig)
		if err != nil {
			m.logger.MigrationFailed(mig.Version, mig.Description, err)
			return fmt.Errorf("applying migration %s: %w", mig.Version, err)
		}
		if ok {
			applied++
		}
	}

	m.logger.MigrationCompleted(applied)
	return nil
}

// Rollback reverts the most recently applied migration and returns its version.
func (m *Migrator) Rollback(ctx context.Context) (string, error) {
	migrations, err := parseMigrations(m.files)
	if err != nil {
		return "", fmt.Errorf("loading migrations: %w", err)
	}
	byVersion := make(map[string]Migration, len(migrations))
	for _, mig := range migrations {
		byVersion[mig.Version] = mig
	}

	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return "", err
	}
	if len(applied) == 0 {
		return "", ErrNoMigrations
	}

	last := applied[len(applied)-1]
	mig, ok := byVersion[last]
	if !ok || mig.DownSQL == "" {
		return "", fmt.Errorf("migration %s has no down script", last)
	}

	err = m.inLockedTx(ctx, func(tx pgx.Tx) error {
		// the first migration drops the tracking table itself
		if _, err := tx.Exec(ctx, `DELETE FROM `+m.table()+` WHERE version = $1`, mig.Version); err != nil {
			return fmt.Errorf("unrecording migration: %w", err)
		}
		if _, err := tx.Exec(ctx, mig.DownSQL); err != nil {
			return fmt.Errorf("executing down migration: %w", err)
		}
		return nil
	})
	if err != nil {
		m.logger.MigrationFailed(mig.Version, mig.Description, err)
		return "", fmt.Errorf("reverting migration %s: %w", mig.Version, err)
	}

	m.logger.Info("migration reverted", "version", mig.Version, "name", mig.Description)
	return mig.Version, nil
}

// Pending returns the versions not applied yet.
func (m *Migrator) Pending(ctx context.Context) ([]string, error) {
	migrations, err := parseMigrations(m.files)
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}
	applied, err := m.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	return pendingVersions(migrations, applied), nil
}

// GetAppliedMigrations returns the applied versions in order.
func (m *Migrator) GetAppliedMigrations(ctx context.Context) ([]string, error) {
	rows, err := m.pool.Query(ctx, `SELECT version FROM `+m.table()+` ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("querying migrations: %w", err)
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning versions: %w", err)
	}
	return versions, nil
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	stmt := `CREATE SCHEMA IF NOT EXISTS ` + pgx.Identifier{m.schema}.Sanitize() + `;
CREATE TABLE IF NOT EXISTS ` + m.table() + ` (
    version     TEXT PRIMARY KEY,
    description TEXT NOT NULL,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	if _, err := m.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}
	return nil
}

// apply runs one migration unless a concurrent migrator got there first.
func (m *Migrator) apply(ctx context.Context, mig Migration) (bool, error) {
	applied := false
	err := m.inLockedTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM `+m.table()+` WHERE version = $1)`, mig.Version,
		).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration status: %w", err)
		}
		if exists {
			return nil
		}

		if _, err := tx.Exec(ctx, mig.UpSQL); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO `+m.table()+` (version, description) VALUES ($1, $2)`,
			mig.Version, mig.Description,
		); err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		m.logger.MigrationApplied(mig.Version, mig.Description)
	} else {
		m.logger.MigrationSkipped(mig.Version, mig.Description)
	}
	return applied, nil
}

func (m *Migrator) inLockedTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLockID); err != nil {
		return fmt.Errorf("acquiring migration lock: %w", err)
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// parseMigrations reads NNNNNN_name.up.sql / .down.sql pairs from the
// migrations directory of fsys, sorted by version. a version without an
// up script or a file with another name is an error.
func parseMigrations(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	byVersion := make(map[string]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		parts := migrationFile.FindStringSubmatch(name)
		if parts == nil {
			return nil, fmt.Errorf("unexpected migration file name %q", name)
		}
		version, description, direction := parts[1], parts[2], parts[3]

		// embed.FS always uses forward slash regardless of OS
		content, err := fs.ReadFile(fsys, "migrations/"+name)
		if err != nil {
			return nil, fmt.Errorf("reading migration file %s: %w", name, err)
		}

		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Description: description}
			byVersion[version] = mig
		} else if mig.Description != description {
			return nil, fmt.Errorf("migration %s has mismatched names %q and %q", version, mig.Description, description)
		}

		if direction == "up" {
			mig.UpSQL = string(content)
		} else {
			mig.DownSQL = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		if mig.UpSQL == "" {
			return nil, fmt.Errorf("migration %s has no up script", mig.Version)
		}
		migrations = append(migrations, *mig)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

func pendingVersions(migrations []Migration, applied []string) []string {
	done := make(map[string]struct{}, len(applied))
	for _, v := range applied {
		done[v] = struct{}{}
	}
	pending := []string{}
	for _, mig := range migrations {
		if _, ok := done[mig.Version]; !ok {
			pending = append(pending, mig.Version)
		}
	}
	return pending
}
