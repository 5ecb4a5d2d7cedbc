// Package storedb opens SQLite databases and applies per-module schema
// migrations.
package storedb

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jingkaihe/hushprint/internal/errx"
)

var (
	ErrOpen      = errors.New("open database")
	ErrMigrate   = errors.New("migrate database")
	ErrMigration = errors.New("invalid migration")
)

// Migration is one schema step. Versions are per module and applied in
// ascending order; each runs in its own transaction.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

type OpenOptions struct {
	Path string
	// Module namespaces the migration history so several packages can
	// share one database file.
	Module     string
	Migrations []Migration
}

// Open creates the parent directory, opens the database and applies any
// migration newer than the recorded version for the module.
func Open(opts OpenOptions) (*sql.DB, error) {
	if opts.Path == "" {
		return nil, errx.With(ErrOpen, ": empty path")
	}
	if opts.Module == "" {
		return nil, errx.With(ErrOpen, ": empty module")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, errx.With(ErrOpen, ": create directory: %w", err)
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, errx.Wrap(ErrOpen, err)
	}
	// SQLite has a single writer.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errx.With(ErrOpen, ": %s: %w", pragma, err)
		}
	}

	if err := migrate(db, opts.Module, opts.Migrations); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// CurrentVersion returns the highest applied migration version for module,
// or 0 when none has run.
func CurrentVersion(db *sql.DB, module string) (int, error) {
	var version sql.NullInt64
	err := db.QueryRow(`SELECT MAX(version) FROM schema_migrations WHERE module = ?`, module).Scan(&version)
	if err != nil {
		return 0, errx.With(ErrMigrate, ": read version: %w", err)
	}
	return int(version.Int64), nil
}

func migrate(db *sql.DB, module string, migrations []Migration) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  module TEXT NOT NULL,
  version INTEGER NOT NULL,
  name TEXT NOT NULL,
  applied_at TEXT NOT NULL,
  PRIMARY KEY (module, version)
)`); err != nil {
		return errx.With(ErrMigrate, ": create schema_migrations: %w", err)
	}

	sorted := append([]Migration(nil), migrations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })
	for i, m := range sorted {
		if m.Version <= 0 {
			return errx.With(ErrMigration, ": %s/%s: version must be positive", module, m.Name)
		}
		if i > 0 && sorted[i-1].Version == m.Version {
			return errx.With(ErrMigration, ": %s: duplicate version %d", module, m.Version)
		}
	}

	current, err := CurrentVersion(db, module)
	if err != nil {
		return err
	}

	for _, m := range sorted {
		if m.Version <= current {
			continue
		}
		if err := apply(db, module, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(db *sql.DB, module string, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return errx.With(ErrMigrate, ": begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.SQL); err != nil {
		return errx.With(ErrMigrate, ": %s %d (%s): %w", module, m.Version, m.Name, err)
	}
	if _, err := tx.Exec(
		`INSERT INTO schema_migrations(module, version, name, applied_at) VALUES (?, ?, ?, ?)`,
		module,
		m.Version,
		m.Name,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return errx.With(ErrMigrate, ": record %s %d: %w", module, m.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return errx.With(ErrMigrate, ": commit %s %d: %w", module, m.Version, err)
	}
	return nil
}
