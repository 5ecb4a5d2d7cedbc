// Package store persists the hook list on the server: a user override kept
// in SQLite on top of a read-only defaults file.
package store

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jingkaihe/hushprint/internal/errx"
	"github.com/jingkaihe/hushprint/pkg/hooks"
	"github.com/jingkaihe/hushprint/pkg/storedb"
)

const storeModule = "hooks"

// DefaultDBPath is the database location used when Options.DBPath is empty.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "hushprint", "hooks.db")
}

func storeMigrations() []storedb.Migration {
	return []storedb.Migration{
		{
			Version: 1,
			Name:    "create_user_hooks",
			SQL: `
CREATE TABLE IF NOT EXISTS user_override (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_hooks (
  position INTEGER PRIMARY KEY,
  node TEXT NOT NULL,
  method TEXT NOT NULL,
  enabled INTEGER NOT NULL DEFAULT 1,
  UNIQUE (node, method)
);
`,
		},
	}
}

type Options struct {
	DBPath       string
	DefaultsPath string
	Logger       *slog.Logger
}

// Store resolves the effective hook list: the user override when one has
// been saved, else the defaults file. Saving an empty list is an override
// too; only Reset returns to the defaults.
type Store struct {
	db           *sql.DB
	defaultsPath string
	logger       *slog.Logger
}

func Open(opts Options) (*Store, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	path := opts.DBPath
	if path == "" {
		path = DefaultDBPath()
	}

	db, err := storedb.Open(storedb.OpenOptions{
		Path:       path,
		Module:     storeModule,
		Migrations: storeMigrations(),
	})
	if err != nil {
		return nil, errx.Wrap(ErrOpen, err)
	}
	return &Store{
		db:           db,
		defaultsPath: opts.DefaultsPath,
		logger:       logger.With("component", "store"),
	}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Defaults reads the defaults file. It is re-read on every call.
func (s *Store) Defaults() hooks.List {
	return LoadDefaults(s.defaultsPath, s.logger)
}

// Load returns the effective list. An unreadable override is logged and
// the defaults are returned instead.
func (s *Store) Load(ctx context.Context) hooks.List {
	list, ok, err := s.userHooks(ctx)
	if err != nil {
		s.logger.Warn("failed to load user hooks, falling back to defaults", "error", err)
		return s.Defaults()
	}
	if !ok {
		return s.Defaults()
	}
	return list
}

// HasOverride reports whether a user list has been saved.
func (s *Store) HasOverride(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_override`).Scan(&n); err != nil {
		return false, errx.With(ErrStoreRead, ": read override marker: %w", err)
	}
	return n > 0, nil
}

func (s *Store) userHooks(ctx context.Context) (hooks.List, bool, error) {
	ok, err := s.HasOverride(ctx)
	if err != nil || !ok {
		return nil, false, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT node, method, enabled FROM user_hooks ORDER BY position`)
	if err != nil {
		return nil, false, errx.With(ErrStoreRead, ": query user hooks: %w", err)
	}
	defer rows.Close()

	list := hooks.List{}
	for rows.Next() {
		var e hooks.Entry
		if err := rows.Scan(&e.Owner, &e.Member, &e.Enabled); err != nil {
			return nil, false, errx.With(ErrStoreRead, ": scan user hook: %w", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, errx.With(ErrStoreRead, ": iterate user hooks: %w", err)
	}
	return list, true, nil
}

// Replace overwrites the user override with list. Entries are normalized
// first; the stored list is returned.
func (s *Store) Replace(ctx context.Context, list hooks.List) (hooks.List, error) {
	list = hooks.Normalize(list)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errx.With(ErrStoreSave, ": begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_hooks`); err != nil {
		return nil, errx.With(ErrStoreSave, ": clear user hooks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO user_hooks(position, node, method, enabled) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, errx.With(ErrStoreSave, ": prepare hook insert: %w", err)
	}
	defer stmt.Close()

	for position, e := range list {
		if _, err := stmt.ExecContext(ctx, position, e.Owner, e.Member, e.Enabled); err != nil {
			return nil, errx.With(ErrStoreSave, ": insert hook %s: %w", e, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO user_override(id, updated_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return nil, errx.With(ErrStoreSave, ": mark override: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, errx.With(ErrStoreSave, ": commit user hooks: %w", err)
	}
	return list, nil
}

// Reset deletes the user override and returns the defaults now in effect.
func (s *Store) Reset(ctx context.Context) (hooks.List, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errx.With(ErrStoreSave, ": begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_hooks`); err != nil {
		return nil, errx.With(ErrStoreSave, ": clear user hooks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_override`); err != nil {
		return nil, errx.With(ErrStoreSave, ": clear override marker: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, errx.With(ErrStoreSave, ": commit reset: %w", err)
	}
	return s.Defaults(), nil
}
