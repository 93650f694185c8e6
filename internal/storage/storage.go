// Package storage implements LogLens's embedded, file-backed storage
// engine (C9), per spec.md §4.9: forward-only idempotent migrations and
// prepared, bound queries over projects, log files, analyses, analysis
// results, and streaming sources. Query shapes are ported from the
// original implementation's sqlx query builder to database/sql prepared
// statements.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/loglens/loglens/internal/clierr"
	"github.com/loglens/loglens/internal/logx"
)

// Store is the embedded storage engine. The core treats it as
// single-writer with many readers: writers serialize through short
// transactions via db's own connection-pool semantics, configured below
// to cap write concurrency.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the SQLite database at path and applies
// schema migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, clierr.Wrap(clierr.KindStorage, "failed to open database", err)
	}
	// modernc.org/sqlite does not support concurrent writers; keep one
	// write connection and let readers share it too, matching the
	// single-writer-many-readers model spec.md §4.9 prescribes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return clierr.Wrap(clierr.KindStorage, "schema migration failed", err)
		}
	}

	for _, m := range columnMigrations {
		has, err := s.hasColumn(ctx, m.table, m.column)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		logx.Log().Info().Str("table", m.table).Str("column", m.column).Msg("applying schema migration")
		if _, err := s.db.ExecContext(ctx, m.ddl); err != nil {
			return clierr.Wrap(clierr.KindStorage, fmt.Sprintf("failed to add column %s.%s", m.table, m.column), err)
		}
	}
	return nil
}

func (s *Store) hasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, clierr.Wrap(clierr.KindStorage, "failed to inspect table schema", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull int
		var dfltValue sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return false, clierr.Wrap(clierr.KindStorage, "failed to scan table_info row", err)
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
