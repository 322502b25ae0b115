// Package sqlite implements storage.Repository on modernc.org/sqlite. Batches
// are inserted inside one transaction through a prepared statement; SQLite has
// no bulk-load API like COPY.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"ytetl/internal/ddl"
	"ytetl/internal/storage"
)

// Repository is a SQLite-backed storage.Repository.
type Repository struct {
	db *sql.DB
}

var _ storage.Repository = (*Repository)(nil)

// Open opens dsn with foreign keys enforced. The pool is limited to one
// connection so ":memory:" databases are shared by every query.
func Open(dsn string) (*sql.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return db, nil
}

// NewRepository opens dsn and pings it.
//
//	"file:catalogue.db"
//	":memory:"
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	db, err := Open(dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repository{db: db}, nil
}

// New wraps an open handle.
func New(db *sql.DB) *Repository { return &Repository{db: db} }

// DB implements storage.Repository.
func (r *Repository) DB() *sql.DB { return r.db }

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return ddl.SQLite }

// Close implements storage.Repository.
func (r *Repository) Close() { _ = r.db.Close() }

// CopyFrom inserts rows in one transaction. Either every row lands or none.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, ddl.InsertSQL(ddl.SQLite, table, columns))
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	var inserted int64
	for i, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: CopyFrom: row %d length %d != columns length %d", i, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: insert into %s row %d: %w", table, i, err)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return inserted, nil
}

// Exec implements storage.Repository.
func (r *Repository) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

func init() {
	storage.Register(string(ddl.SQLite), func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}
