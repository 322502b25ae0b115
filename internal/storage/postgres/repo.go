// Package postgres implements storage.Repository on pgx v5. Batches go
// through the COPY protocol on a pgxpool; queries share the same pool through
// the pgx database/sql adapter.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"ytetl/internal/ddl"
	"ytetl/internal/storage"
)

// copier is the subset of *pgxpool.Pool used for writes.
type copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository is a Postgres-backed storage.Repository.
type Repository struct {
	pool    copier
	db      *sql.DB
	closeFn func()
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository connects to dsn and pings the server.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)
	return &Repository{
		pool: pool,
		db:   db,
		closeFn: func() {
			_ = db.Close()
			pool.Close()
		},
	}, nil
}

// DB implements storage.Repository.
func (r *Repository) DB() *sql.DB { return r.db }

// Dialect implements storage.Repository.
func (r *Repository) Dialect() ddl.Dialect { return ddl.Postgres }

// Close implements storage.Repository.
func (r *Repository) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
}

// CopyFrom implements storage.Repository with COPY FROM STDIN.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := r.pool.CopyFrom(ctx, splitFQN(table), columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return n, fmt.Errorf("postgres: copy into %s: %s (%s): %w", table, pgErr.Detail, pgErr.SQLState(), err)
		}
		return n, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return n, nil
}

// Exec implements storage.Repository.
func (r *Repository) Exec(ctx context.Context, query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if _, err := r.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// splitFQN converts "schema.table" into a pgx.Identifier {"schema","table"}.
func splitFQN(fqn string) pgx.Identifier {
	parts := strings.Split(fqn, ".")
	id := make(pgx.Identifier, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			id = append(id, p)
		}
	}
	return id
}

func init() {
	storage.Register(string(ddl.Postgres), func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return NewRepository(ctx, cfg.DSN)
	})
}
