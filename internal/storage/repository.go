// Package storage defines the backend-agnostic repository used to seed the
// catalogue and serve it over the API, plus the factory backends register
// with at init time.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"ytetl/internal/ddl"
)

// Repository is the capability set every backend provides.
type Repository interface {
	// CopyFrom bulk-inserts rows aligned to columns into table and returns
	// the number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Exec runs one statement, typically DDL.
	Exec(ctx context.Context, sql string) error

	// DB exposes a database/sql handle for queries.
	DB() *sql.DB

	// Dialect reports the SQL flavour of the backend.
	Dialect() ddl.Dialect

	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for kind.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// New opens a Repository with the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[strings.ToLower(cfg.Kind)]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
