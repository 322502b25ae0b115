// Package datasource abstracts where table bytes come from.
package datasource

import (
	"context"
	"io"
)

// Source yields the raw bytes of one table.
type Source interface {
	// Open returns a reader over the table bytes. The caller closes it.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Location identifies the source in reports and error messages.
	Location() string
}
