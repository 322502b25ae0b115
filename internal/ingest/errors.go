package ingest

import (
	"errors"
	"fmt"
)

// ErrSourceMissing reports a required table file that does not exist.
var ErrSourceMissing = errors.New("source missing")

// SourceError carries the table and the resolved path that failed to load.
type SourceError struct {
	Table string
	Path  string
	Err   error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("ingest %s: %s: %v", e.Table, e.Path, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }
