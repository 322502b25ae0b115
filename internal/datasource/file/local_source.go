// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// Local is a filesystem data source bound to one path.
type Local struct{ path string }

// NewLocal returns a Local for path. The path is made absolute when possible
// so reports and errors carry the resolved location.
func NewLocal(path string) *Local {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Local{path: path}
}

// Location returns the resolved path.
func (l *Local) Location() string { return l.path }

// Open opens the configured path for reading.
//
// A context that is already done short-circuits without touching the
// filesystem. Filesystem errors are wrapped with the path and remain
// matchable with errors.Is (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Stat reports whether the path exists as a regular file and its size.
func (l *Local) Stat() (exists bool, size int64, err error) {
	fi, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("stat %s: %w", l.path, err)
	}
	if fi.IsDir() {
		return false, 0, nil
	}
	return true, fi.Size(), nil
}

// Entry is one item of a directory listing.
type Entry struct {
	Name  string
	Size  int64
	IsDir bool
}

// ListDir returns the entries of dir sorted by name.
func ListDir(dir string) ([]Entry, error) {
	des, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	out := make([]Entry, 0, len(des))
	for _, de := range des {
		e := Entry{Name: de.Name(), IsDir: de.IsDir()}
		if info, err := de.Info(); err == nil {
			e.Size = info.Size()
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
