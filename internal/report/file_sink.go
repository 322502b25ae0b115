package report

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"ytetl/internal/validation"
)

// FileSink writes reports into Dir, creating it on demand.
type FileSink struct {
	Dir string
}

// NewFileSink returns a FileSink rooted at dir.
func NewFileSink(dir string) *FileSink { return &FileSink{Dir: dir} }

// Write implements Sink. It returns the absolute path of the written file.
func (s *FileSink) Write(ctx context.Context, rep *validation.Report) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir, err := filepath.Abs(s.Dir)
	if err != nil {
		return "", fmt.Errorf("report: resolve %s: %w", s.Dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("report: create dir: %w", err)
	}
	b, err := Marshal(rep)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, FileName(rep))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return "", fmt.Errorf("report: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("report: rename %s: %w", path, err)
	}
	log.Printf("report: written path=%s run_id=%s", path, rep.RunID)
	return path, nil
}
