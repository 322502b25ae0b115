package ingest

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"ytetl/internal/config"
	"ytetl/internal/datasource/file"
	"ytetl/internal/datasource/httpds"
)

// Paths is the resolved directory layout of a run.
type Paths struct {
	DataDir   string
	OutputDir string
	Entries   []file.Entry
}

// VerifyPaths creates the output directory when missing, then resolves and
// lists the data directory. A remote data directory is not listed. Each step
// is logged so a misconfigured layout is visible before validation starts.
func VerifyPaths(cfg config.Config) (Paths, error) {
	var p Paths
	var err error

	if p.OutputDir, err = filepath.Abs(cfg.OutputDir); err != nil {
		return p, fmt.Errorf("resolve output dir: %w", err)
	}
	log.Printf("paths: output_dir=%s", p.OutputDir)
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return p, fmt.Errorf("create output dir: %w", err)
	}

	if httpds.IsURL(cfg.DataDir) {
		p.DataDir = cfg.DataDir
		log.Printf("paths: data_dir=%s (remote, not listed)", p.DataDir)
		return p, nil
	}
	if p.DataDir, err = filepath.Abs(cfg.DataDir); err != nil {
		return p, fmt.Errorf("resolve data dir: %w", err)
	}
	log.Printf("paths: data_dir=%s", p.DataDir)

	p.Entries, err = file.ListDir(p.DataDir)
	if err != nil {
		return p, &SourceError{Table: "*", Path: p.DataDir, Err: err}
	}
	for _, e := range p.Entries {
		if e.IsDir {
			log.Printf("paths:   %s/", e.Name)
			continue
		}
		log.Printf("paths:   %s (%s)", e.Name, humanize.Bytes(uint64(e.Size)))
	}
	for _, t := range cfg.Tables {
		ok, _, err := file.NewLocal(filepath.Join(p.DataDir, t.File)).Stat()
		if err != nil {
			return p, err
		}
		if !ok {
			log.Printf("paths: table=%s file=%s missing required=%t", t.Name, t.File, t.Required)
		}
	}
	return p, nil
}
