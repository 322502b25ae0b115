// Package ingest reads the configured table files and parses them into
// datasets keyed by table name.
package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"ytetl/internal/config"
	"ytetl/internal/datasource"
	"ytetl/internal/datasource/file"
	"ytetl/internal/datasource/httpds"
	"ytetl/internal/metrics"
	"ytetl/internal/parser"
	pcsv "ytetl/internal/parser/csv"
	"ytetl/pkg/records"
)

// Loader reads table files from Dir.
type Loader struct {
	// Dir is the directory table files are resolved against. An http(s) URL
	// fetches the tables remotely.
	Dir string

	// Parser turns file bytes into datasets.
	Parser parser.Parser

	// ReadTimeout bounds reading one file. Zero disables it.
	ReadTimeout time.Duration

	// Job labels metrics.
	Job string

	// HTTP fetches tables when Dir is a URL.
	HTTP *httpds.Client

	// open resolves a path to a source; tests replace it.
	open func(path string) datasource.Source
}

// NewLoader builds a Loader from cfg.
func NewLoader(cfg config.Config) *Loader {
	return &Loader{
		Dir:         cfg.DataDir,
		Parser:      pcsv.NewParser(pcsv.OptionsFrom(cfg.Parser.Options)),
		ReadTimeout: cfg.Runtime.ReadTimeout.D(),
		Job:         cfg.Job,
		HTTP: httpds.NewClient(httpds.Config{
			Timeout:    cfg.Runtime.ReadTimeout.D(),
			MaxRetries: cfg.Runtime.HTTPRetries,
		}),
	}
}

func (l *Loader) source(path string) datasource.Source {
	if l.open != nil {
		return l.open(path)
	}
	if httpds.IsURL(path) {
		return httpds.NewSource(l.HTTP, path)
	}
	return file.NewLocal(path)
}

// locate resolves name against Dir.
func (l *Loader) locate(name string) (string, error) {
	if httpds.IsURL(l.Dir) {
		return httpds.JoinURL(l.Dir, name)
	}
	return filepath.Join(l.Dir, name), nil
}

// Load reads every table concurrently. A missing required file aborts the
// whole load with a *SourceError wrapping ErrSourceMissing; a missing optional
// file is skipped. Any other read or parse failure is returned as is.
func (l *Loader) Load(ctx context.Context, tables []config.Table) (map[string]*records.Dataset, error) {
	start := time.Now()
	var (
		mu  sync.Mutex
		out = make(map[string]*records.Dataset, len(tables))
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tables {
		t := t
		g.Go(func() error {
			ds, err := l.loadOne(gctx, t)
			if err != nil {
				if errors.Is(err, ErrSourceMissing) && !t.Required {
					log.Printf("ingest: optional table skipped table=%s reason=%v", t.Name, err)
					return nil
				}
				return err
			}
			mu.Lock()
			out[t.Name] = ds
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	metrics.RecordStep(l.Job, "ingest", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (l *Loader) loadOne(ctx context.Context, t config.Table) (*records.Dataset, error) {
	path, err := l.locate(t.File)
	if err != nil {
		return nil, &SourceError{Table: t.Name, Path: l.Dir, Err: err}
	}
	src := l.source(path)

	if l.ReadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.ReadTimeout)
		defer cancel()
	}

	rc, err := src.Open(ctx)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &SourceError{Table: t.Name, Path: src.Location(), Err: ErrSourceMissing}
		}
		return nil, &SourceError{Table: t.Name, Path: src.Location(), Err: err}
	}
	defer rc.Close()

	raw, err := io.ReadAll(&ctxReader{ctx: ctx, r: rc})
	if err != nil {
		return nil, &SourceError{Table: t.Name, Path: src.Location(), Err: fmt.Errorf("read: %w", err)}
	}

	ds, err := l.Parser.Parse(bytes.NewReader(raw))
	if err != nil {
		var pe *pcsv.ParseError
		if errors.As(err, &pe) && pe.Path == "" {
			pe.Path = src.Location()
		}
		return nil, fmt.Errorf("ingest %s: %w", t.Name, err)
	}
	ds.Name = t.Name
	ds.Path = src.Location()
	ds.Size = int64(len(raw))
	ds.Fingerprint = fmt.Sprintf("%016x", xxh3.Hash(raw))

	log.Printf("ingest: loaded table=%s rows=%d warnings=%d size=%s path=%s",
		t.Name, ds.Len(), len(ds.Warnings), humanize.Bytes(uint64(ds.Size)), ds.Path)
	metrics.RecordRow(l.Job, "parsed", int64(ds.Len()))
	metrics.RecordRow(l.Job, "warnings", int64(len(ds.Warnings)))
	return ds, nil
}

// ctxReader fails reads once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
