// Package seed loads validated catalogue datasets into a relational database
// in foreign-key dependency order.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"ytetl/internal/ddl"
	"ytetl/internal/metrics"
	"ytetl/internal/schema"
	"ytetl/internal/storage"
	"ytetl/internal/validation"
	"ytetl/pkg/records"
)

// ErrReferentialBreak blocks seeding a catalogue whose references do not
// resolve.
var ErrReferentialBreak = errors.New("referential integrity broken")

// Guard refuses to seed when rep found referential breaks, unless force.
func Guard(rep *validation.Report, force bool) error {
	if rep == nil || rep.Summary.ReferentialIntegrityValid || force {
		return nil
	}
	ref := rep.Results.Referential
	return fmt.Errorf("seed: %w: profiles=%d videos=%d video_categories=%d (use --force to load anyway)",
		ErrReferentialBreak, len(ref.InvalidProfiles), len(ref.InvalidVideos), len(ref.InvalidVideoCategories))
}

// Options tunes a Seeder.
type Options struct {
	// BatchSize is the number of rows per CopyFrom call.
	BatchSize int

	// Reset drops and recreates every table before loading.
	Reset bool

	// AutoCreate creates missing tables.
	AutoCreate bool

	// Job labels metrics.
	Job string
}

// Seeder writes datasets through a storage.Repository.
type Seeder struct {
	repo      storage.Repository
	contracts []schema.Contract
	opt       Options
}

// New returns a Seeder over the catalogue contracts.
func New(repo storage.Repository, opt Options) *Seeder {
	if opt.BatchSize <= 0 {
		opt.BatchSize = 500
	}
	return &Seeder{repo: repo, contracts: schema.Catalogue(), opt: opt}
}

// TableResult reports what happened to one table.
type TableResult struct {
	Table      string
	Source     string
	Rows       int64
	Batches    int64
	Duplicates int
	Skipped    bool
}

// Prepare drops (when Reset) and creates (when Reset or AutoCreate) the
// catalogue tables.
func (s *Seeder) Prepare(ctx context.Context) error {
	d := s.repo.Dialect()
	if s.opt.Reset {
		for i := len(s.contracts) - 1; i >= 0; i-- {
			name := s.contracts[i].Name
			if err := s.repo.Exec(ctx, ddl.DropTableSQL(d, name)); err != nil {
				return fmt.Errorf("seed: drop %s: %w", name, err)
			}
		}
		log.Printf("seed: dropped tables=%d", len(s.contracts))
	}
	if !s.opt.Reset && !s.opt.AutoCreate {
		return nil
	}
	for _, c := range s.contracts {
		stmt, err := ddl.BuildCreateTableSQL(d, ddl.FromContract(d, c))
		if err != nil {
			return fmt.Errorf("seed: ddl %s: %w", c.Name, err)
		}
		if err := s.repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("seed: create %s: %w", c.Name, err)
		}
	}
	return nil
}

// Run prepares the tables and loads every dataset present in datasets. Tables
// whose dataset is missing are skipped.
func (s *Seeder) Run(ctx context.Context, datasets map[string]*records.Dataset) ([]TableResult, error) {
	start := time.Now()
	if err := s.Prepare(ctx); err != nil {
		metrics.RecordStep(s.opt.Job, "seed", err, time.Since(start))
		return nil, err
	}

	out := make([]TableResult, 0, len(s.contracts))
	for _, c := range s.contracts {
		ds := datasets[c.Source]
		if ds == nil {
			log.Printf("seed: no dataset table=%s source=%s; skipped", c.Name, c.Source)
			out = append(out, TableResult{Table: c.Name, Source: c.Source, Skipped: true})
			continue
		}
		res, err := s.loadTable(ctx, c, ds)
		out = append(out, res)
		if err != nil {
			metrics.RecordStep(s.opt.Job, "seed", err, time.Since(start))
			return out, err
		}
	}
	metrics.RecordStep(s.opt.Job, "seed", nil, time.Since(start))
	return out, nil
}

func (s *Seeder) loadTable(ctx context.Context, c schema.Contract, ds *records.Dataset) (TableResult, error) {
	start := time.Now()
	res := TableResult{Table: c.Name, Source: c.Source}

	rows, dups, err := buildRows(c, ds)
	if err != nil {
		return res, fmt.Errorf("seed %s: %w", c.Name, err)
	}
	res.Duplicates = dups
	if dups > 0 {
		log.Printf("seed: dropped duplicate keys table=%s count=%d", c.Name, dups)
	}

	cols := c.Columns()
	g, gctx := errgroup.WithContext(ctx)
	in := make(chan []any, s.opt.BatchSize)
	g.Go(func() error {
		defer close(in)
		for _, row := range rows {
			select {
			case in <- row:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var st storage.BatchStats
	g.Go(func() error {
		var err error
		st, err = storage.LoadBatches(gctx, c.Name, cols, in, s.opt.BatchSize,
			func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
				return s.repo.CopyFrom(ctx, c.Name, columns, batch)
			})
		return err
	})
	err = g.Wait()

	res.Rows, res.Batches = st.Rows, st.Batches
	metrics.RecordBatches(s.opt.Job, st.Batches)
	metrics.RecordRow(s.opt.Job, "seeded", st.Rows)
	metrics.RecordStep(s.opt.Job, "seed."+c.Name, err, time.Since(start))
	if err != nil {
		return res, fmt.Errorf("seed %s: %w", c.Name, err)
	}
	log.Printf("seed: loaded table=%s rows=%d batches=%d took=%s", c.Name, st.Rows, st.Batches, time.Since(start).Round(time.Millisecond))
	return res, nil
}

// buildRows maps dataset rows onto contract columns and drops rows repeating
// an already-seen primary key (first occurrence wins). Keys are compared after
// coercion, so 7 and "7" collide just as they would in the database.
func buildRows(c schema.Contract, ds *records.Dataset) ([][]any, int, error) {
	var keyIdx []int
	for i, f := range c.Fields {
		if f.PrimaryKey {
			keyIdx = append(keyIdx, i)
		}
	}

	seen := make(map[uint64]struct{}, ds.Len())
	out := make([][]any, 0, ds.Len())
	dups := 0
	for i, r := range ds.Rows {
		row := make([]any, len(c.Fields))
		for j, f := range c.Fields {
			v, err := coerce(f, r.Get(f.Source))
			if err != nil {
				return nil, 0, fmt.Errorf("row %d: %w", i+1, err)
			}
			row[j] = v
		}
		if h, ok := keyHash(row, keyIdx); ok {
			if _, dup := seen[h]; dup {
				dups++
				continue
			}
			seen[h] = struct{}{}
		}
		out = append(out, row)
	}
	return out, dups, nil
}

// keyHash hashes the key columns of row. Rows without a key, or with a nil
// key component, are not de-duplicated.
func keyHash(row []any, idx []int) (uint64, bool) {
	if len(idx) == 0 {
		return 0, false
	}
	var b strings.Builder
	for i, j := range idx {
		if row[j] == nil {
			return 0, false
		}
		if i > 0 {
			b.WriteByte(0x1f)
		}
		fmt.Fprint(&b, row[j])
	}
	return xxh3.HashString(b.String()), true
}
