package validation

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ytetl/internal/metrics"
	"ytetl/internal/schema"
	"ytetl/pkg/records"
)

// Engine runs the five checks over a set of datasets.
type Engine struct {
	// Schemas declares the expected header of each table.
	Schemas schema.Set

	// Rules names the columns read by the value-domain check.
	Rules ValueRules

	// Parallel runs the checks concurrently.
	Parallel bool

	// Job labels metrics.
	Job string

	// Now stamps the report; time.Now when nil.
	Now func() time.Time
}

// NewEngine returns an Engine over the default schemas and value rules.
func NewEngine() *Engine {
	return &Engine{Schemas: schema.Default(), Rules: DefaultValueRules()}
}

func (e *Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// Run validates datasets and returns a complete Report. It fails with a
// *PreconditionError when a required table is absent, and with the context
// error when ctx ends before the checks finish. Findings are never errors.
func (e *Engine) Run(ctx context.Context, datasets map[string]*records.Dataset) (*Report, error) {
	if err := requireDatasets(datasets); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	get := func(name string) *records.Dataset { return datasets[name] }
	now := e.now()
	schemas := e.Schemas
	if schemas == nil {
		schemas = schema.Default()
	}

	var res Results
	checks := []struct {
		name string
		run  func()
		size func() int
	}{
		{"structure",
			func() { res.Structure = CheckStructure(datasets, schemas) },
			func() int { return countStructure(res.Structure) }},
		{"referential",
			func() {
				res.Referential = CheckReferential(get(schema.Youtubers), get(schema.Profiles),
					get(schema.Videos), get(schema.Categories), get(schema.VideoCategories))
			},
			func() int {
				r := res.Referential
				return len(r.InvalidProfiles) + len(r.InvalidVideos) + len(r.InvalidVideoCategories)
			}},
		{"duplicates",
			func() { res.Duplicates = CheckDuplicates(get(schema.Youtubers), get(schema.VideoCategories)) },
			func() int {
				return len(res.Duplicates.DuplicateChannels) + len(res.Duplicates.DuplicateVideoCategories)
			}},
		{"missing",
			func() {
				res.Missing = CheckMissing(get(schema.Youtubers), get(schema.Profiles),
					get(schema.Videos), get(schema.VideoCategories))
			},
			func() int {
				return len(res.Missing.YoutubersWithoutProfile) + len(res.Missing.VideosWithoutCategories)
			}},
		{"values",
			func() { res.Values = CheckValues(get(schema.Videos), e.Rules, now) },
			func() int {
				return len(res.Values.VideosWithFutureDates) + len(res.Values.VideosWithInvalidMetrics)
			}},
	}

	// Each check writes a distinct field of res.
	timed := func(name string, run func(), size func() int) {
		start := time.Now()
		run()
		n := size()
		metrics.RecordStep(e.Job, "check."+name, nil, time.Since(start))
		metrics.RecordFindings(e.Job, name, n)
		log.Printf("validation: check=%s findings=%d took=%s", name, n, time.Since(start).Round(time.Microsecond))
	}

	if e.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		for _, c := range checks {
			c := c
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				timed(c.name, c.run, c.size)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for _, c := range checks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			timed(c.name, c.run, c.size)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := Assemble(now, res)
	rep.Sources = sources(datasets)
	return rep, nil
}

func requireDatasets(datasets map[string]*records.Dataset) error {
	var missing []string
	for _, name := range schema.Required() {
		if datasets[name] == nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &PreconditionError{Missing: missing}
	}
	return nil
}

func countStructure(m map[string]StructureResult) int {
	n := 0
	for _, s := range m {
		if !s.ColumnsMatch {
			n++
		}
	}
	return n
}

func sources(datasets map[string]*records.Dataset) []Source {
	out := make([]Source, 0, len(datasets))
	for name, ds := range datasets {
		if ds == nil {
			continue
		}
		w := ds.Warnings
		if w == nil {
			w = []records.Warning{}
		}
		out = append(out, Source{
			Table:       strings.ToLower(name),
			Path:        ds.Path,
			Rows:        ds.Len(),
			Warnings:    w,
			Fingerprint: ds.Fingerprint,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}
