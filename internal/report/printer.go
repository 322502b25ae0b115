package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"ytetl/internal/ingest"
	pcsv "ytetl/internal/parser/csv"
	"ytetl/internal/validation"
	"ytetl/pkg/records"
)

const rule = "========================================"

// IsFatal reports whether err prevented validation from running at all, as
// opposed to an infrastructure failure after the report was built.
func IsFatal(err error) bool {
	return errors.Is(err, ingest.ErrSourceMissing) ||
		errors.Is(err, pcsv.ErrMalformed) ||
		errors.Is(err, validation.ErrMissingDataset)
}

// ExitCode maps a finished run to a process exit code: 0 when the report
// passes, 1 otherwise.
func ExitCode(rep *validation.Report, failOnValues bool) int {
	if rep == nil || !rep.Passed(failOnValues) {
		return 1
	}
	return 0
}

// Printer renders reports for a terminal.
type Printer struct {
	w io.Writer

	// MaxItems caps the rows listed per category. Zero lists all.
	MaxItems int
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer { return &Printer{w: w, MaxItems: 50} }

// Print writes the summary as JSON, then a breakdown of every failing
// dimension. Value findings are listed as warnings.
func (p *Printer) Print(rep *validation.Report, location string) error {
	sum, err := json.MarshalIndent(rep.Summary, "", "  ")
	if err != nil {
		return fmt.Errorf("report: marshal summary: %w", err)
	}
	fmt.Fprintf(p.w, "Validation summary (run %s):\n%s\n", rep.RunID, sum)
	if location != "" {
		fmt.Fprintf(p.w, "Report: %s\n", location)
	}

	if rep.Summary.Clean() && !rep.HasValueFindings() {
		fmt.Fprintf(p.w, "\nAll checks passed.\n")
		return nil
	}

	fmt.Fprintf(p.w, "\n%s\nValidation Findings\n%s\n", rule, rule)
	res := rep.Results

	if !rep.Summary.StructureValid {
		fmt.Fprintf(p.w, "\nStructure:\n")
		names := make([]string, 0, len(res.Structure))
		for n := range res.Structure {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			s := res.Structure[n]
			if s.ColumnsMatch {
				continue
			}
			fmt.Fprintf(p.w, "  %-17s rows=%d\n", n, s.RowCount)
			if s.Error != "" {
				fmt.Fprintf(p.w, "    error:   %s\n", s.Error)
			}
			if len(s.MissingColumns) > 0 {
				fmt.Fprintf(p.w, "    missing: %s\n", strings.Join(s.MissingColumns, ", "))
			}
			if len(s.ExtraColumns) > 0 {
				fmt.Fprintf(p.w, "    extra:   %s\n", strings.Join(s.ExtraColumns, ", "))
			}
		}
	}

	if !rep.Summary.ReferentialIntegrityValid {
		fmt.Fprintf(p.w, "\nReferential integrity:\n")
		p.list("profiles with unknown youtuber", res.Referential.InvalidProfiles, idOf("id", "youtuber_id"))
		p.list("videos with unknown youtuber", res.Referential.InvalidVideos, idOf("id", "youtuber_id"))
		p.list("video categories with unknown video or category", res.Referential.InvalidVideoCategories, linkOf)
	}

	if rep.Summary.HasDuplicates {
		fmt.Fprintf(p.w, "\nDuplicates:\n")
		p.groups("channel names", res.Duplicates.DuplicateChannels)
		p.groups("video categories", res.Duplicates.DuplicateVideoCategories)
	}

	if rep.Summary.HasMissingData {
		fmt.Fprintf(p.w, "\nMissing data:\n")
		p.list("youtubers without profile", res.Missing.YoutubersWithoutProfile, idOf("id"))
		p.list("videos without categories", res.Missing.VideosWithoutCategories, idOf("id"))
	}

	if rep.HasValueFindings() {
		fmt.Fprintf(p.w, "\nWarnings:\n")
		p.list("videos with future publication date", res.Values.VideosWithFutureDates, idOf("id"))
		p.list("videos with invalid views/likes", res.Values.VideosWithInvalidMetrics, idOf("id"))
	}

	fmt.Fprintf(p.w, "\n%s\n", rule)
	return nil
}

// PrintFatal reports an error that stopped validation before a report could
// be produced.
func (p *Printer) PrintFatal(err error) {
	fmt.Fprintf(p.w, "\n%s\nCould not validate\n%s\n", rule, rule)
	fmt.Fprintf(p.w, "  %v\n", err)
	var se *ingest.SourceError
	if errors.As(err, &se) {
		fmt.Fprintf(p.w, "  Table: %s\n  Path:  %s\n", se.Table, se.Path)
	}
	var pe *pcsv.ParseError
	if errors.As(err, &pe) {
		fmt.Fprintf(p.w, "  File:  %s\n  Line:  %d\n", pe.Path, pe.Line)
	}
	fmt.Fprintf(p.w, "No report was written.\n%s\n", rule)
}

func (p *Printer) list(title string, rows []records.Record, label func(records.Record) string) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(p.w, "  %s (%d):\n", title, len(rows))
	for i, r := range rows {
		if p.MaxItems > 0 && i >= p.MaxItems {
			fmt.Fprintf(p.w, "    ... and %d more\n", len(rows)-i)
			break
		}
		fmt.Fprintf(p.w, "    - %s\n", label(r))
	}
}

func (p *Printer) groups(title string, g validation.Groups) {
	if len(g) == 0 {
		return
	}
	keys := make([]string, 0, len(g))
	for k := range g {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintf(p.w, "  %s (%d):\n", title, len(g))
	for _, k := range keys {
		fmt.Fprintf(p.w, "    - %q x%d\n", k, len(g[k]))
	}
}

// idOf labels a row by the given fields, e.g. "id=3 youtuber_id=999".
func idOf(fields ...string) func(records.Record) string {
	return func(r records.Record) string {
		parts := make([]string, 0, len(fields))
		for _, f := range fields {
			parts = append(parts, f+"="+display(r.Get(f)))
		}
		return strings.Join(parts, " ")
	}
}

func linkOf(r records.Record) string {
	return idOf("video_id", "category_id")(r)
}

func display(v records.Value) string {
	if !v.IsPresent() {
		return "<empty>"
	}
	return v.Text()
}
