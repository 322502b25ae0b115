// Package csv parses delimited catalogue files into records.Dataset values.
//
// The first non-empty line is the header. Cells are typed on the fly: numeric
// literals become numbers, true/false (any of the usual casings) become bools,
// empty cells become null and everything else stays a string. Lines that cannot
// be read are skipped; lines with the wrong width are kept. Both are recorded
// as warnings on the Dataset rather than failing the file.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"ytetl/internal/config"
	"ytetl/pkg/records"
)

// Options configures the CSV parser. Zero values select defaults.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each cell before typing.
	TrimSpace bool

	// MaxWarnings caps how many warnings are logged per file. All warnings
	// are still recorded on the Dataset. Zero means 20.
	MaxWarnings int

	// HeaderMap renames source headers (after normalization) to canonical
	// field names.
	HeaderMap map[string]string

	// Verbose logs every warning regardless of MaxWarnings.
	Verbose bool
}

// OptionsFrom reads parser options from a config options bag:
// comma (string), trim_space (bool), max_warnings (int), verbose (bool) and
// header_map (source header to field name).
func OptionsFrom(o config.Options) Options {
	return Options{
		Comma:       o.Rune("comma", ','),
		TrimSpace:   o.Bool("trim_space", false),
		MaxWarnings: o.Int("max_warnings", 20),
		HeaderMap:   o.StringMap("header_map"),
		Verbose:     o.Bool("verbose", false),
	}
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs and holds no per-input state.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	if opt.MaxWarnings <= 0 {
		opt.MaxWarnings = 20
	}
	return &Parser{opt: opt}
}

// Parse consumes r and returns the parsed Dataset. Name and Path are left for
// the caller to fill in.
//
// An input with no header line yields a Dataset whose Fields is nil plus a
// warning. A header that cannot be read is returned as a *ParseError wrapping
// ErrMalformed.
func (p *Parser) Parse(r io.Reader) (*records.Dataset, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true

	ds := &records.Dataset{Rows: []records.Record{}, Warnings: []records.Warning{}}

	h, err := cr.Read()
	if err == io.EOF {
		ds.Warnings = append(ds.Warnings, records.Warning{Line: 1, Message: "no header line"})
		return ds, nil
	}
	if err != nil {
		line := 1
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			line = pe.StartLine
		}
		return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: header: %v", ErrMalformed, err)}
	}
	ds.Fields = normalizeHeaders(h, p.opt.HeaderMap)

	logged := 0
	warn := func(line int, msg string) {
		ds.Warnings = append(ds.Warnings, records.Warning{Line: line, Message: msg})
		if p.opt.Verbose || logged < p.opt.MaxWarnings {
			log.Printf("csv: line %d: %s", line, msg)
		}
		logged++
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				line = pe.StartLine
			}
			warn(line, fmt.Sprintf("skipped: %v", err))
			continue
		}
		line, _ := cr.FieldPos(0)
		if isBlank(row) {
			continue
		}

		switch {
		case len(row) < len(ds.Fields):
			warn(line, fmt.Sprintf("too few fields: expected %d, got %d", len(ds.Fields), len(row)))
		case len(row) > len(ds.Fields):
			warn(line, fmt.Sprintf("too many fields: expected %d, got %d", len(ds.Fields), len(row)))
		}

		rec := make(records.Record, len(ds.Fields))
		for i, cell := range row {
			if i >= len(ds.Fields) {
				break
			}
			if p.opt.TrimSpace {
				cell = strings.TrimSpace(cell)
			}
			rec[ds.Fields[i]] = Infer(cell)
		}
		ds.Rows = append(ds.Rows, rec)
	}

	if logged > p.opt.MaxWarnings && !p.opt.Verbose {
		log.Printf("csv: %d further warnings not logged", logged-p.opt.MaxWarnings)
	}
	return ds, nil
}

// isBlank reports whether a row is a single empty cell, which encoding/csv
// yields for whitespace-only lines.
func isBlank(row []string) bool {
	return len(row) == 1 && strings.TrimSpace(row[0]) == ""
}
