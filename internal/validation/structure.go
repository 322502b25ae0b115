package validation

import (
	"strings"

	"ytetl/internal/schema"
	"ytetl/pkg/records"
)

// CheckStructure compares each dataset's header with its declared schema.
//
// Comparison is case-insensitive and set-based: column order and duplicate
// header names do not matter. Missing and extra columns are reported
// lower-cased, in declaration order and header order respectively. Datasets
// with no declared schema are skipped, as are declared tables with no dataset.
func CheckStructure(datasets map[string]*records.Dataset, schemas schema.Set) map[string]StructureResult {
	out := make(map[string]StructureResult, len(datasets))
	for name, ds := range datasets {
		if ds == nil {
			continue
		}
		tbl, ok := schemas.Lookup(name)
		if !ok {
			continue
		}
		out[strings.ToLower(name)] = compareColumns(tbl.Fields, ds)
	}
	return out
}

func compareColumns(expected []string, ds *records.Dataset) StructureResult {
	exp := lowerAll(expected)
	if !ds.HasFields() {
		return StructureResult{
			ColumnsMatch:   false,
			MissingColumns: exp,
			ExtraColumns:   []string{},
			RowCount:       ds.Len(),
			Error:          ParseErrorMarker,
		}
	}
	act := lowerAll(ds.Fields)

	missing := difference(exp, act)
	extra := difference(act, exp)
	return StructureResult{
		ColumnsMatch:   len(missing) == 0 && len(extra) == 0,
		MissingColumns: missing,
		ExtraColumns:   extra,
		RowCount:       ds.Len(),
	}
}

// difference returns the members of a not present in b, first occurrence
// only, in a's order.
func difference(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}
	seen := make(map[string]struct{}, len(a))
	out := []string{}
	for _, s := range a {
		if _, ok := inB[s]; ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
