package records

import "strings"

// Record is one parsed row: field name to cell value.
type Record map[string]Value

// Get returns the value for field. An exact key match wins; otherwise the
// first case-insensitive match is used. Missing fields yield an absent Value.
func (r Record) Get(field string) Value {
	if v, ok := r[field]; ok {
		return v
	}
	for k, v := range r {
		if strings.EqualFold(k, field) {
			return v
		}
	}
	return Value{}
}

// Warning describes a recoverable problem found while parsing one line.
type Warning struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// Dataset is the parsed content of one table file. It is built once by the
// parser and only read afterwards.
type Dataset struct {
	// Name is the logical table name (e.g. "youtubers").
	Name string

	// Path is the resolved file path the rows were read from.
	Path string

	// Fields holds the header names in file order. It is nil when the file
	// had no recognizable header.
	Fields []string

	// Rows holds the data rows in file order.
	Rows []Record

	// Warnings lists skipped or suspicious lines.
	Warnings []Warning

	// Fingerprint is a hex content hash of the raw bytes.
	Fingerprint string

	// Size is the number of raw bytes read.
	Size int64
}

// Len returns the number of data rows, tolerating a nil receiver.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// HasFields reports whether header metadata was recognized.
func (d *Dataset) HasFields() bool {
	return d != nil && d.Fields != nil
}
