package csv

import (
	"errors"
	"fmt"
)

// ErrMalformed reports input that cannot be parsed into a header and rows.
var ErrMalformed = errors.New("malformed csv")

// ParseError carries the location of a fatal parse failure.
type ParseError struct {
	// Path is the file being parsed, when known.
	Path string

	// Line is the 1-based line where parsing failed.
	Line int

	Err error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("parse line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
