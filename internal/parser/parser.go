// Package parser defines the contract between raw table bytes and datasets.
package parser

import (
	"io"

	"ytetl/pkg/records"
)

// Parser turns one table's bytes into a Dataset.
type Parser interface {
	Parse(r io.Reader) (*records.Dataset, error)
}
