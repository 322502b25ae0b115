package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingDataset reports that a check's input dataset is absent.
var ErrMissingDataset = errors.New("missing dataset")

// PreconditionError names the datasets a run could not proceed without.
type PreconditionError struct {
	Missing []string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("validation precondition: %v: %s", ErrMissingDataset, strings.Join(e.Missing, ", "))
}

func (e *PreconditionError) Unwrap() error { return ErrMissingDataset }
