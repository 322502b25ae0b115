package seed

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"ytetl/internal/schema"
	"ytetl/internal/validation"
	"ytetl/pkg/records"
)

// coerce converts a cell into the driver value for a contract field. Absent
// and null cells become nil; the database enforces NOT NULL.
func coerce(f schema.Field, v records.Value) (any, error) {
	if !v.IsPresent() {
		return nil, nil
	}
	switch strings.ToLower(f.Type) {
	case "int", "integer", "bigint":
		if n, ok := v.AsNumber(); ok {
			if n != math.Trunc(n) {
				return nil, fmt.Errorf("column %s: %v is not an integer", f.Name, n)
			}
			return int64(n), nil
		}
		if s, ok := v.AsString(); ok {
			if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
				return n, nil
			}
		}
		return nil, fmt.Errorf("column %s: %q is not an integer", f.Name, v.Text())
	case "date":
		t, ok := validation.ParseDate(v)
		if !ok {
			return nil, fmt.Errorf("column %s: %q is not a date", f.Name, v.Text())
		}
		return t, nil
	case "bool", "boolean":
		if b, ok := v.AsBool(); ok {
			return b, nil
		}
		return nil, fmt.Errorf("column %s: %q is not a boolean", f.Name, v.Text())
	default:
		return v.Text(), nil
	}
}
