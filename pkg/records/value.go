// Package records defines the in-memory row model shared by the parser, the
// validation checks and the seeder.
//
// A Record maps a field name to a Value. Value is a small closed variant:
// absent, null, number, string or bool. Every accessor reports whether the
// value holds the expected variant so callers can fail closed instead of
// guessing at conversions.
package records

import (
	"encoding/json"
	"math"
	"strconv"
)

// Kind enumerates the variants a Value can hold.
type Kind uint8

const (
	// KindAbsent is the zero Kind: the field was not present in the row.
	KindAbsent Kind = iota
	KindNull
	KindNumber
	KindString
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "absent"
	}
}

// Value is a scalar cell value. The zero Value is absent.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// Null returns an explicit null value (an empty CSV cell).
func Null() Value { return Value{kind: KindNull} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsPresent reports whether v holds a non-null value.
func (v Value) IsPresent() bool { return v.kind != KindAbsent && v.kind != KindNull }

// AsNumber returns the numeric value and true when v is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsString returns the string value and true when v is a string.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsBool returns the boolean value and true when v is a bool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Text renders the value the way it would appear in a CSV cell. Absent and
// null values render as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return v.str
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Key returns an identity key that distinguishes variants, so the number 1
// and the string "1" never collide. Absent and null values have no key.
func (v Value) Key() (string, bool) {
	switch v.kind {
	case KindNumber:
		return "n:" + formatNumber(v.num), true
	case KindString:
		return "s:" + v.str, true
	case KindBool:
		return "b:" + strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// Any converts v to the plain Go value used by database/sql drivers:
// nil, int64 (for integral numbers), float64, string or bool.
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		if isIntegral(v.num) {
			return int64(v.num)
		}
		return v.num
	case KindString:
		return v.str
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether two values hold the same variant and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindString:
		return v.str == o.str
	case KindBool:
		return v.b == o.b
	default:
		return true
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return []byte(formatNumber(v.num)), nil
	case KindString:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON implements json.Unmarshaler. JSON null decodes to Null.
func (v *Value) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(t)
	case string:
		*v = String(t)
	case bool:
		*v = Bool(t)
	default:
		*v = String(string(b))
	}
	return nil
}

func isIntegral(f float64) bool {
	return f == math.Trunc(f) && math.Abs(f) < 1<<53
}

func formatNumber(f float64) string {
	if isIntegral(f) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
