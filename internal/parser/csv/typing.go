package csv

import (
	"math"
	"regexp"
	"strconv"

	"ytetl/pkg/records"
)

// numericRE matches plain decimal literals with an optional exponent.
// Hex, underscores, Inf and NaN stay strings.
var numericRE = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// maxSafeInt bounds integers that survive a float64 round trip.
const maxSafeInt = 1<<53 - 1

// Infer types a raw cell: "" is null, true/TRUE/True and the false variants
// are bools, numeric literals within the exactly representable range are
// numbers, and anything else is a string.
func Infer(cell string) records.Value {
	switch cell {
	case "":
		return records.Null()
	case "true", "TRUE", "True":
		return records.Bool(true)
	case "false", "FALSE", "False":
		return records.Bool(false)
	}
	if numericRE.MatchString(cell) {
		if f, err := strconv.ParseFloat(trimASCII(cell), 64); err == nil && math.Abs(f) <= maxSafeInt {
			return records.Number(f)
		}
	}
	return records.String(cell)
}

func trimASCII(s string) string {
	i, j := 0, len(s)
	for i < j && isSpace(s[i]) {
		i++
	}
	for j > i && isSpace(s[j-1]) {
		j--
	}
	return s[i:j]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\v' || b == '\f'
}
