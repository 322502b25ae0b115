package csv

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// headerChain drops zero-width format runes (BOM, ZWSP) and composes to NFC
// so visually equal headers compare equal.
func headerChain() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Cf)), norm.NFC)
}

// normalizeHeaders trims, strips a leading BOM and NFC-normalizes each header
// cell, then applies headerMap renames. Casing is preserved.
func normalizeHeaders(h []string, headerMap map[string]string) []string {
	out := make([]string, len(h))
	for i, col := range h {
		c := col
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		if s, _, err := transform.String(headerChain(), c); err == nil {
			c = s
		}
		c = strings.TrimSpace(c)
		if m, ok := headerMap[c]; ok {
			c = m
		}
		out[i] = c
	}
	return out
}
