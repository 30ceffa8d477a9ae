package rows

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

var whitespaceReplacer = strings.NewReplacer("\r", " ", "\n", " ", "\t", " ")

// CleanText collapses carriage returns, newlines, and tabs into single
// spaces and drops any bytes that are not valid UTF-8. Quotes and other
// punctuation are left untouched.
func CleanText(s string) string {
	s = whitespaceReplacer.Replace(s)
	return strings.ToValidUTF8(s, "")
}

// CleanValue converts one raw cell into a sanitized scalar.
//
// An empty (or whitespace-only) cell is absent and becomes nil.
// Integer-like cells become int64, float-like cells become float64 with
// NaN and infinities mapped to nil, and everything else is cleaned text.
// CleanValue never fails; malformed input degrades to the cleaned string
// or to nil.
func CleanValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	if n, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil || errors.Is(err, strconv.ErrRange) {
		// Out-of-range parses still identify the cell as numeric; the
		// resulting infinity is absent like any other non-finite value.
		return CoerceFloat(f)
	}

	return CleanText(raw)
}

// CoerceFloat maps non-finite floats to nil and returns finite values
// unchanged. Floats with no fractional part stay float64; integer
// detection happens at parse time, not here.
func CoerceFloat(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}
