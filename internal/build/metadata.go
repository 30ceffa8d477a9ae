package build

import (
	"regexp"
	"strings"

	"github.com/coursewise/coursewise/internal/rows"
)

// forbiddenKeyChars matches characters Vectorize rejects in metadata keys.
var forbiddenKeyChars = regexp.MustCompile(`[."$]`)

// NormalizeMetadata flattens a row into index metadata. Every column
// appears exactly once with its sanitized value (nil for absent), under a
// key rewritten by NormalizeKey. When two distinct columns rewrite to the
// same key, the later column wins; column order is preserved from the
// source file, so the outcome is deterministic.
func NormalizeMetadata(row rows.Row) map[string]any {
	out := make(map[string]any, len(row.Columns()))
	for _, column := range row.Columns() {
		out[NormalizeKey(column)] = row.Value(column)
	}
	return out
}

// NormalizeKey rewrites a metadata key to the safe character set:
// '.', '"', and '$' become '_', a leading '$' becomes '_', and an empty
// key becomes "_".
func NormalizeKey(key string) string {
	k := forbiddenKeyChars.ReplaceAllString(key, "_")
	if strings.HasPrefix(k, "$") {
		k = "_" + k[1:]
	}
	if k == "" {
		return "_"
	}
	return k
}
