// Package rows loads tabular course data and exposes it through a narrow
// Row abstraction. Values are sanitized on load: text is whitespace-normalized
// and guaranteed valid UTF-8, numeric-looking values are coerced to native
// scalars, and anything missing or non-finite becomes nil.
package rows

import "strconv"

// Row is an ordered mapping from column name to a sanitized scalar value.
// Values are string, int64, float64, or nil (the absent-value marker).
// Column order is preserved from the source file.
type Row struct {
	columns []string
	values  map[string]any
}

// NewRow builds a Row over the given columns. Columns missing from values
// are treated as absent. Values are stored as-is; callers are expected to
// pass sanitized scalars (see CleanValue).
func NewRow(columns []string, values map[string]any) Row {
	cols := make([]string, len(columns))
	copy(cols, columns)
	vals := make(map[string]any, len(values))
	for k, v := range values {
		vals[k] = v
	}
	return Row{columns: cols, values: vals}
}

// Columns returns the column names in source order.
func (r Row) Columns() []string {
	cols := make([]string, len(r.columns))
	copy(cols, r.columns)
	return cols
}

// Has reports whether the column exists and holds a present (non-nil) value.
func (r Row) Has(column string) bool {
	v, ok := r.values[column]
	return ok && v != nil
}

// Value returns the raw sanitized value for a column, or nil when the
// column is missing or absent.
func (r Row) Value(column string) any {
	return r.values[column]
}

// String returns the column's string value. The second return is false
// when the column is absent or not a string.
func (r Row) String(column string) (string, bool) {
	s, ok := r.values[column].(string)
	return s, ok
}

// StringOr returns the column's string value, or def when the column is
// absent or holds a non-string value.
func (r Row) StringOr(column, def string) string {
	if s, ok := r.values[column].(string); ok {
		return s
	}
	return def
}

// Text renders the column's value for string contexts: strings come back
// as-is, and numeric values are formatted (integers without a decimal
// point, floats in their shortest form) so a purely numeric cell still
// reads naturally in composed text. Absent values yield "".
func (r Row) Text(column string) string {
	switch v := r.values[column].(type) {
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return ""
	}
}

// TextOr returns Text, or def when the column is absent.
func (r Row) TextOr(column, def string) string {
	if s := r.Text(column); s != "" {
		return s
	}
	return def
}

// Number returns the column's numeric value as float64. The second return
// is false when the column is absent or not numeric. Values stored by the
// sanitizer are always finite, so a true return implies a finite number.
func (r Row) Number(column string) (float64, bool) {
	switch v := r.values[column].(type) {
	case int64:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
