package build

import (
	"fmt"
	"regexp"

	"github.com/coursewise/coursewise/internal/rows"
)

// idUnsafe matches every character that may not appear in a vector ID.
var idUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// AssignID derives the vector identifier for a row from its course code,
// instructor name, and position within the run. Position guarantees
// uniqueness when course and instructor repeat; it also means IDs are
// stable only for identical input ordering, which is a deliberate
// trade-off.
func AssignID(row rows.Row, position int) string {
	base := fmt.Sprintf("%s_%s_%d",
		row.TextOr(colCourse, "unknown"),
		row.TextOr(colInstructor, "unknown"),
		position,
	)
	return idUnsafe.ReplaceAllString(base, "_")
}
