// Package build turns sanitized course rows into a strict-JSON NDJSON
// stream of embedding vectors ready for Vectorize bulk insert.
package build

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coursewise/coursewise/internal/rows"
)

// Column names expected in the course CSV. Absent columns degrade to
// absent fields everywhere; they are never an error.
const (
	colCourse       = "Course"
	colCourseName   = "Course Name"
	colInstructor   = "First Last"
	colDescription  = "Description"
	colPrerequisite = "Prerequisite"
	colAvgGPA       = "Avg GPA"
	colDifficulty   = "Difficulty"
)

// ComposeDocument synthesizes the natural-language description used as
// the embedding input for one row. Clause order is fixed; a clause is
// emitted only when its field is present and non-empty after trimming,
// and numeric clauses only when the value is finite. An all-absent row
// yields the empty string.
func ComposeDocument(row rows.Row) string {
	var parts []string

	name := strings.TrimSpace(row.Text(colCourseName))
	code := strings.TrimSpace(row.Text(colCourse))
	if name != "" || code != "" {
		parts = append(parts, fmt.Sprintf("Course: %s (%s).", name, code))
	}
	if instructor := strings.TrimSpace(row.Text(colInstructor)); instructor != "" {
		parts = append(parts, fmt.Sprintf("Taught by Professor %s.", instructor))
	}
	if desc := strings.TrimSpace(row.Text(colDescription)); desc != "" {
		parts = append(parts, fmt.Sprintf("Description: %s.", desc))
	}
	if prereq := strings.TrimSpace(row.Text(colPrerequisite)); prereq != "" {
		parts = append(parts, fmt.Sprintf("Prerequisites: %s.", prereq))
	}
	if gpa, ok := row.Number(colAvgGPA); ok {
		parts = append(parts, fmt.Sprintf("Average GPA: %s.", formatNumber(gpa, row.Value(colAvgGPA))))
	}
	if difficulty, ok := row.Number(colDifficulty); ok {
		parts = append(parts, fmt.Sprintf("Difficulty: %s/5.", formatNumber(difficulty, row.Value(colDifficulty))))
	}

	return strings.Join(parts, " ")
}

// formatNumber renders a numeric field the way it was stored: integers
// without a decimal point, floats in their shortest representation.
func formatNumber(f float64, raw any) string {
	if n, ok := raw.(int64); ok {
		return strconv.FormatInt(n, 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
