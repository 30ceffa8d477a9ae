package rows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSVSource reads rows from a CSV file with a header line.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source for the given CSV path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Path returns the source file path.
func (s *CSVSource) Path() string {
	return s.path
}

// Load reads and sanitizes all rows. Columns whose header starts with
// "Unnamed" (a spreadsheet-export artifact) are dropped. Short records
// leave their trailing columns absent; surplus cells are ignored.
func (s *CSVSource) Load() ([]Row, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening csv %s: %w", s.path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // tolerate ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	columns := make([]string, 0, len(header))
	keep := make([]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || strings.HasPrefix(name, "Unnamed") {
			continue
		}
		header[i] = name
		keep[i] = true
		columns = append(columns, name)
	}

	var out []Row
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading csv record %d: %w", len(out)+1, err)
		}

		values := make(map[string]any, len(columns))
		for i, cell := range record {
			if i >= len(header) || !keep[i] {
				continue
			}
			values[header[i]] = CleanValue(cell)
		}
		out = append(out, NewRow(columns, values))
	}

	return out, nil
}
