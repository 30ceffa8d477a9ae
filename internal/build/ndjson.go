package build

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
)

// Writer persists vector records as newline-delimited strict JSON: one
// object per line, UTF-8, no NaN or Infinity literals.
type Writer struct {
	path string
}

// NewWriter creates a writer targeting path. Parent directories are
// created on first write; an existing file is truncated.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Path returns the destination path.
func (w *Writer) Path() string {
	return w.path
}

// Write serializes every record and returns the number of lines written.
// All records are encoded before the destination is opened, so a
// serialization failure leaves any previous artifact untouched.
func (w *Writer) Write(records []VectorRecord) (int, error) {
	var buf bytes.Buffer
	for _, rec := range records {
		line, err := marshalRecord(rec)
		if err != nil {
			return 0, err
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating output directory: %w", err)
		}
	}

	f, err := os.Create(w.path)
	if err != nil {
		return 0, fmt.Errorf("creating output file: %w", err)
	}

	bw := bufio.NewWriter(f)
	if _, err := bw.Write(buf.Bytes()); err != nil {
		f.Close()
		return 0, fmt.Errorf("writing output file: %w", err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return 0, fmt.Errorf("flushing output file: %w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing output file: %w", err)
	}

	slog.Info("artifact written", "records", len(records), "path", w.path)
	return len(records), nil
}

// marshalRecord encodes one record as a strict JSON line. Embedding
// values must already be finite; non-finite metadata values become null
// through the jsonSafe pass. Anything non-finite that survives both is a
// SerializationError.
func marshalRecord(rec VectorRecord) ([]byte, error) {
	for i, v := range rec.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, &SerializationError{
				ID:     rec.ID,
				Reason: fmt.Sprintf("non-finite embedding value at index %d", i),
			}
		}
	}

	safe := VectorRecord{
		ID:       rec.ID,
		Values:   rec.Values,
		Metadata: jsonSafe(rec.Metadata).(map[string]any),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(safe); err != nil {
		return nil, &SerializationError{ID: rec.ID, Reason: err.Error()}
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
