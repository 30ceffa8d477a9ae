package build

import (
	"fmt"
	"math"
)

// VectorRecord is one line of the output artifact: a vector ID, its
// embedding, and the flat metadata stored alongside it. Records are
// immutable once assembled and serialized exactly once.
type VectorRecord struct {
	ID       string         `json:"id"`
	Values   []float64      `json:"values"`
	Metadata map[string]any `json:"metadata"`
}

// NewRecord assembles a record. No validation happens here; the pipeline
// checks dimensionality once for the whole run, and the writer enforces
// numeric safety at serialization time.
func NewRecord(id string, values []float64, metadata map[string]any) VectorRecord {
	return VectorRecord{ID: id, Values: values, Metadata: metadata}
}

// SerializationError reports a non-finite value that survived
// sanitization. It indicates a logic defect upstream and is never
// swallowed.
type SerializationError struct {
	ID     string
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serializing record %s: %s", e.ID, e.Reason)
}

// jsonSafe recursively replaces non-finite floats with nil so the value
// marshals under the strict JSON grammar. Maps and slices are rebuilt;
// everything else passes through.
func jsonSafe(v any) any {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		return jsonSafe(float64(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = jsonSafe(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = jsonSafe(item)
		}
		return out
	default:
		return v
	}
}
