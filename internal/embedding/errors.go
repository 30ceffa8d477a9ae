package embedding

import (
	"errors"
	"fmt"
)

// ErrBadResponse marks a response that arrived from the embedding backend
// but could not be interpreted (missing fields, wrong shape). ChunkService
// implementations wrap it so the Batcher can distinguish service faults
// from transport faults.
var ErrBadResponse = errors.New("malformed embedding response")

// TransportError is a network or HTTP failure contacting the embedding
// service for one chunk. It is fatal for the whole Embed call; retry
// policy, if any, belongs to the caller.
type TransportError struct {
	Chunk int
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("embedding chunk %d: transport failure: %v", e.Chunk, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError is a semantic fault in an otherwise delivered response:
// wrong vector count, inconsistent dimensionality, or an empty overall
// result. Chunk is -1 when the fault is not tied to a single chunk.
type ServiceError struct {
	Chunk  int
	Reason string
}

func (e *ServiceError) Error() string {
	if e.Chunk < 0 {
		return fmt.Sprintf("embedding service: %s", e.Reason)
	}
	return fmt.Sprintf("embedding chunk %d: %s", e.Chunk, e.Reason)
}
