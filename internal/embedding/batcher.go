package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// MaxBatchSize is the hard cap on texts per request imposed by the
// Workers AI embedding models.
const MaxBatchSize = 100

// Compile-time interface check
var _ Embedder = (*Batcher)(nil)

// Batcher splits texts into bounded chunks, sends each chunk through a
// ChunkService sequentially, and returns the flattened vectors aligned
// with input order. A failure in any chunk fails the whole call; there is
// no partial acceptance and no retry at this level.
type Batcher struct {
	svc   ChunkService
	size  int
	delay time.Duration
}

// NewBatcher creates a Batcher. Size is clamped to [1, MaxBatchSize];
// delay is the optional pause between chunk requests and is best-effort
// politeness, unrelated to correctness.
func NewBatcher(svc ChunkService, size int, delay time.Duration) *Batcher {
	if size < 1 {
		size = 1
	}
	if size > MaxBatchSize {
		size = MaxBatchSize
	}
	if delay < 0 {
		delay = 0
	}
	return &Batcher{svc: svc, size: size, delay: delay}
}

// Embed returns one vector per text, in input order.
//
// Errors are typed: *TransportError for a failed chunk request,
// *ServiceError for a count mismatch, ragged dimensionality, or an empty
// overall result (including empty input).
func (b *Batcher) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	slog.Info("embedding texts", "count", len(texts), "batch_size", b.size, "model", b.svc.ModelName())

	out := make([][]float64, 0, len(texts))
	for chunk, start := 0, 0; start < len(texts); chunk, start = chunk+1, start+b.size {
		end := start + b.size
		if end > len(texts) {
			end = len(texts)
		}
		sub := texts[start:end]

		vecs, err := b.svc.EmbedChunk(ctx, sub)
		if err != nil {
			if errors.Is(err, ErrBadResponse) {
				return nil, &ServiceError{Chunk: chunk, Reason: err.Error()}
			}
			return nil, &TransportError{Chunk: chunk, Err: err}
		}
		if len(vecs) != len(sub) {
			return nil, &ServiceError{
				Chunk:  chunk,
				Reason: fmt.Sprintf("vector count mismatch: expected %d got %d", len(sub), len(vecs)),
			}
		}
		out = append(out, vecs...)

		if b.delay > 0 && end < len(texts) {
			if err := sleep(ctx, b.delay); err != nil {
				return nil, &TransportError{Chunk: chunk, Err: err}
			}
		}
	}

	if len(out) == 0 {
		return nil, &ServiceError{Chunk: -1, Reason: "no vectors returned"}
	}

	// First vector's dimensionality is authoritative; a ragged result is
	// a service fault, never passed downstream.
	dim := len(out[0])
	for i, vec := range out {
		if len(vec) != dim {
			return nil, &ServiceError{
				Chunk:  -1,
				Reason: fmt.Sprintf("dimensionality mismatch: vector %d has %d values, expected %d", i, len(vec), dim),
			}
		}
	}

	slog.Info("embedding complete", "vectors", len(out), "dimension", dim)
	return out, nil
}

// ModelName returns the underlying service's model name.
func (b *Batcher) ModelName() string {
	return b.svc.ModelName()
}

// sleep pauses for d or until the context is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
