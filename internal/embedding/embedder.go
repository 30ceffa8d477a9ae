package embedding

import "context"

// Embedder generates one embedding vector per input text, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
	ModelName() string
}

// ChunkService issues a single request to an embedding backend for one
// chunk of texts. Implementations do not batch; the Batcher owns chunking,
// count validation, and pacing.
type ChunkService interface {
	EmbedChunk(ctx context.Context, texts []string) ([][]float64, error)
	ModelName() string
}
