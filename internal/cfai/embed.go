package cfai

import (
	"context"
	"fmt"

	"github.com/coursewise/coursewise/internal/embedding"
)

// Compile-time interface check
var _ embedding.ChunkService = (*Embedder)(nil)

// Embedder runs one embedding model through the Workers AI endpoint.
// It implements embedding.ChunkService; chunking and count validation
// live in embedding.Batcher.
type Embedder struct {
	client *Client
	model  string
}

// NewEmbedder creates an Embedder for the given model.
func NewEmbedder(client *Client, model string) *Embedder {
	return &Embedder{client: client, model: model}
}

type embedRequest struct {
	Text []string `json:"text"`
}

type embedResponse struct {
	Result struct {
		Data [][]float64 `json:"data"`
	} `json:"result"`
	Success bool `json:"success"`
}

// EmbedChunk requests one vector per input text.
func (e *Embedder) EmbedChunk(ctx context.Context, texts []string) ([][]float64, error) {
	var resp embedResponse
	if err := e.client.postJSON(ctx, e.client.runURL(e.model), embedRequest{Text: texts}, &resp); err != nil {
		return nil, err
	}
	if resp.Result.Data == nil {
		return nil, fmt.Errorf("%w: missing result.data", embedding.ErrBadResponse)
	}
	return resp.Result.Data, nil
}

// ModelName returns the embedding model name.
func (e *Embedder) ModelName() string {
	return e.model
}
