package build

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coursewise/coursewise/internal/embedding"
	"github.com/coursewise/coursewise/internal/rows"
)

// RowSource loads the input rows for one build run.
type RowSource interface {
	Load() ([]rows.Row, error)
}

// Result reports a completed build.
type Result struct {
	Written   int
	Dimension int
}

// Pipeline is the single-pass build orchestration: load rows, compose
// documents, embed, assemble records, write the artifact. Any failure
// aborts the whole run; the destination is only touched after embedding
// succeeds, so a failed run leaves a previous artifact intact.
type Pipeline struct {
	source   RowSource
	embedder embedding.Embedder
	writer   *Writer
}

// New creates a Pipeline.
func New(source RowSource, embedder embedding.Embedder, writer *Writer) *Pipeline {
	return &Pipeline{source: source, embedder: embedder, writer: writer}
}

// Run executes one build and returns the record count and embedding
// dimensionality.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	rowSet, err := p.source.Load()
	if err != nil {
		return Result{}, fmt.Errorf("loading rows: %w", err)
	}
	slog.Info("rows loaded", "count", len(rowSet))

	ids := make([]string, len(rowSet))
	documents := make([]string, len(rowSet))
	metadata := make([]map[string]any, len(rowSet))
	for i, row := range rowSet {
		ids[i] = AssignID(row, i)
		documents[i] = ComposeDocument(row)
		metadata[i] = NormalizeMetadata(row)
	}

	vectors, err := p.embedder.Embed(ctx, documents)
	if err != nil {
		return Result{}, err
	}

	// Batcher guarantees one vector per document and uniform
	// dimensionality; the first vector's length is authoritative.
	dimension := len(vectors[0])
	slog.Info("embedding dimension detected", "dimension", dimension)

	records := make([]VectorRecord, len(rowSet))
	for i := range rowSet {
		records[i] = NewRecord(ids[i], vectors[i], metadata[i])
	}

	written, err := p.writer.Write(records)
	if err != nil {
		return Result{}, err
	}

	return Result{Written: written, Dimension: dimension}, nil
}
