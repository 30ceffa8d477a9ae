// Package rag answers course questions over the vector index: embed the
// question, search for relevant offerings, and generate a grounded answer
// with a chat model.
package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/coursewise/coursewise/internal/embedding"
	"github.com/coursewise/coursewise/internal/vectorize"
)

// Stage sentinels let the API layer map failures to stable upstream-error
// responses without parsing messages.
var (
	ErrEmbedding  = errors.New("embedding failed")
	ErrSearch     = errors.New("vector search failed")
	ErrGeneration = errors.New("answer generation failed")
)

// MaxTopK bounds how many matches a single question may request.
const MaxTopK = 10

// Searcher queries the vector index.
type Searcher interface {
	Query(ctx context.Context, vector []float64, topK int) ([]vectorize.Match, error)
}

// Generator produces a chat completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source identifies one course offering that grounded the answer.
type Source struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	Course     string  `json:"course"`
	CourseName string  `json:"courseName"`
	Instructor string  `json:"instructor"`
}

// Answer is the result of one question.
type Answer struct {
	Answer  string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Pipeline wires the three stages together.
type Pipeline struct {
	embedder    embedding.Embedder
	searcher    Searcher
	generator   Generator
	defaultTopK int
}

// New creates a Pipeline. defaultTopK applies when a question does not
// specify one.
func New(embedder embedding.Embedder, searcher Searcher, generator Generator, defaultTopK int) *Pipeline {
	return &Pipeline{
		embedder:    embedder,
		searcher:    searcher,
		generator:   generator,
		defaultTopK: defaultTopK,
	}
}

// Ask answers a question. topK <= 0 selects the default; values are
// clamped to [1, MaxTopK].
func (p *Pipeline) Ask(ctx context.Context, question string, topK int) (Answer, error) {
	if topK <= 0 {
		topK = p.defaultTopK
	}
	topK = min(max(topK, 1), MaxTopK)

	vectors, err := p.embedder.Embed(ctx, []string{question})
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	matches, err := p.searcher.Query(ctx, vectors[0], topK)
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrSearch, err)
	}

	promptContext, sources := buildContext(matches)
	answer, err := p.generator.Generate(ctx, buildPrompt(question, promptContext))
	if err != nil {
		return Answer{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	answer = StripReferences(answer)
	if answer == "" {
		return Answer{}, fmt.Errorf("%w: empty answer", ErrGeneration)
	}

	return Answer{Answer: answer, Sources: sources}, nil
}

// buildContext renders the matched offerings into prompt context blocks
// and the source list returned alongside the answer.
func buildContext(matches []vectorize.Match) (string, []Source) {
	var blocks []string
	sources := make([]Source, 0, len(matches))
	for _, match := range matches {
		md := match.Metadata
		course := metaString(md, "Course")
		courseName := metaString(md, "Course Name")
		instructor := metaString(md, "First Last")

		title := courseName
		if title == "" {
			title = course
		}
		lines := []string{
			"Course: " + title,
			"Instructor: " + instructor,
		}
		if desc := metaString(md, "Description"); desc != "" {
			lines = append(lines, "Description: "+desc)
		}
		if prereq := metaString(md, "Prerequisite"); prereq != "" {
			lines = append(lines, "Prerequisites: "+prereq)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))

		sources = append(sources, Source{
			ID:         match.ID,
			Score:      math.Round(match.Score*1000) / 1000,
			Course:     course,
			CourseName: courseName,
			Instructor: instructor,
		})
	}

	if len(blocks) == 0 {
		return "No context.", sources
	}
	return strings.Join(blocks, "\n\n"), sources
}

// buildPrompt renders the grounded-answer prompt for the chat model.
func buildPrompt(question, context string) string {
	return "You are a helpful university course assistant.\n" +
		"Answer concisely using ONLY the provided context. " +
		"If the answer isn't in the context, say you don't know.\n\n" +
		"# Context\n" + context + "\n\n" +
		"# Question\n" + question + "\n\n" +
		"# Style\n- Keep it under 6 sentences.\n" +
		"- Do not include references, IDs, or bracketed numbers in the answer.\n"
}

// metaString reads a metadata value as a string, tolerating nil and
// non-string values.
func metaString(md map[string]any, key string) string {
	switch v := md[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
