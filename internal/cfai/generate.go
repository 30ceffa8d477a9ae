package cfai

import (
	"context"
	"fmt"
)

// Generator runs a chat model through the Workers AI endpoint to produce
// a text completion for a prompt.
type Generator struct {
	client      *Client
	model       string
	temperature float64
	maxTokens   int
}

// NewGenerator creates a Generator for the given chat model.
func NewGenerator(client *Client, model string, temperature float64, maxTokens int) *Generator {
	return &Generator{
		client:      client,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

type generateRequest struct {
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}

type generateResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool `json:"success"`
}

// Generate returns the model's completion for the prompt. An empty
// completion is an error; callers rely on a non-empty answer.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Prompt:      prompt,
		Temperature: g.temperature,
		MaxTokens:   g.maxTokens,
	}
	var resp generateResponse
	if err := g.client.postJSON(ctx, g.client.runURL(g.model), req, &resp); err != nil {
		return "", err
	}
	if resp.Result.Response == "" {
		return "", fmt.Errorf("empty generation result from %s", g.model)
	}
	return resp.Result.Response, nil
}

// ModelName returns the chat model name.
func (g *Generator) ModelName() string {
	return g.model
}
