package cfai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coursewise/coursewise/internal/embedding"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("acct-123", "token-abc", WithBaseURL(srv.URL))
}

func TestEmbedderEmbedChunk(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result":  map[string]any{"data": [][]float64{{0.1, 0.2}, {0.3, 0.4}}},
			"success": true,
		})
	})

	embedder := NewEmbedder(client, "@cf/baai/bge-base-en-v1.5")
	vectors, err := embedder.EmbedChunk(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("EmbedChunk() error: %v", err)
	}

	if gotPath != "/accounts/acct-123/ai/run/@cf/baai/bge-base-en-v1.5" {
		t.Errorf("request path = %q", gotPath)
	}
	if gotAuth != "Bearer token-abc" {
		t.Errorf("auth header = %q", gotAuth)
	}
	texts, _ := gotBody["text"].([]any)
	if len(texts) != 2 || texts[0] != "a" {
		t.Errorf("request body text = %v", gotBody["text"])
	}
	if len(vectors) != 2 || vectors[1][1] != 0.4 {
		t.Errorf("vectors = %v", vectors)
	}
}

func TestEmbedderMissingDataIsBadResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "result": map[string]any{}})
	})

	embedder := NewEmbedder(client, "model")
	_, err := embedder.EmbedChunk(context.Background(), []string{"a"})
	if !errors.Is(err, embedding.ErrBadResponse) {
		t.Fatalf("error = %v, want ErrBadResponse", err)
	}
}

func TestEmbedderHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"success":false,"errors":[{"message":"quota exceeded"}]}`, http.StatusTooManyRequests)
	})

	embedder := NewEmbedder(client, "model")
	_, err := embedder.EmbedChunk(context.Background(), []string{"a"})
	if err == nil {
		t.Fatal("expected error on 429")
	}
	if errors.Is(err, embedding.ErrBadResponse) {
		t.Error("HTTP failures are transport faults, not bad responses")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry the status: %v", err)
	}
}

func TestGeneratorGenerate(t *testing.T) {
	var gotBody map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result":  map[string]any{"response": "Take CPSC 131 first."},
			"success": true,
		})
	})

	gen := NewGenerator(client, "@cf/meta/llama-3.1-8b-instruct-fast", 0.2, 350)
	answer, err := gen.Generate(context.Background(), "What should I take?")
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if answer != "Take CPSC 131 first." {
		t.Errorf("answer = %q", answer)
	}
	if gotBody["prompt"] != "What should I take?" {
		t.Errorf("prompt = %v", gotBody["prompt"])
	}
	if gotBody["temperature"] != 0.2 {
		t.Errorf("temperature = %v", gotBody["temperature"])
	}
	if gotBody["max_tokens"] != float64(350) {
		t.Errorf("max_tokens = %v", gotBody["max_tokens"])
	}
}

func TestGeneratorEmptyResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"result": map[string]any{"response": ""}})
	})

	gen := NewGenerator(client, "model", 0.2, 100)
	if _, err := gen.Generate(context.Background(), "q"); err == nil {
		t.Fatal("empty completion should be an error")
	}
}
