package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/coursewise/coursewise/internal/rag"
	"github.com/coursewise/coursewise/internal/ratelimit"
)

// Asker answers course questions; implemented by rag.Pipeline.
type Asker interface {
	Ask(ctx context.Context, question string, topK int) (rag.Answer, error)
}

// Handler implements the API handlers
type Handler struct {
	asker   Asker
	limiter *ratelimit.Limiter
	model   string
	version string
}

// NewHandler creates a new Handler.
func NewHandler(asker Asker, limiter *ratelimit.Limiter, model, version string) *Handler {
	return &Handler{
		asker:   asker,
		limiter: limiter,
		model:   model,
		version: version,
	}
}

// Root returns a greeting, mostly so load balancer probes see a 200.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from coursewise"})
}

// Health returns the health status
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":          "healthy",
		"version":         h.version,
		"embedding_model": h.model,
	})
}

// Version returns the running version.
func (h *Handler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": h.version})
}

type askRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"topK"`
}

// Ask handles POST /ask: rate limit, validate, answer.
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	// Rate limit before any upstream work.
	decision := h.limiter.Allow(clientIP(r))
	setRateLimitHeaders(w, decision)
	if !decision.Allowed {
		w.Header().Set("Retry-After", strconv.Itoa(decision.Reset))
		WriteProblem(w, r, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, r, http.StatusBadRequest, "Body must be a JSON object")
		return
	}
	question := strings.TrimSpace(req.Question)
	if question == "" {
		WriteProblem(w, r, http.StatusBadRequest, "Missing 'question'")
		return
	}

	// Out-of-range topK is not an error; the pipeline clamps it.
	answer, err := h.asker.Ask(r.Context(), question, req.TopK)
	if err != nil {
		slog.Error("ask failed", "error", err, "request_id", r.Header.Get("X-Request-ID"))
		MapAskError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, answer)
}

func setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	h := w.Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-Reset", strconv.Itoa(d.Reset))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
