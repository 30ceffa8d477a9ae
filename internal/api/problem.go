package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coursewise/coursewise/internal/rag"
)

// Problem represents an RFC 7807 Problem Details response.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Instance string `json:"instance,omitempty"`
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]struct {
	typeURI string
	title   string
}{
	http.StatusBadRequest: {
		typeURI: "https://coursewise.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusNotFound: {
		typeURI: "https://coursewise.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusTooManyRequests: {
		typeURI: "https://coursewise.dev/errors/rate-limit",
		title:   "Too Many Requests",
	},
	http.StatusInternalServerError: {
		typeURI: "https://coursewise.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
	http.StatusBadGateway: {
		typeURI: "https://coursewise.dev/errors/upstream-failure",
		title:   "Upstream Failure",
	},
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	pt, ok := problemTypes[status]
	if !ok {
		pt = struct {
			typeURI string
			title   string
		}{
			typeURI: "https://coursewise.dev/errors/unknown",
			title:   http.StatusText(status),
		}
	}

	p := Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapAskError converts ask-pipeline errors to Problem Details responses,
// keeping the failing stage visible without leaking upstream internals.
func MapAskError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, rag.ErrEmbedding):
		WriteProblem(w, r, http.StatusBadGateway, "Embedding failed")
	case errors.Is(err, rag.ErrSearch):
		WriteProblem(w, r, http.StatusBadGateway, "Vector search failed")
	case errors.Is(err, rag.ErrGeneration):
		WriteProblem(w, r, http.StatusBadGateway, "Answer generation failed")
	default:
		WriteProblem(w, r, http.StatusBadGateway, "Pipeline failed")
	}
}
