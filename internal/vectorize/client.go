// Package vectorize is a minimal client for the Cloudflare Vectorize v2
// index endpoints used by coursewise: similarity query for the serving
// layer and NDJSON bulk insert for the build pipeline.
package vectorize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultBaseURL is the public Cloudflare API host.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

const defaultTimeout = 300 * time.Second

// Match is one similarity search result.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Client talks to one Vectorize index.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiToken   string
	index      string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API host, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a Client for the given account and index.
func NewClient(accountID, apiToken, index string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		accountID:  accountID,
		apiToken:   apiToken,
		index:      index,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Index returns the index name this client targets.
func (c *Client) Index() string {
	return c.index
}

func (c *Client) indexURL(op string) string {
	return fmt.Sprintf("%s/accounts/%s/vectorize/v2/indexes/%s/%s", c.baseURL, c.accountID, c.index, op)
}

type queryRequest struct {
	Vector         []float64 `json:"vector"`
	TopK           int       `json:"topK"`
	ReturnValues   bool      `json:"returnValues"`
	ReturnMetadata string    `json:"returnMetadata"`
}

type queryResponse struct {
	Result struct {
		Matches []Match `json:"matches"`
	} `json:"result"`
	Success bool `json:"success"`
}

// Query runs a similarity search and returns the top-k matches with full
// metadata, best first.
func (c *Client) Query(ctx context.Context, vector []float64, topK int) ([]Match, error) {
	req := queryRequest{
		Vector:         vector,
		TopK:           topK,
		ReturnValues:   false,
		ReturnMetadata: "all",
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding query: %w", err)
	}

	var resp queryResponse
	if err := c.post(ctx, c.indexURL("query"), "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	if resp.Result.Matches == nil {
		return nil, fmt.Errorf("malformed query response: missing result.matches")
	}
	return resp.Result.Matches, nil
}

type insertResponse struct {
	Result struct {
		MutationID string `json:"mutationId"`
	} `json:"result"`
	Success bool `json:"success"`
}

// Insert submits an NDJSON artifact as the raw request body and returns
// the mutation ID Cloudflare assigns for tracking. The ID is opaque and
// may be empty; callers decide whether that is worth a warning.
func (c *Client) Insert(ctx context.Context, artifact io.Reader) (string, error) {
	var resp insertResponse
	if err := c.post(ctx, c.indexURL("insert"), "application/x-ndjson", artifact, &resp); err != nil {
		return "", err
	}
	return resp.Result.MutationID, nil
}

// post sends body with the given content type and decodes the response.
func (c *Client) post(ctx context.Context, url, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
