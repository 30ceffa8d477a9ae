// Package cfai is a minimal REST client for the Cloudflare Workers AI
// endpoints used by coursewise: text embeddings and chat generation via
// /ai/run/{model}. Authentication is a bearer API token scoped to one
// account.
package cfai

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

const defaultTimeout = 120 * time.Second

// Client issues authenticated requests against one Cloudflare account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountID  string
	apiToken   string
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

// NewClient creates a Client for the given account.
func NewClient(accountID, apiToken string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    DefaultBaseURL,
		accountID:  accountID,
		apiToken:   apiToken,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// runURL returns the /ai/run endpoint for a model.
func (c *Client) runURL(model string) string {
	return fmt.Sprintf("%s/accounts/%s/ai/run/%s", c.baseURL, c.accountID, model)
}

// postJSON sends payload as a JSON body and decodes the response into out.
// Non-2xx statuses are returned as errors carrying a body snippet.
func (c *Client) postJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("Content-Type", "application/json")

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
