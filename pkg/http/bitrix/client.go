package bitrix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/aversoft/b24sync/pkg/models"
)

const (
	defaultTimeout = 30 * time.Second
	// Courtesy delay between destination-mutating calls. The portal
	// rate-limits bursts; this is politeness, not correctness.
	defaultMutationInterval = 200 * time.Millisecond
)

// Client talks to a Bitrix-style REST portal: the method name is appended
// to the webhook base URL and parameters travel as a JSON body.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMutationInterval changes the courtesy delay between mutating calls.
func WithMutationInterval(interval time.Duration) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
}

// DefaultHTTPClient returns the HTTP client NewClient would use, for
// callers that want to customize its transport.
func DefaultHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// NewClient creates a client for the given webhook base URL.
func NewClient(webhookURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(webhookURL, "/"),
		limiter:    rate.NewLimiter(rate.Every(defaultMutationInterval), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response is one decoded RPC reply. Body holds the full JSON payload:
// either an object carrying a result envelope or a bare array.
type Response struct {
	Body any
}

// Result returns the result value of the envelope, or nil for bare-array
// replies.
func (r *Response) Result() any {
	if m, ok := r.Body.(map[string]any); ok {
		return m["result"]
	}
	return nil
}

// Call posts params to baseURL/method and decodes the reply. A present
// error key in the envelope is a failure regardless of HTTP status.
func (c *Client) Call(ctx context.Context, method string, params any) (*Response, error) {
	if isMutating(method) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", method, err)
	}

	var decoded any
	decodeErr := json.Unmarshal(data, &decoded)

	if m, ok := decoded.(map[string]any); ok {
		if apiErr := models.AsString(m["error"]); apiErr != "" {
			desc := models.AsString(m["error_description"])
			if desc == "" {
				desc = apiErr
			}
			return nil, fmt.Errorf("%s: API error: %s", method, desc)
		}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%s: HTTP %d: %s", method, resp.StatusCode, truncate(string(data), 500))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%s: invalid response: %w", method, decodeErr)
	}

	return &Response{Body: decoded}, nil
}

func isMutating(method string) bool {
	return strings.Contains(method, ".add") ||
		strings.Contains(method, ".update") ||
		strings.Contains(method, ".delete")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
