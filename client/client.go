// Package client provides a typed HTTP client for the Archon admin API.
// Paths come from the routes table; responses decode into caller types;
// every failure, network or HTTP, surfaces as one *APIError shape.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures the client.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Headers map[string]string

	// HTTPClient overrides the default client, e.g. for tests.
	HTTPClient *http.Client
}

// Client performs typed requests against the admin API.
//
// The client performs no retries and enforces no per-request deadline
// beyond the underlying http.Client timeout and the caller's context;
// callers needing resilience add it themselves.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	headers    map[string]string
}

// New creates a new API client.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		headers:    cfg.Headers,
	}
}

// Request sends an HTTP request and decodes the JSON response into out.
//
// A 204 response, or a 2xx with no body, leaves out untouched and
// returns nil; callers expecting void responses must not treat that as
// an error. Non-2xx responses and network failures both return an
// *APIError, never a bare transport error.
func (c *Client) Request(ctx context.Context, method, path string, body, out any) error {
	return c.RequestWithHeaders(ctx, method, path, body, out, nil)
}

// RequestWithHeaders is Request with extra per-call headers. Per-call
// headers override client-level ones on collision.
func (c *Client) RequestWithHeaders(ctx context.Context, method, path string, body, out any, headers map[string]string) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Re-wrap so callers have one error type to handle, not two.
		return &APIError{
			Kind:    KindTransport,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.buildError(resp)
	}

	if resp.StatusCode == http.StatusNoContent || resp.ContentLength == 0 || out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// buildError reads a non-2xx body and constructs the typed error.
// Bodies that are not JSON fall back to plain text.
func (c *Client) buildError(resp *http.Response) *APIError {
	statusText := http.StatusText(resp.StatusCode)

	raw, readErr := io.ReadAll(resp.Body)
	if readErr != nil || len(raw) == 0 {
		return &APIError{
			Kind:       kindForStatus(resp.StatusCode),
			Message:    statusText,
			Status:     resp.StatusCode,
			StatusText: statusText,
		}
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		decoded = string(raw)
	}

	return &APIError{
		Kind:       kindForStatus(resp.StatusCode),
		Message:    errorMessage(decoded, statusText),
		Status:     resp.StatusCode,
		StatusText: statusText,
		Response:   decoded,
	}
}

func kindForStatus(status int) Kind {
	if status == http.StatusUnprocessableEntity {
		return KindValidation
	}
	return KindTransport
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Request(ctx, http.MethodGet, path, nil, out)
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPost, path, body, out)
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPut, path, body, out)
}

// Patch performs a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Request(ctx, http.MethodPatch, path, body, out)
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}
