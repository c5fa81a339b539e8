package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// StatusError is returned for responses outside the expected statuses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

// HTTPClient wraps http.Client with timeout and JSON helpers.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// getJSON performs a GET and decodes the response into out.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any, expect ...int) error {
	return c.do(ctx, http.MethodGet, path, nil, out, expect...)
}

// postJSON performs a POST with a JSON body and decodes the response into out.
func (c *HTTPClient) postJSON(ctx context.Context, path string, body, out any, expect ...int) error {
	return c.do(ctx, http.MethodPost, path, body, out, expect...)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any, expect ...int) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if !expected(resp.StatusCode, expect) {
		return &StatusError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func expected(status int, expect []int) bool {
	if len(expect) == 0 {
		return status == http.StatusOK
	}
	for _, s := range expect {
		if s == status {
			return true
		}
	}
	return false
}
