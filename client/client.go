// Package client provides the implementation for interacting with the
// recommendation service's HTTP API. This package encapsulates the seven
// recommendation-flow endpoints and provides a friendly interface for
// callers: a Client struct holding a base URL and an *http.Client,
// ClientOption functional options, and doRequest/parseResponse helpers
// shared by every per-resource file.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client is the client for interacting with the recommendation service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// ClientOption defines client configuration options.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithToken sets the authentication token sent as X-API-Key.
func WithToken(token string) ClientOption {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient overrides the underlying *http.Client entirely, e.g. to
// install custom transport-level tracing or retries.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a new client instance.
func NewClient(baseURL string, options ...ClientOption) *Client {
	client := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// doRequest executes an HTTP request against the service.
func (c *Client) doRequest(ctx context.Context,
	method, path string, body interface{}, query url.Values,
) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	requestURL := fmt.Sprintf("%s%s", c.baseURL, path)
	if len(query) > 0 {
		requestURL = fmt.Sprintf("%s?%s", requestURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("X-API-Key", c.token)
	}
	if requestID := ctx.Value("RequestID"); requestID != nil {
		if id, ok := requestID.(string); ok {
			req.Header.Set("X-Request-ID", id)
		}
	}

	return c.httpClient.Do(req)
}

// errorResponse mirrors the service's fixed error envelope
// ({success:false, error:{code,message,details,retryAfter}}).
type errorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		Details    any    `json:"details,omitempty"`
		RetryAfter int    `json:"retryAfter,omitempty"`
	} `json:"error"`
}

// APIError is returned by every client method when the service responds
// with its structured error envelope rather than a 2xx success body.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    any
	RetryAfter int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// parseResponse parses an HTTP response, decoding a structured APIError
// for any non-2xx status before falling through to decoding target.
func parseResponse(resp *http.Response, target interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		var errBody errorResponse
		if err := json.Unmarshal(body, &errBody); err == nil && errBody.Error.Code != "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Code:       errBody.Error.Code,
				Message:    errBody.Error.Message,
				Details:    errBody.Error.Details,
				RetryAfter: errBody.Error.RetryAfter,
			}
		}
		return fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(body))
	}

	if target == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(target)
}
