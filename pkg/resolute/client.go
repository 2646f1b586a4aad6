// Package resolute provides a small HTTP client for the Resolute API.
package resolute

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/resolutehq/resolute/internal/types"
)

// Config holds client configuration.
type Config struct {
	// BaseURL is the server address, e.g. "http://localhost:8080".
	BaseURL string

	// APIKey is the bearer token for protected routes.
	APIKey string

	// Timeout for each request. Defaults to 30s.
	Timeout time.Duration
}

// Client talks to a Resolute server.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// APIError is a decoded RFC 7807 problem response.
type APIError struct {
	Status int    `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s: %s", e.Status, e.Title, e.Detail)
}

// Health fetches the server health status.
func (c *Client) Health(ctx context.Context) (*types.HealthResponse, error) {
	var out types.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/health", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SubmitInput sends one natural-language input through the pipeline.
func (c *Client) SubmitInput(ctx context.Context, text string) (*types.InputReply, error) {
	var out types.InputReply
	body := map[string]string{"text": text}
	if err := c.do(ctx, http.MethodPost, "/api/v1/input", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListGoals returns the full goal set.
func (c *Client) ListGoals(ctx context.Context) ([]types.Goal, error) {
	var out []types.Goal
	if err := c.do(ctx, http.MethodGet, "/api/v1/goals", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateGoal adds a goal directly, bypassing the classifier.
func (c *Client) CreateGoal(ctx context.Context, title, category string) (*types.Goal, error) {
	var out types.Goal
	body := map[string]string{"title": title, "category": category}
	if err := c.do(ctx, http.MethodPost, "/api/v1/goals", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteGoal removes a goal and all its history.
func (c *Client) DeleteGoal(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/goals/"+id, nil, nil)
}

// Report fetches the analytics report. Returns nil when the store is empty.
func (c *Client) Report(ctx context.Context) (*types.Report, error) {
	var out types.Report
	err := c.do(ctx, http.MethodGet, "/api/v1/report", nil, &out)
	if err != nil {
		return nil, err
	}
	if out.TotalGoals == 0 {
		return nil, nil
	}
	return &out, nil
}

// QueueStatus fetches the offline queue state.
func (c *Client) QueueStatus(ctx context.Context) (*types.QueueStatus, error) {
	var out types.QueueStatus
	if err := c.do(ctx, http.MethodGet, "/api/v1/queue", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do performs one request, decoding problem responses into APIError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Title: http.StatusText(resp.StatusCode)}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
