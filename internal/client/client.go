package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"whales/internal/api"
)

// Client talks to a move service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 8 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do posts req and decodes the reply. A non-null error field becomes *api.Error.
func (c *Client) Do(ctx context.Context, req api.Request) (api.Response, error) {
	var out api.Response
	body, err := json.Marshal(req)
	if err != nil {
		return out, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(hreq)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return out, fmt.Errorf("api status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return out, &api.Error{Message: *out.Error}
	}
	return out, nil
}

// ListModels issues list_models.
func (c *Client) ListModels(ctx context.Context) ([]api.ModelInfo, error) {
	resp, err := c.Do(ctx, api.ListModelsRequest())
	if err != nil {
		return nil, err
	}
	return resp.Models, nil
}

// GetMove issues get_move and returns the full updated game record.
func (c *Client) GetMove(ctx context.Context, model, pgn string) (string, error) {
	resp, err := c.Do(ctx, api.GetMoveRequest(model, pgn))
	if err != nil {
		return "", err
	}
	if resp.PGN == nil {
		return "", &api.Error{Message: "empty reply"}
	}
	return *resp.PGN, nil
}
