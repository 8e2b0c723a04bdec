// Package kvlist mirrors the tracked-wallet list to a hosted key-value
// list so webhook filters stay in sync with the database.
package kvlist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/montrack/montrack/internal/metrics"
	"github.com/rs/zerolog"
)

const requestTimeout = 10 * time.Second

// Client talks to the key-value list REST API. All mirror operations are
// best-effort from the caller's point of view; the database stays the
// source of truth.
type Client struct {
	baseURL    string
	apiKey     string
	listKey    string
	httpClient *http.Client
	logger     zerolog.Logger
}

// NewClient creates a key-value list client for the given list key.
func NewClient(baseURL, apiKey, listKey string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		listKey:    listKey,
		httpClient: &http.Client{Timeout: requestTimeout},
		logger:     logger.With().Str("component", "kvlist").Logger(),
	}
}

type patchRequest struct {
	AddItems    []string `json:"addItems,omitempty"`
	RemoveItems []string `json:"removeItems,omitempty"`
}

// AddItems appends addresses to the remote list.
func (c *Client) AddItems(ctx context.Context, items ...string) error {
	return c.patch(ctx, patchRequest{AddItems: items})
}

// RemoveItems removes addresses from the remote list.
func (c *Client) RemoveItems(ctx context.Context, items ...string) error {
	return c.patch(ctx, patchRequest{RemoveItems: items})
}

func (c *Client) patch(ctx context.Context, body patchRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal list patch: %w", err)
	}

	url := fmt.Sprintf("%s/lists/%s", c.baseURL, c.listKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create list request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordKVListRequest("error")
		return fmt.Errorf("list request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.RecordKVListRequest("error")
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("list request returned status %d: %s", resp.StatusCode, snippet)
	}

	metrics.RecordKVListRequest("success")
	c.logger.Debug().
		Int("added", len(body.AddItems)).
		Int("removed", len(body.RemoveItems)).
		Msg("Key-value list updated")
	return nil
}
