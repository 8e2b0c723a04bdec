package chainrpc

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

// Request represents a JSON RPC request
type Request struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// Response represents a JSON RPC response
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *Error          `json:"error"`
}

// Error represents an RPC error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Client sends JSON RPC requests to the Monad endpoint with retries and
// exponential backoff.
type Client struct {
	endpoint   string
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     zerolog.Logger
}

// NewClient creates a new chain RPC client
func NewClient(endpoint string, timeout time.Duration, maxRetries int, logger zerolog.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		baseDelay:  250 * time.Millisecond,
		logger:     logger.With().Str("component", "chainrpc").Logger(),
	}
}

// Call performs a JSON RPC call with retry logic. After the retry ceiling
// the last error is returned and the caller's event is marked failed.
func (c *Client) Call(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	for attempt := 0; ; attempt++ {
		result, err := c.callOnce(ctx, method, params)
		if err == nil {
			metrics.RecordRPCRequest("success")
			return result, nil
		}

		c.logger.Warn().
			Err(err).
			Str("method", method).
			Int("attempt", attempt+1).
			Int("max_retries", c.maxRetries).
			Msg("RPC call failed")

		if attempt == c.maxRetries {
			metrics.RecordRPCRequest("failed")
			return nil, fmt.Errorf("rpc call %s failed after %d attempts: %w", method, attempt+1, err)
		}

		// Exponential backoff, capped
		delay := c.baseDelay * time.Duration(1<<attempt)
		if delay > 30*time.Second {
			delay = 30 * time.Second
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			metrics.RecordRPCRequest("cancelled")
			return nil, ctx.Err()
		}
	}
}

// callOnce performs a single JSON RPC request
func (c *Client) callOnce(ctx context.Context, method string, params []interface{}) (json.RawMessage, error) {
	request := Request{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	requestBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RPC request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)

	if err != nil {
		metrics.RecordRPCRequest("error")
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code from %s: %d", c.endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var rpcResponse Response
	if err := json.Unmarshal(body, &rpcResponse); err != nil {
		return nil, fmt.Errorf("failed to unmarshal RPC response: %w", err)
	}

	if rpcResponse.Error != nil {
		return nil, rpcResponse.Error
	}

	if len(rpcResponse.Result) == 0 || string(rpcResponse.Result) == "null" {
		return nil, fmt.Errorf("empty result for %s", method)
	}

	c.logger.Debug().
		Str("method", method).
		Dur("duration", duration).
		Msg("RPC call succeeded")

	return rpcResponse.Result, nil
}
