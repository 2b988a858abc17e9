package loki

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mumzworld-tech/lifecyclerunner/internal/config"
)

const baseBackoff = 100 * time.Millisecond

// Client pushes log streams to the Loki HTTP API
type Client struct {
	endpoint             string
	httpClient           *http.Client
	username             string
	password             string
	apiKey               string
	tenantID             string
	enableGzip           bool
	compressionThreshold int
	maxRetries           int
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		endpoint:             cfg.LokiEndpoint,
		httpClient:           &http.Client{Timeout: 5 * time.Second},
		username:             cfg.LokiUsername,
		password:             cfg.LokiPassword,
		apiKey:               cfg.LokiAPIKey,
		tenantID:             cfg.LokiTenantID,
		enableGzip:           cfg.EnableGzip,
		compressionThreshold: cfg.CompressionThreshold,
		maxRetries:           cfg.MaxRetries,
	}
}

// Push sends req, retrying 429 and 5xx responses with exponential backoff.
func (c *Client) Push(ctx context.Context, req *PushRequest) error {
	if req == nil || len(req.Streams) == 0 {
		return nil
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal push request: %w", err)
	}

	var encoding string
	if c.enableGzip && len(body) > c.compressionThreshold {
		if body, err = gzipBytes(body); err != nil {
			return err
		}
		encoding = "gzip"
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// 100ms, 200ms, 400ms, ...
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(baseBackoff << (attempt - 1)):
			}
		}

		lastErr = c.send(ctx, body, encoding)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) {
			return lastErr
		}
	}

	return fmt.Errorf("push failed after %d retries: %w", c.maxRetries, lastErr)
}

func (c *Client) send(ctx context.Context, body []byte, encoding string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if encoding != "" {
		req.Header.Set("Content-Encoding", encoding)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if c.tenantID != "" {
		req.Header.Set("X-Scope-OrgID", c.tenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &retryableError{err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err = fmt.Errorf("push failed with status %d: %s", resp.StatusCode, respBody)
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &retryableError{err: err}
	}
	return err
}

func gzipBytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(b); err != nil {
		return nil, fmt.Errorf("failed to gzip body: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close gzip writer: %w", err)
	}
	return buf.Bytes(), nil
}

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
