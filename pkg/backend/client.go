// Package backend is the HTTP client for the local tool backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/papercomputeco/toolrelay/pkg/llm"
	"github.com/papercomputeco/toolrelay/pkg/logger"
)

// ErrMalformedResponse is wrapped by errors for bodies that are not the
// expected JSON envelope.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Path       string
	StatusCode int

	// Message is the backend's {"error": ...} text, or the raw body when the
	// body is not an error envelope.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend %s returned %d", e.Path, e.StatusCode)
	}
	return fmt.Sprintf("backend %s returned %d: %s", e.Path, e.StatusCode, e.Message)
}

// Client issues JSON requests against the tool backend. Every call is bounded
// by the configured timeout.
type Client struct {
	config     Config
	logger     *zap.Logger
	httpClient *http.Client
}

// New creates a new Client.
func New(config Config, logger *zap.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	config.Endpoints = config.Endpoints.withDefaults()

	return &Client{
		config: config,
		logger: logger,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Endpoints returns the resolved endpoint paths.
func (c *Client) Endpoints() Endpoints {
	return c.config.Endpoints
}

// Classify asks the backend which tool should serve prompt and returns its
// raw answer.
func (c *Client) Classify(ctx context.Context, prompt string) (string, error) {
	var resp llm.ClassifyResponse
	if err := c.PostJSON(ctx, c.config.Endpoints.Classify, llm.ClassifyRequest{Prompt: prompt}, &resp); err != nil {
		return "", err
	}
	return resp.Tool, nil
}

// Ping checks that the backend is reachable.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	url := c.config.BaseURL + c.config.Endpoints.Ping
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		body, _ := io.ReadAll(httpResp.Body)
		return statusError(c.config.Endpoints.Ping, httpResp.StatusCode, body)
	}

	return nil
}

// PostJSON POSTs in as JSON to path and decodes the reply into out.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	reqBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	url := c.config.BaseURL + path
	c.logger.Debug("posting to backend",
		zap.String("url", url),
		zap.Int("body_size", len(reqBody)),
	)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		c.logger.Debug("backend returned error",
			zap.String("path", path),
			zap.Int("status", httpResp.StatusCode),
			zap.String("body", logger.Truncate(string(body), 200)),
		)
		return statusError(path, httpResp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w from %s: %v", ErrMalformedResponse, path, err)
	}

	return nil
}

func statusError(path string, code int, body []byte) *StatusError {
	se := &StatusError{Path: path, StatusCode: code}

	var envelope llm.ErrorResponse
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		se.Message = envelope.Error
	} else {
		se.Message = logger.Truncate(strings.TrimSpace(string(body)), 200)
	}

	return se
}
