package customvision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/teslashibe/trafficlens/internal/httpc"
)

// client carries what the training and prediction clients share.
type client struct {
	api       string
	keyHeader string
	endpoint  string
	key       string
	config    *Config
	http      *http.Client
	logger    *slog.Logger
}

func newClient(api, keyHeader string, opts []Option) *client {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpc.NewClient(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &client{
		api:       api,
		keyHeader: keyHeader,
		endpoint:  strings.TrimSuffix(cfg.Endpoint, "/"),
		key:       cfg.Key,
		config:    cfg,
		http:      hc,
		logger:    logger.With("component", "customvision."+api),
	}
}

// do sends a request and returns the response for a 2xx status. Any other
// status is converted to an *APIError. The caller closes the body.
func (c *client) do(ctx context.Context, method, path, contentType string, body []byte) (*http.Response, error) {
	if c.endpoint == "" {
		return nil, ErrNoEndpoint
	}
	if c.key == "" {
		return nil, ErrNoKey
	}

	url := c.endpoint + path
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := httpc.NewRequest(ctx, method, url, reader)
		if err != nil {
			return nil, fmt.Errorf("customvision [%s]: create request: %w", c.api, err)
		}
		req.Header.Set(c.keyHeader, c.key)
		req.Header.Set("Accept", "application/json")
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("customvision [%s]: %w", c.api, err)
			c.logger.Warn("request failed, retrying",
				"attempt", attempt+1,
				"error", err,
			)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		apiErr := c.parseError(resp)
		resp.Body.Close()
		if !apiErr.IsRetryable() {
			return nil, apiErr
		}
		lastErr = apiErr
		c.logger.Warn("retrying request",
			"attempt", attempt+1,
			"status", apiErr.StatusCode,
		)
	}

	return nil, lastErr
}

// parseError reads a Custom Vision error body: {"code": "...", "message": "..."}.
// Some gateway errors wrap it as {"error": {...}}.
func (c *client) parseError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	message := strings.TrimSpace(string(body))
	code := ""
	if json.Unmarshal(body, &errResp) == nil {
		switch {
		case errResp.Message != "":
			message, code = errResp.Message, errResp.Code
		case errResp.Error.Message != "":
			message, code = errResp.Error.Message, errResp.Error.Code
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    message,
		API:        c.api,
	}
}

// Close releases idle connections.
func (c *client) Close() error {
	c.http.CloseIdleConnections()
	return nil
}
