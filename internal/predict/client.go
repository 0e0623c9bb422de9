// Package predict calls the remote term-deposit prediction service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ashureev/bank-marketing/internal/domain"
)

// ErrPredictionFailed wraps every failure of a prediction call: transport
// errors, non-2xx statuses and malformed bodies alike.
var ErrPredictionFailed = errors.New("prediction failed")

// Predictor scores one client record.
type Predictor interface {
	Predict(ctx context.Context, payload domain.Payload) (*domain.PredictionResult, error)
}

// Ensure Client implements Predictor.
var _ Predictor = (*Client)(nil)

// ClientConfig holds configuration for the HTTP client.
type ClientConfig struct {
	Endpoint string
	// Timeout bounds a whole request. Zero leaves the transport default.
	Timeout time.Duration
}

// Client posts payloads to the prediction endpoint.
type Client struct {
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

// NewClient creates a prediction client for cfg.Endpoint.
func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("predict: endpoint is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint: cfg.Endpoint,
		http:     &http.Client{Timeout: cfg.Timeout},
		logger:   logger,
	}, nil
}

// Endpoint returns the configured prediction URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Predict sends one POST with the JSON-encoded payload and decodes the
// response. No retries are attempted.
func (c *Client) Predict(ctx context.Context, payload domain.Payload) (*domain.PredictionResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: encode payload: %w", ErrPredictionFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrPredictionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Debug("failed to close prediction response body", "error", closeErr)
		}
	}()

	c.logger.Debug("Prediction response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("%w: unexpected status %d", ErrPredictionFailed, resp.StatusCode)
	}

	var result domain.PredictionResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrPredictionFailed, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPredictionFailed, err)
	}

	return &result, nil
}
