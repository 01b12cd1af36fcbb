// Package report delivers final engagement reports to a collaborator
// endpoint with at-least-once semantics.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/trapline-ai/trapline/internal/engagement"
	"github.com/trapline-ai/trapline/pkg/logging"
)

// Config holds the delivery client's tunables.
type Config struct {
	// DefaultURL receives reports when the inbound request carried no
	// callbackUrl. Empty means no default; delivery is skipped.
	DefaultURL string
	// APIKey is sent as X-API-Key on every attempt.
	APIKey string
	// MaxAttempts caps the retry loop.
	MaxAttempts int
	// Backoff is the base delay; attempt n waits n*Backoff (linear).
	Backoff time.Duration
	// Timeout bounds each individual attempt.
	Timeout time.Duration
}

// Client POSTs final reports to a webhook with retries. Implements
// engagement.ReportDeliverer.
type Client struct {
	cfg     Config
	http    *http.Client
	logger  *logging.Logger
	metrics *engagement.Metrics
}

// NewClient creates a delivery client.
func NewClient(cfg Config, logger *logging.Logger, metrics *engagement.Metrics) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
		metrics: metrics,
	}
}

// Deliver POSTs the report to callbackURL, falling back to the configured
// default address. It retries with linear backoff and returns the last
// error only after all attempts are exhausted.
func (c *Client) Deliver(ctx context.Context, callbackURL string, rep engagement.FinalReport) error {
	url := strings.TrimSpace(callbackURL)
	if url == "" {
		url = c.cfg.DefaultURL
	}
	if url == "" {
		c.logger.Warn("no callback url configured, dropping final report", "session_id", rep.SessionID)
		return nil
	}

	body, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("report: failed to marshal final report: %w", err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.cfg.Backoff):
			}
		}

		lastErr = c.post(ctx, url, body)
		if lastErr == nil {
			c.metrics.ObserveDelivery("success")
			c.logger.Info("final report delivered",
				"session_id", rep.SessionID,
				"url", url,
				"attempt", attempt,
			)
			return nil
		}
		c.metrics.ObserveDelivery("failure")
		c.logger.Warn("final report delivery attempt failed",
			"session_id", rep.SessionID,
			"attempt", attempt,
			"error", lastErr.Error(),
		)
	}
	return fmt.Errorf("report: delivery failed after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, url string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("report: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("report: request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("report: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}
