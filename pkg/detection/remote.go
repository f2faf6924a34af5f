package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-eyeguard/internal/httpc"
	"github.com/teslashibe/go-eyeguard/pkg/landmark"
)

// RemoteConfig configures the landmark sidecar client.
type RemoteConfig struct {
	BaseURL    string // sidecar base URL
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	Logger     *slog.Logger
}

// RemoteOption is a functional option for the sidecar client.
type RemoteOption func(*RemoteConfig)

// DefaultRemoteConfig returns defaults for a sidecar on localhost.
func DefaultRemoteConfig() RemoteConfig {
	return RemoteConfig{
		BaseURL:    "http://localhost:5001",
		Timeout:    2 * time.Second,
		MaxRetries: 1,
		RetryDelay: 50 * time.Millisecond,
		Logger:     slog.Default(),
	}
}

// WithBaseURL sets the sidecar base URL.
func WithBaseURL(url string) RemoteOption {
	return func(c *RemoteConfig) { c.BaseURL = url }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) RemoteOption {
	return func(c *RemoteConfig) { c.Timeout = d }
}

// WithRetry configures retries for retryable failures.
func WithRetry(maxRetries int, delay time.Duration) RemoteOption {
	return func(c *RemoteConfig) {
		c.MaxRetries = maxRetries
		c.RetryDelay = delay
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) RemoteOption {
	return func(c *RemoteConfig) { c.Logger = l }
}

// landmarkResponse is the sidecar's reply to POST /landmarks.
type landmarkResponse struct {
	Faces []landmark.Face `json:"faces"`
}

// Remote posts JPEG frames to a face-landmark sidecar over HTTP and returns
// the first face it reports.
type Remote struct {
	cfg    RemoteConfig
	http   *http.Client
	logger *slog.Logger
	closed atomic.Bool
}

// NewRemote creates a sidecar client.
func NewRemote(opts ...RemoteOption) *Remote {
	cfg := DefaultRemoteConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Remote{
		cfg:    cfg,
		http:   httpc.NewClient(cfg.Timeout),
		logger: cfg.Logger.With("component", "detection.remote"),
	}
}

// Detect implements Landmarker.
func (r *Remote) Detect(ctx context.Context, jpeg []byte) (*landmark.Face, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	if len(jpeg) == 0 {
		return nil, ErrEmptyImage
	}

	resp, err := r.post(ctx, "/landmarks", jpeg)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out landmarkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("detection: decode response: %w", err)
	}
	if len(out.Faces) == 0 {
		return nil, nil
	}

	face := out.Faces[0]
	if len(face.Transform) != 0 && len(face.Transform) != 16 {
		return nil, ErrBadTransform
	}
	return &face, nil
}

// Health checks GET /health on the sidecar.
func (r *Remote) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.cfg.BaseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("detection: create request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("detection: health check: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return parseError(resp)
	}
	return nil
}

// Close releases idle connections. Detect fails with ErrClosed afterwards.
func (r *Remote) Close() error {
	r.closed.Store(true)
	r.http.CloseIdleConnections()
	return nil
}

// post sends the frame, retrying transport errors and retryable statuses.
func (r *Remote) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(r.cfg.RetryDelay * time.Duration(attempt)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+path, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("detection: create request: %w", err)
		}
		req.Header.Set("Content-Type", "image/jpeg")

		resp, err := r.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = fmt.Errorf("detection: post frame: %w", err)
			r.logger.Debug("request failed", "attempt", attempt+1, "error", err)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			return resp, nil
		}

		apiErr := parseError(resp)
		resp.Body.Close()
		if !apiErr.IsRetryable() {
			return nil, apiErr
		}
		lastErr = apiErr
		r.logger.Debug("retrying request", "attempt", attempt+1, "status", apiErr.StatusCode)
	}

	return nil, lastErr
}

// parseError reads a sidecar error body of the form {"error": "..."} or
// plain text.
func parseError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp struct {
		Error string `json:"error"`
	}
	message := strings.TrimSpace(string(body))
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}

	return &APIError{StatusCode: resp.StatusCode, Message: message}
}
