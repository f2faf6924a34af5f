// Package client subscribes to the EyeGuard metrics stream.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
)

const (
	// DefaultURL is the daemon's metrics stream on localhost.
	DefaultURL = "ws://localhost:8000/ws/metrics"

	// DefaultReconnectDelay is the fixed wait between connection attempts.
	DefaultReconnectDelay = 3 * time.Second

	handshakeTimeout = 10 * time.Second
)

// Config configures a Subscriber.
type Config struct {
	URL            string
	ReconnectDelay time.Duration
	Logger         *slog.Logger

	OnMetrics    func(pipeline.Metrics) // called for each record
	OnConnected  func()
	OnDisconnect func(err error)
}

// Option is a functional option for configuring a Subscriber.
type Option func(*Config)

// DefaultConfig returns the subscriber defaults.
func DefaultConfig() Config {
	return Config{
		URL:            DefaultURL,
		ReconnectDelay: DefaultReconnectDelay,
		Logger:         slog.Default(),
	}
}

// WithURL sets the stream URL.
func WithURL(url string) Option {
	return func(c *Config) { c.URL = url }
}

// WithReconnectDelay sets the wait between connection attempts.
func WithReconnectDelay(d time.Duration) Option {
	return func(c *Config) { c.ReconnectDelay = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) { c.Logger = l }
}

// OnMetrics sets the record callback.
func OnMetrics(fn func(pipeline.Metrics)) Option {
	return func(c *Config) { c.OnMetrics = fn }
}

// OnConnected sets the connect callback.
func OnConnected(fn func()) Option {
	return func(c *Config) { c.OnConnected = fn }
}

// OnDisconnect sets the disconnect callback.
func OnDisconnect(fn func(error)) Option {
	return func(c *Config) { c.OnDisconnect = fn }
}

// Subscriber reads metrics records and reconnects after any loss.
type Subscriber struct {
	cfg    Config
	logger *slog.Logger
	dialer websocket.Dialer

	connected atomic.Bool
	received  atomic.Uint64
	attempts  atomic.Uint64
}

// New creates a subscriber.
func New(opts ...Option) (*Subscriber, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.URL == "" {
		return nil, errors.New("client: URL is required")
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Subscriber{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "client.Subscriber", "url", cfg.URL),
		dialer: websocket.Dialer{HandshakeTimeout: handshakeTimeout},
	}, nil
}

// Run connects and reads until ctx is done, reconnecting after every loss.
// It returns ctx.Err().
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		err := s.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Warn("connection lost, reconnecting", "error", err, "delay", s.cfg.ReconnectDelay)

		timer := time.NewTimer(s.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// session runs one connection to completion.
func (s *Subscriber) session(ctx context.Context) error {
	s.attempts.Add(1)

	conn, resp, err := s.dialer.DialContext(ctx, s.cfg.URL, nil)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("client: dial (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("client: dial: %w", err)
	}
	defer conn.Close()

	s.connected.Store(true)
	s.logger.Info("connected")
	if s.cfg.OnConnected != nil {
		s.cfg.OnConnected()
	}

	// Unblock ReadMessage on cancellation.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	err = s.readLoop(conn)

	s.connected.Store(false)
	if s.cfg.OnDisconnect != nil {
		s.cfg.OnDisconnect(err)
	}
	return err
}

func (s *Subscriber) readLoop(conn *websocket.Conn) error {
	for {
		typ, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if typ != websocket.TextMessage {
			continue
		}

		var m pipeline.Metrics
		if err := json.Unmarshal(data, &m); err != nil {
			s.logger.Debug("skipping malformed record", "error", err)
			continue
		}
		s.received.Add(1)
		if s.cfg.OnMetrics != nil {
			s.cfg.OnMetrics(m)
		}
	}
}

// IsConnected reports whether a connection is open.
func (s *Subscriber) IsConnected() bool { return s.connected.Load() }

// Received returns the number of records decoded.
func (s *Subscriber) Received() uint64 { return s.received.Load() }

// Attempts returns the number of connection attempts.
func (s *Subscriber) Attempts() uint64 { return s.attempts.Load() }
