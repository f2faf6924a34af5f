// Package web serves the EyeGuard dashboard: REST snapshots, websocket
// streams and the Prometheus endpoint.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-eyeguard/pkg/eyes"
	"github.com/teslashibe/go-eyeguard/pkg/hub"
	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
	"github.com/teslashibe/go-eyeguard/pkg/store"
)

// Log entry types, matching the dashboard's styling classes.
const (
	LogInfo    = "info"
	LogWarning = "warning"
	LogDanger  = "danger"
)

const maxLogs = 500

// LogEntry represents a log line for the dashboard
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // info, warning, danger
	Message string `json:"message"`
}

// Session is the read side of a pipeline session.
type Session interface {
	ID() string
	Started() time.Time
	Frames() uint64
	Latest() (pipeline.Metrics, bool)
	Summary(now time.Time) eyes.Summary
}

// History returns persisted snapshots, newest first.
type History interface {
	Recent(ctx context.Context, limit int) ([]store.Snapshot, error)
}

// Option configures a Server.
type Option func(*Server)

// WithHistory enables GET /api/history.
func WithHistory(h History) Option {
	return func(s *Server) { s.history = h }
}

// WithPrometheus mounts h at GET /metrics.
func WithPrometheus(h http.Handler) Option {
	return func(s *Server) { s.prometheus = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// Server is the web dashboard server
type Server struct {
	app    *fiber.App
	port   string
	logger *slog.Logger

	session    Session
	history    History
	prometheus http.Handler

	// Log buffer (last 500 entries)
	logs   []LogEntry
	logsMu sync.RWMutex

	metricsHub *hub.Hub
	logHub     *hub.Hub
	cameraHub  *hub.Hub
}

// NewServer creates the dashboard for session on port.
func NewServer(port string, session Session, opts ...Option) *Server {
	s := &Server{
		port:    port,
		session: session,
		logger:  slog.Default(),
		logs:    make([]LogEntry, 0, maxLogs),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metricsHub = hub.New("metrics", s.logger)
	s.logHub = hub.New("logs", s.logger)
	s.cameraHub = hub.New("camera", s.logger)
	s.logger = s.logger.With("component", "web.Server")

	app := fiber.New(fiber.Config{
		AppName:               "EyeGuard Dashboard",
		DisableStartupMessage: true,
	})

	// CORS for local development
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/metrics", s.handleMetrics)
	api.Get("/summary", s.handleSummary)
	api.Get("/history", s.handleHistory)
	api.Get("/logs", s.handleGetLogs)
	api.Get("/status", s.handleStatus)

	if s.prometheus != nil {
		app.Get("/metrics", adaptor.HTTPHandler(s.prometheus))
	}

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/metrics", websocket.New(s.handleMetricsWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	s.app = app
	return s
}

// Start listens on the configured port and serves until Shutdown. Hubs stop
// when ctx is done.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.port)
	if err != nil {
		return fmt.Errorf("web: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve runs the hubs and serves on ln.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go s.metricsHub.Run(ctx)
	go s.logHub.Run(ctx)
	go s.cameraHub.Run(ctx)

	s.logger.Info("dashboard listening", "addr", ln.Addr().String())
	return s.app.Listener(ln)
}

// PublishMetrics pushes a record to /ws/metrics subscribers.
func (s *Server) PublishMetrics(m pipeline.Metrics) {
	if err := s.metricsHub.BroadcastJSON(m); err != nil {
		s.logger.Warn("encode metrics", "error", err)
	}
}

// AddLog adds a log entry and broadcasts to clients
func (s *Server) AddLog(logType, message string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    logType,
		Message: message,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogs {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	if err := s.logHub.BroadcastJSON(entry); err != nil {
		s.logger.Warn("encode log entry", "error", err)
	}
}

// Logs returns a copy of the buffered entries, oldest first.
func (s *Server) Logs() []LogEntry {
	s.logsMu.RLock()
	defer s.logsMu.RUnlock()
	out := make([]LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// SendCameraFrame sends a JPEG preview frame to /ws/camera subscribers.
func (s *Server) SendCameraFrame(jpegData []byte) {
	s.cameraHub.BroadcastBinary(jpegData)
}

// Hubs returns the metrics, log and camera hubs.
func (s *Server) Hubs() []*hub.Hub {
	return []*hub.Hub{s.metricsHub, s.logHub, s.cameraHub}
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
