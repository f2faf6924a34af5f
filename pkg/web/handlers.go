package web

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-eyeguard/pkg/hub"
	"github.com/teslashibe/go-eyeguard/pkg/store"
)

// Status is the GET /api/status body.
type Status struct {
	SessionID     string      `json:"session_id"`
	Started       time.Time   `json:"started"`
	UptimeSeconds float64     `json:"uptime_seconds"`
	Frames        uint64      `json:"frames"`
	Hubs          []hub.Stats `json:"hubs"`
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// handleMetrics returns the latest record
func (s *Server) handleMetrics(c *fiber.Ctx) error {
	m, ok := s.session.Latest()
	if !ok {
		return errorJSON(c, fiber.StatusNotFound, "no frames processed yet")
	}
	return c.JSON(m)
}

func (s *Server) handleSummary(c *fiber.Ctx) error {
	return c.JSON(s.session.Summary(time.Now()))
}

// handleHistory returns persisted snapshots, newest first
func (s *Server) handleHistory(c *fiber.Ctx) error {
	if s.history == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "history store disabled")
	}

	limit := c.QueryInt("limit", store.DefaultLimit)
	if limit <= 0 {
		return errorJSON(c, fiber.StatusBadRequest, "limit must be positive")
	}

	snaps, err := s.history.Recent(c.UserContext(), limit)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, err.Error())
	}
	if snaps == nil {
		snaps = []store.Snapshot{}
	}
	return c.JSON(snaps)
}

// handleGetLogs returns recent log entries
func (s *Server) handleGetLogs(c *fiber.Ctx) error {
	return c.JSON(s.Logs())
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	started := s.session.Started()
	st := Status{
		SessionID:     s.session.ID(),
		Started:       started,
		UptimeSeconds: time.Since(started).Round(time.Second).Seconds(),
		Frames:        s.session.Frames(),
	}
	for _, h := range s.Hubs() {
		st.Hubs = append(st.Hubs, h.Stats())
	}
	return c.JSON(st)
}

// handleMetricsWS streams records, starting with the latest one.
func (s *Server) handleMetricsWS(c *websocket.Conn) {
	var initial []hub.Message
	if m, ok := s.session.Latest(); ok {
		if data, err := json.Marshal(m); err == nil {
			initial = append(initial, hub.NewJSONMessage(data))
		}
	}
	s.serveClient(s.metricsHub, c, initial...)
}

// handleLogsWS replays the log buffer, then streams new entries.
func (s *Server) handleLogsWS(c *websocket.Conn) {
	logs := s.Logs()
	initial := make([]hub.Message, 0, len(logs))
	for _, entry := range logs {
		data, err := json.Marshal(entry)
		if err != nil {
			continue
		}
		initial = append(initial, hub.NewJSONMessage(data))
	}
	s.serveClient(s.logHub, c, initial...)
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	s.serveClient(s.cameraHub, c)
}

func (s *Server) serveClient(h *hub.Hub, c *websocket.Conn, initial ...hub.Message) {
	client := hub.NewClient(h, c, initial...)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}
