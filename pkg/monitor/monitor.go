// Package monitor runs the capture loop: frames flow from a source through
// the landmark detector into a pipeline session, and each record fans out
// to the dashboard, telemetry, alerts and the snapshot store.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teslashibe/go-eyeguard/pkg/alert"
	"github.com/teslashibe/go-eyeguard/pkg/capture"
	"github.com/teslashibe/go-eyeguard/pkg/detection"
	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
	"github.com/teslashibe/go-eyeguard/pkg/risk"
	"github.com/teslashibe/go-eyeguard/pkg/store"
	"github.com/teslashibe/go-eyeguard/pkg/telemetry"
)

// ErrCaptureFailed is returned when the source keeps failing.
var ErrCaptureFailed = errors.New("monitor: capture failed")

// Log entry types understood by the dashboard.
const (
	logInfo    = "info"
	logWarning = "warning"
	logDanger  = "danger"
)

// Publisher receives records and log lines for the dashboard.
type Publisher interface {
	PublishMetrics(m pipeline.Metrics)
	AddLog(logType, message string)
	SendCameraFrame(jpeg []byte)
}

// Recorder persists snapshots.
type Recorder interface {
	Record(ctx context.Context, snap store.Snapshot) error
}

// Config holds loop settings.
type Config struct {
	DetectTimeout      time.Duration // per-frame landmark deadline
	SnapshotInterval   time.Duration // 0 disables snapshots
	Preview            bool          // forward JPEG frames to the publisher
	MaxCaptureFailures int           // consecutive source errors before giving up
	RetryDelay         time.Duration // wait after a failed capture
	Logger             *slog.Logger
}

// Option is a functional option for configuring a Monitor.
type Option func(*Monitor)

// DefaultConfig returns the loop defaults.
func DefaultConfig() Config {
	return Config{
		DetectTimeout:      2 * time.Second,
		SnapshotInterval:   time.Minute,
		MaxCaptureFailures: 30,
		RetryDelay:         100 * time.Millisecond,
		Logger:             slog.Default(),
	}
}

// WithConfig replaces the loop settings.
func WithConfig(cfg Config) Option {
	return func(m *Monitor) { m.cfg = cfg }
}

// WithPublisher sends records and log lines to p.
func WithPublisher(p Publisher) Option {
	return func(m *Monitor) { m.publisher = p }
}

// WithTelemetry records frame metrics in c.
func WithTelemetry(c *telemetry.Collector) Option {
	return func(m *Monitor) { m.telemetry = c }
}

// WithAlerts raises strain alerts through n.
func WithAlerts(n *alert.Notifier) Option {
	return func(m *Monitor) { m.alerts = n }
}

// WithRecorder persists snapshots to r.
func WithRecorder(r Recorder) Option {
	return func(m *Monitor) { m.recorder = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) { m.cfg.Logger = l }
}

// Monitor owns the frame loop for one session.
type Monitor struct {
	cfg    Config
	logger *slog.Logger

	source   capture.Source
	detector detection.Landmarker
	session  *pipeline.Session

	publisher Publisher
	telemetry *telemetry.Collector
	alerts    *alert.Notifier
	recorder  Recorder

	detectorDown bool
	lastLevel    risk.Level
}

// New creates a monitor. The source and detector are owned by the caller.
func New(source capture.Source, detector detection.Landmarker, session *pipeline.Session, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:      DefaultConfig(),
		source:   source,
		detector: detector,
		session:  session,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.Logger == nil {
		m.cfg.Logger = slog.Default()
	}
	if m.cfg.MaxCaptureFailures <= 0 {
		m.cfg.MaxCaptureFailures = 1
	}
	m.logger = m.cfg.Logger.With("component", "monitor.Monitor", "session", session.ID())
	return m
}

// Run processes frames in capture order until ctx is done or the source is
// exhausted. It returns nil on either, and ErrCaptureFailed when the source
// fails MaxCaptureFailures times in a row.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("monitor started")
	m.log(logInfo, "System connected to EyeGuardian Core.")

	var snapshots <-chan time.Time
	if m.recorder != nil && m.cfg.SnapshotInterval > 0 {
		ticker := time.NewTicker(m.cfg.SnapshotInterval)
		defer ticker.Stop()
		snapshots = ticker.C
	}

	failures := 0
	for {
		select {
		case <-ctx.Done():
			m.finish(ctx)
			return nil
		case <-snapshots:
			m.snapshot(ctx)
		default:
		}

		frame, err := m.source.Next(ctx)
		switch {
		case err == nil:
			failures = 0
		case ctx.Err() != nil:
			m.finish(ctx)
			return nil
		case errors.Is(err, capture.ErrExhausted):
			m.logger.Info("source exhausted", "frames", m.session.Frames())
			m.finish(ctx)
			return nil
		default:
			failures++
			if m.telemetry != nil {
				m.telemetry.CaptureError()
			}
			if failures == 1 {
				m.logger.Warn("capture failed", "error", err)
			}
			if failures >= m.cfg.MaxCaptureFailures || errors.Is(err, capture.ErrClosed) {
				m.log(logDanger, "Camera unavailable.")
				return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
			}
			if !sleep(ctx, m.cfg.RetryDelay) {
				m.finish(ctx)
				return nil
			}
			continue
		}

		m.Process(ctx, frame)
	}
}

// Process runs one frame through detection and the session and fans the
// record out. It returns the record.
func (m *Monitor) Process(ctx context.Context, frame capture.Frame) pipeline.Metrics {
	start := time.Now()

	dctx := ctx
	if m.cfg.DetectTimeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, m.cfg.DetectTimeout)
		defer cancel()
	}
	face, err := m.detector.Detect(dctx, frame.JPEG)
	m.noteDetector(err)

	rec := m.session.Process(pipeline.Input{
		Seq:   frame.Seq,
		At:    frame.At,
		Image: frame.Image,
		Face:  face,
		Err:   err,
	})

	if m.telemetry != nil {
		m.telemetry.Observe(rec, err != nil, time.Since(start))
	}
	if m.publisher != nil {
		m.publisher.PublishMetrics(rec)
		if m.cfg.Preview && len(frame.JPEG) > 0 {
			m.publisher.SendCameraFrame(frame.JPEG)
		}
	}
	m.noteLevel(rec)

	if m.alerts != nil {
		if a, ok := m.alerts.Check(rec); ok {
			m.logger.Warn(a.Title, "strain_index", a.StrainIndex, "alert", a.ID)
			m.log(logDanger, a.Message)
			m.log(logWarning, a.Body)
			if m.telemetry != nil {
				m.telemetry.Alert()
			}
		}
	}
	return rec
}

// noteDetector logs transitions between a working and a failing detector.
func (m *Monitor) noteDetector(err error) {
	switch {
	case err != nil && !m.detectorDown:
		m.detectorDown = true
		m.log(logWarning, "Landmark detector unavailable: "+err.Error())
	case err == nil && m.detectorDown:
		m.detectorDown = false
		m.logger.Info("detector recovered")
		m.log(logInfo, "Landmark detector recovered.")
	}
}

func (m *Monitor) noteLevel(rec pipeline.Metrics) {
	if rec.RiskLevel == m.lastLevel {
		return
	}
	prev := m.lastLevel
	m.lastLevel = rec.RiskLevel
	if prev == "" {
		return
	}
	switch rec.RiskLevel {
	case risk.High:
		m.log(logWarning, "Risk level is High.")
	case risk.Low:
		if prev == risk.High {
			m.log(logInfo, "Risk level back to Low.")
		}
	}
}

// snapshot persists the latest record.
func (m *Monitor) snapshot(ctx context.Context) {
	rec, ok := m.session.Latest()
	if !ok || m.recorder == nil {
		return
	}
	snap := store.FromMetrics(rec, m.session.MeanRedness())
	if err := m.recorder.Record(ctx, snap); err != nil {
		m.logger.Error("snapshot failed", "error", err)
		return
	}
	if m.telemetry != nil {
		m.telemetry.Snapshot()
	}
	m.logger.Debug("snapshot recorded", "strain_index", snap.StrainIndex)
}

// finish writes a final snapshot on a fresh context.
func (m *Monitor) finish(ctx context.Context) {
	if m.recorder != nil {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		m.snapshot(sctx)
	}
	m.logger.Info("monitor stopped", "frames", m.session.Frames())
}

func (m *Monitor) log(logType, message string) {
	if m.publisher != nil {
		m.publisher.AddLog(logType, message)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
