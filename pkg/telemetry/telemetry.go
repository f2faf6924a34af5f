// Package telemetry exports frame processing metrics to Prometheus.
package telemetry

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/go-eyeguard/pkg/hub"
	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
)

const namespace = "eyeguard"

// Frame outcomes for the frames counter.
const (
	OutcomeFace   = "face"
	OutcomeNoFace = "no_face"
	OutcomeError  = "error"
)

// Collector owns a private registry with the monitor's metrics.
type Collector struct {
	registry *prometheus.Registry

	frames        *prometheus.CounterVec
	frameDuration prometheus.Histogram
	blinks        *prometheus.CounterVec
	captureErrors prometheus.Counter
	alerts        prometheus.Counter
	snapshots     prometheus.Counter

	blinkRate   prometheus.Gauge
	redness     prometheus.Gauge
	distance    prometheus.Gauge
	brightness  prometheus.Gauge
	riskScore   prometheus.Gauge
	strainIndex prometheus.Gauge
	riskLevel   *prometheus.GaugeVec

	mu             sync.Mutex
	lastBlinks     int
	lastIncomplete int
}

// New creates a collector and registers its metrics.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames processed, by detection outcome.",
		}, []string{"outcome"}),
		frameDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_duration_seconds",
			Help:      "Time from capture to metrics record.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1},
		}),
		blinks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blinks_total",
			Help:      "Blinks detected, by kind.",
		}, []string{"kind"}),
		captureErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_errors_total",
			Help:      "Frames the camera failed to deliver.",
		}),
		alerts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "strain_alerts_total",
			Help:      "Strain alerts raised.",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Session snapshots persisted.",
		}),
		blinkRate:   gauge("blink_rate", "Full blinks in the last minute."),
		redness:     gauge("redness_ratio", "Latest frame redness ratio."),
		distance:    gauge("distance_cm", "Smoothed screen distance in centimetres."),
		brightness:  gauge("brightness", "Mean frame brightness (0-255)."),
		riskScore:   gauge("risk_score", "Fused risk score (0-2)."),
		strainIndex: gauge("strain_index", "Strain index (0-100)."),
		riskLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "risk_level",
			Help:      "1 for the current risk level, 0 otherwise.",
		}, []string{"level"}),
	}

	c.registry.MustRegister(
		c.frames, c.frameDuration, c.blinks, c.captureErrors, c.alerts, c.snapshots,
		c.blinkRate, c.redness, c.distance, c.brightness, c.riskScore, c.strainIndex,
		c.riskLevel,
	)
	return c
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

// Observe records one frame. detectErr is true when the detector failed.
func (c *Collector) Observe(m pipeline.Metrics, detectErr bool, took time.Duration) {
	switch {
	case detectErr:
		c.frames.WithLabelValues(OutcomeError).Inc()
	case m.Face:
		c.frames.WithLabelValues(OutcomeFace).Inc()
	default:
		c.frames.WithLabelValues(OutcomeNoFace).Inc()
	}
	c.frameDuration.Observe(took.Seconds())

	c.mu.Lock()
	if d := m.Blinks - c.lastBlinks; d > 0 {
		c.blinks.WithLabelValues("full").Add(float64(d))
	}
	if d := m.IncompleteBlinks - c.lastIncomplete; d > 0 {
		c.blinks.WithLabelValues("incomplete").Add(float64(d))
	}
	c.lastBlinks, c.lastIncomplete = m.Blinks, m.IncompleteBlinks
	c.mu.Unlock()

	c.blinkRate.Set(float64(m.BlinkRate))
	c.redness.Set(m.Redness)
	c.distance.Set(m.DistanceCM)
	c.brightness.Set(m.Brightness)
	c.riskScore.Set(m.RiskScore)
	c.strainIndex.Set(float64(m.StrainIndex))

	c.riskLevel.Reset()
	c.riskLevel.WithLabelValues(string(m.RiskLevel)).Set(1)
}

// CaptureError counts a failed camera read.
func (c *Collector) CaptureError() { c.captureErrors.Inc() }

// Alert counts a raised strain alert.
func (c *Collector) Alert() { c.alerts.Inc() }

// Snapshot counts a persisted snapshot.
func (c *Collector) Snapshot() { c.snapshots.Inc() }

// WatchHub exports the subscriber count and drop counters of a hub.
func (c *Collector) WatchHub(h *hub.Hub) {
	labels := prometheus.Labels{"hub": h.Stats().Name}
	c.registry.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "hub_clients",
			Help:        "Connected websocket subscribers.",
			ConstLabels: labels,
		}, func() float64 { return float64(h.ClientCount()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "hub_dropped_total",
			Help:        "Broadcasts dropped because the hub queue was full.",
			ConstLabels: labels,
		}, func() float64 { return float64(h.Stats().Dropped) }),
	)
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
