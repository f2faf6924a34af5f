package pipeline

import (
	"log/slog"

	"github.com/teslashibe/go-eyeguard/pkg/eyes"
	"github.com/teslashibe/go-eyeguard/pkg/posture"
)

// Config holds per-session tuning.
type Config struct {
	// History bounds
	TimestampCapacity int // blink timestamps kept for the rate windows
	RednessCapacity   int // redness ratios kept for the summary mean

	// Distance calibration
	Distance posture.DistanceConfig

	// Detector failures are logged on the first frame of a streak and then
	// every ErrorLogEvery frames.
	ErrorLogEvery int

	// Observability
	Logger *slog.Logger
}

// Option is a functional option for configuring a Session.
type Option func(*Config)

// DefaultConfig returns the session defaults.
func DefaultConfig() Config {
	return Config{
		TimestampCapacity: eyes.DefaultTimestampCapacity,
		RednessCapacity:   eyes.DefaultRednessCapacity,
		Distance:          posture.DefaultDistanceConfig(),
		ErrorLogEvery:     50,
		Logger:            slog.Default(),
	}
}

// WithCapacities sets the blink timestamp and redness history bounds.
func WithCapacities(timestamps, redness int) Option {
	return func(c *Config) {
		c.TimestampCapacity = timestamps
		c.RednessCapacity = redness
	}
}

// WithDistance sets the distance calibration.
func WithDistance(d posture.DistanceConfig) Option {
	return func(c *Config) { c.Distance = d }
}

// WithSmoothing sets the distance EMA weight on the previous estimate.
func WithSmoothing(alpha float64) Option {
	return func(c *Config) { c.Distance.Alpha = alpha }
}

// WithFocalLength sets the camera focal length in pixels.
func WithFocalLength(f float64) Option {
	return func(c *Config) { c.Distance.FocalLength = f }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}
