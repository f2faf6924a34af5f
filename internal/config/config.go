// Package config loads process configuration for go-eyeguard commands.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix, e.g. EYEGUARD_PORT.
const Prefix = "EYEGUARD"

// Config holds the daemon settings. Estimator thresholds that are fixed by
// design live as constants in their packages, not here.
type Config struct {
	// Server
	Port     string `envconfig:"PORT" default:"8000"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Camera
	CameraDevice int  `envconfig:"CAMERA_DEVICE" default:"0"`
	CameraWidth  int  `envconfig:"CAMERA_WIDTH" default:"640"`
	CameraHeight int  `envconfig:"CAMERA_HEIGHT" default:"480"`
	FPS          int  `envconfig:"FPS" default:"15"`
	Preview      bool `envconfig:"PREVIEW" default:"true"`

	// Landmark detection
	LandmarkerURL     string        `envconfig:"LANDMARKER_URL" default:"http://localhost:5001"`
	LandmarkerTimeout time.Duration `envconfig:"LANDMARKER_TIMEOUT" default:"2s"`
	YuNetModel        string        `envconfig:"YUNET_MODEL"` // empty disables the presence gate

	// Distance calibration
	DistanceAlpha float64 `envconfig:"DISTANCE_ALPHA" default:"0.5"`
	FocalLength   float64 `envconfig:"FOCAL_LENGTH" default:"650"`

	// Alerts
	AlertThreshold int           `envconfig:"ALERT_THRESHOLD" default:"80"`
	AlertCooldown  time.Duration `envconfig:"ALERT_COOLDOWN" default:"5s"`

	// Persistence
	DBPath           string        `envconfig:"DB_PATH" default:"eyeguard.db"` // empty disables the store
	SnapshotInterval time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"60s"`
}

// Load reads the configuration from EYEGUARD_* environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.FPS <= 0 {
		return fmt.Errorf("config: FPS must be positive, got %d", c.FPS)
	}
	if c.DistanceAlpha < 0 || c.DistanceAlpha >= 1 {
		return fmt.Errorf("config: DISTANCE_ALPHA must be in [0,1), got %v", c.DistanceAlpha)
	}
	if c.FocalLength <= 0 {
		return fmt.Errorf("config: FOCAL_LENGTH must be positive, got %v", c.FocalLength)
	}
	if c.SnapshotInterval <= 0 {
		return fmt.Errorf("config: SNAPSHOT_INTERVAL must be positive, got %v", c.SnapshotInterval)
	}
	return nil
}

// FrameInterval returns the capture period derived from FPS.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// StoreEnabled reports whether snapshots should be persisted.
func (c *Config) StoreEnabled() bool {
	return c.DBPath != ""
}
