package posture

import (
	"math"
	"sync"
)

// Distance bucket bounds in centimetres.
const (
	TooCloseCM = 40.0
	TooFarCM   = 75.0
)

// Distance labels.
const (
	TooClose = "Too Close"
	Safe     = "Safe"
	TooFar   = "Too Far"
)

// minPixelEyeDistance rejects near-zero eye pairs from spurious detections.
const minPixelEyeDistance = 20.0

// DistanceConfig calibrates the pinhole distance model.
type DistanceConfig struct {
	RealEyeDistanceCM float64 // average outer-corner eye distance
	FocalLength       float64 // camera focal length in pixels
	Alpha             float64 // EMA weight on the previous estimate
	InitialCM         float64 // estimate before the first measurement
}

// DefaultDistanceConfig returns the calibration used by a typical laptop webcam.
func DefaultDistanceConfig() DistanceConfig {
	return DistanceConfig{
		RealEyeDistanceCM: 6.3,
		FocalLength:       650,
		Alpha:             0.5,
		InitialCM:         60,
	}
}

// Reading is the distance estimator output for one frame.
type Reading struct {
	DistanceCM float64 `json:"distance_cm"`
	Valid      bool    `json:"-"` // measured this frame
}

// Risk buckets the distance: too close 1.0, safe 0, too far 0.3.
func (r Reading) Risk() float64 {
	switch {
	case r.DistanceCM < TooCloseCM:
		return 1.0
	case r.DistanceCM <= TooFarCM:
		return 0
	default:
		return 0.3
	}
}

// Label names the distance bucket.
func (r Reading) Label() string {
	switch {
	case r.DistanceCM < TooCloseCM:
		return TooClose
	case r.DistanceCM <= TooFarCM:
		return Safe
	default:
		return TooFar
	}
}

// DistanceEstimator keeps the exponentially smoothed screen distance for a
// session.
type DistanceEstimator struct {
	cfg DistanceConfig

	mu         sync.RWMutex
	distanceCM float64
}

// NewDistanceEstimator creates an estimator starting at cfg.InitialCM.
func NewDistanceEstimator(cfg DistanceConfig) *DistanceEstimator {
	return &DistanceEstimator{cfg: cfg, distanceCM: cfg.InitialCM}
}

// Update blends a new measurement from the two outer eye corners in pixels.
// Pairs closer than the minimum pixel distance leave the estimate unchanged
// and return an invalid reading.
func (e *DistanceEstimator) Update(rightPx, leftPx [2]int) Reading {
	px := math.Hypot(float64(leftPx[0]-rightPx[0]), float64(leftPx[1]-rightPx[1]))

	e.mu.Lock()
	defer e.mu.Unlock()

	if px <= minPixelEyeDistance {
		return Reading{DistanceCM: e.distanceCM}
	}

	raw := e.cfg.RealEyeDistanceCM * e.cfg.FocalLength / px
	e.distanceCM = e.cfg.Alpha*e.distanceCM + (1-e.cfg.Alpha)*raw
	return Reading{DistanceCM: e.distanceCM, Valid: true}
}

// Current returns the persisted estimate without measuring.
func (e *DistanceEstimator) Current() Reading {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Reading{DistanceCM: e.distanceCM}
}
