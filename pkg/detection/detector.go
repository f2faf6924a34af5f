// Package detection finds a face and its landmark mesh in camera frames.
//
// The landmark mesh comes from a Landmarker, normally the HTTP sidecar
// (Remote). A cheap bounding-box Finder (YuNet) can gate the sidecar so
// empty frames never leave the process.
package detection

import (
	"context"

	"github.com/teslashibe/go-eyeguard/pkg/landmark"
)

// Landmarker returns the landmark mesh and head transform of the best face
// in a JPEG frame. A nil face with a nil error means no face was found.
type Landmarker interface {
	Detect(ctx context.Context, jpeg []byte) (*landmark.Face, error)

	// Close releases resources
	Close() error
}

// Finder is a bounding-box face detector.
type Finder interface {
	Find(jpeg []byte) ([]Detection, error)
	Close() error
}

// Detection is a face bounding box.
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the box.
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the normalized area of the box.
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Config holds YuNet gate configuration.
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence
	MinArea          float64 // Smallest box that counts as the user, normalized
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns defaults for a laptop webcam at desk distance.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.6,
		MinArea:          0.01,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// SelectBest picks the face most likely to be the person at the screen:
// the largest box among those at or above minArea, ties broken by
// confidence. It returns nil when nothing qualifies.
func SelectBest(dets []Detection, minArea float64) *Detection {
	var best *Detection
	for i := range dets {
		d := &dets[i]
		if d.Area() < minArea {
			continue
		}
		if best == nil || d.Area() > best.Area() ||
			(d.Area() == best.Area() && d.Confidence > best.Confidence) {
			best = d
		}
	}
	return best
}
