package detection

import (
	"context"
	"log/slog"

	"github.com/teslashibe/go-eyeguard/pkg/landmark"
)

// Gated runs a bounding-box Finder before the Landmarker and skips the
// landmarker when no qualifying face is in frame. A failing gate is
// bypassed, not propagated.
type Gated struct {
	gate    Finder
	next    Landmarker
	minArea float64
	logger  *slog.Logger
}

// NewGated chains gate in front of next. Faces smaller than minArea
// (normalized) are ignored.
func NewGated(gate Finder, next Landmarker, minArea float64, logger *slog.Logger) *Gated {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gated{
		gate:    gate,
		next:    next,
		minArea: minArea,
		logger:  logger.With("component", "detection.gated"),
	}
}

// Detect implements Landmarker.
func (g *Gated) Detect(ctx context.Context, jpeg []byte) (*landmark.Face, error) {
	dets, err := g.gate.Find(jpeg)
	if err != nil {
		g.logger.Debug("gate failed, asking landmarker", "error", err)
		return g.next.Detect(ctx, jpeg)
	}
	if SelectBest(dets, g.minArea) == nil {
		return nil, nil
	}
	return g.next.Detect(ctx, jpeg)
}

// Close closes both stages and returns the first error.
func (g *Gated) Close() error {
	err := g.gate.Close()
	if nerr := g.next.Close(); err == nil {
		err = nerr
	}
	return err
}
