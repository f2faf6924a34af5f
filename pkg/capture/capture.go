// Package capture produces camera frames for the monitor loop.
package capture

import (
	"context"
	"errors"
	"image"
	"time"
)

// Sentinel errors.
var (
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("capture: device closed")

	// ErrEmptyFrame is returned when the device yields no pixels.
	ErrEmptyFrame = errors.New("capture: empty frame")

	// ErrExhausted is returned when a finite source runs out of frames.
	ErrExhausted = errors.New("capture: no more frames")
)

// Frame is one captured image in both decoded and JPEG form.
type Frame struct {
	Seq   uint64
	At    time.Time
	Image image.Image
	JPEG  []byte
}

// Source yields frames in capture order. Next blocks until a frame is
// available or ctx is done.
type Source interface {
	Next(ctx context.Context) (Frame, error)
	Close() error
}

// Config holds camera settings.
type Config struct {
	Device  int // OS camera index
	Width   int // requested frame width
	Height  int // requested frame height
	FPS     int // requested frame rate
	Quality int // JPEG quality 1-100
}

// DefaultConfig returns settings for a typical built-in webcam.
func DefaultConfig() Config {
	return Config{
		Device:  0,
		Width:   640,
		Height:  480,
		FPS:     15,
		Quality: 80,
	}
}
