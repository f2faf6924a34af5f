package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Camera reads frames from a local video device through OpenCV.
type Camera struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.Mutex
	vc     *gocv.VideoCapture
	mat    gocv.Mat
	seq    uint64
	closed bool
}

// OpenCamera opens the device in cfg.
func OpenCamera(cfg Config, logger *slog.Logger) (*Camera, error) {
	if logger == nil {
		logger = slog.Default()
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("capture: open device %d: %w", cfg.Device, err)
	}
	if cfg.Width > 0 && cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.FPS > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.FPS))
	}
	// Buffer a single frame.
	vc.Set(gocv.VideoCaptureBufferSize, 1)

	c := &Camera{
		cfg:    cfg,
		logger: logger.With("component", "capture.camera", "device", cfg.Device),
		vc:     vc,
		mat:    gocv.NewMat(),
	}
	c.logger.Info("camera opened",
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
	)
	return c, nil
}

// Next implements Source.
func (c *Camera) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return Frame{}, ErrClosed
	}
	if ok := c.vc.Read(&c.mat); !ok || c.mat.Empty() {
		return Frame{}, ErrEmptyFrame
	}
	at := time.Now()

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, c.mat, []int{gocv.IMWriteJpegQuality, c.cfg.Quality})
	if err != nil {
		return Frame{}, fmt.Errorf("capture: encode jpeg: %w", err)
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	img, err := c.mat.ToImage()
	if err != nil {
		return Frame{}, fmt.Errorf("capture: convert frame: %w", err)
	}

	c.seq++
	return Frame{Seq: c.seq, At: at, Image: img, JPEG: jpeg}, nil
}

// Close releases the device.
func (c *Camera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.mat.Close()
	return c.vc.Close()
}
