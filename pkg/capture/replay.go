package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"sync"
	"time"
)

// Replay serves a fixed list of images as frames, paced by interval.
// It backs offline runs and tests.
type Replay struct {
	images   []image.Image
	interval time.Duration
	loop     bool
	now      func() time.Time

	mu     sync.Mutex
	next   int
	seq    uint64
	closed bool
}

// NewReplay creates a replay source. With loop set, the list repeats
// forever; otherwise Next returns ErrExhausted after the last image.
func NewReplay(images []image.Image, interval time.Duration, loop bool) *Replay {
	return &Replay{
		images:   images,
		interval: interval,
		loop:     loop,
		now:      time.Now,
	}
}

// Next implements Source.
func (r *Replay) Next(ctx context.Context) (Frame, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Frame{}, ErrClosed
	}
	if r.next >= len(r.images) {
		if !r.loop || len(r.images) == 0 {
			r.mu.Unlock()
			return Frame{}, ErrExhausted
		}
		r.next = 0
	}
	img := r.images[r.next]
	r.next++
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	if r.interval > 0 && seq > 1 {
		select {
		case <-ctx.Done():
			return Frame{}, ctx.Err()
		case <-time.After(r.interval):
		}
	} else if err := ctx.Err(); err != nil {
		return Frame{}, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return Frame{}, fmt.Errorf("capture: encode jpeg: %w", err)
	}
	return Frame{Seq: seq, At: r.now(), Image: img, JPEG: buf.Bytes()}, nil
}

// Close stops the replay.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}
