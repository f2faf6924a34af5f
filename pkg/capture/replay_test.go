package capture

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"testing"
	"time"
)

func grays(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		g := image.NewGray(image.Rect(0, 0, 8, 8))
		for j := range g.Pix {
			g.Pix[j] = uint8(40 * i)
		}
		out[i] = g
	}
	return out
}

func TestReplay_Exhausts(t *testing.T) {
	r := NewReplay(grays(2), 0, false)
	ctx := context.Background()

	for want := uint64(1); want <= 2; want++ {
		f, err := r.Next(ctx)
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		if f.Seq != want {
			t.Errorf("Seq = %d, want %d", f.Seq, want)
		}
		if _, err := jpeg.Decode(bytes.NewReader(f.JPEG)); err != nil {
			t.Errorf("JPEG does not decode: %v", err)
		}
	}

	if _, err := r.Next(ctx); !errors.Is(err, ErrExhausted) {
		t.Errorf("err = %v, want ErrExhausted", err)
	}
}

func TestReplay_Loops(t *testing.T) {
	imgs := grays(2)
	r := NewReplay(imgs, 0, true)

	var last Frame
	for i := 0; i < 5; i++ {
		f, err := r.Next(context.Background())
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		last = f
	}
	if last.Seq != 5 || last.Image != imgs[0] {
		t.Errorf("frame 5 = seq %d, want seq 5 with the first image", last.Seq)
	}
}

func TestReplay_CancelAndClose(t *testing.T) {
	r := NewReplay(grays(3), time.Hour, false)

	if _, err := r.Next(context.Background()); err != nil {
		t.Fatalf("first frame should not wait: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Next(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}

	r.Close()
	if _, err := r.Next(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.FPS <= 0 {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
	if cfg.Quality < 1 || cfg.Quality > 100 {
		t.Errorf("Quality = %d, want 1-100", cfg.Quality)
	}
}
