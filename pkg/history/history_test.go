package history

import (
	"math"
	"sync"
	"testing"
	"time"
)

func TestTimestamps_CountWithin(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	ts := NewTimestamps(10)
	ts.Add(now.Add(-120 * time.Second))
	ts.Add(now.Add(-61 * time.Second))
	ts.Add(now.Add(-60 * time.Second)) // exactly on the boundary
	ts.Add(now.Add(-59 * time.Second))
	ts.Add(now)

	tests := []struct {
		name   string
		window time.Duration
		want   int
	}{
		{"one minute includes boundary", time.Minute, 3},
		{"two minutes includes all", 2 * time.Minute, 5},
		{"zero window only now", 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ts.CountWithin(now, tt.window); got != tt.want {
				t.Errorf("CountWithin(%v) = %d, want %d", tt.window, got, tt.want)
			}
		})
	}
}

func TestTimestamps_EvictsOldest(t *testing.T) {
	base := time.Unix(0, 0)
	ts := NewTimestamps(3)

	for i := 0; i < 5; i++ {
		ts.Add(base.Add(time.Duration(i) * time.Second))
	}

	if ts.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ts.Len())
	}
	// Entries 0s and 1s were evicted; 2s,3s,4s remain.
	if got := ts.CountWithin(base.Add(4*time.Second), 2*time.Second); got != 3 {
		t.Errorf("CountWithin after eviction = %d, want 3", got)
	}
	if got := ts.CountWithin(base.Add(4*time.Second), time.Second); got != 2 {
		t.Errorf("CountWithin(1s) = %d, want 2", got)
	}
}

func TestTimestamps_MinimumCapacity(t *testing.T) {
	ts := NewTimestamps(0)
	if ts.Cap() != 1 {
		t.Errorf("Cap() = %d, want 1", ts.Cap())
	}
	ts.Add(time.Now())
	ts.Add(time.Now())
	if ts.Len() != 1 {
		t.Errorf("Len() = %d, want 1", ts.Len())
	}
}

func TestSamples_Mean(t *testing.T) {
	s := NewSamples(4)
	if s.Mean() != 0 {
		t.Errorf("empty Mean() = %v, want 0", s.Mean())
	}

	for _, v := range []float64{1, 2, 3, 4} {
		s.Add(v)
	}
	if math.Abs(s.Mean()-2.5) > 1e-12 {
		t.Errorf("Mean() = %v, want 2.5", s.Mean())
	}

	// Pushing two more evicts 1 and 2.
	s.Add(5)
	s.Add(6)
	if s.Len() != 4 {
		t.Errorf("Len() = %d, want 4", s.Len())
	}
	if math.Abs(s.Mean()-4.5) > 1e-12 {
		t.Errorf("Mean() after eviction = %v, want 4.5", s.Mean())
	}
}

func TestSamples_ConcurrentReaders(t *testing.T) {
	s := NewSamples(100)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			s.Add(1)
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if m := s.Mean(); m != 0 && m != 1 {
					t.Errorf("Mean() = %v, want 0 or 1", m)
					return
				}
			}
		}()
	}
	wg.Wait()

	if s.Len() != 100 {
		t.Errorf("Len() = %d, want 100", s.Len())
	}
}
