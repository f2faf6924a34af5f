// Package history provides fixed-capacity ring buffers for session time
// series. Buffers evict their oldest entry when full and expose aggregate
// queries only, so the capacity bound cannot be bypassed by callers.
//
// All types are safe for one writer and many concurrent readers.
package history

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// ring is a bounded FIFO. It is not safe for concurrent use on its own.
type ring[T any] struct {
	buf   []T
	start int
	n     int
}

func newRing[T any](capacity int) ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	if r.n < len(r.buf) {
		r.buf[(r.start+r.n)%len(r.buf)] = v
		r.n++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// each visits entries oldest first until fn returns false.
func (r *ring[T]) each(fn func(T) bool) {
	for i := 0; i < r.n; i++ {
		if !fn(r.buf[(r.start+i)%len(r.buf)]) {
			return
		}
	}
}

// Timestamps is a bounded sequence of event times.
type Timestamps struct {
	mu sync.RWMutex
	r  ring[time.Time]
}

// NewTimestamps creates a timestamp buffer holding at most capacity entries.
func NewTimestamps(capacity int) *Timestamps {
	return &Timestamps{r: newRing[time.Time](capacity)}
}

// Add appends t, evicting the oldest entry when full.
func (ts *Timestamps) Add(t time.Time) {
	ts.mu.Lock()
	ts.r.push(t)
	ts.mu.Unlock()
}

// Len returns the number of stored timestamps.
func (ts *Timestamps) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.r.n
}

// Cap returns the buffer capacity.
func (ts *Timestamps) Cap() int {
	return len(ts.r.buf)
}

// CountWithin counts timestamps t with now-t <= window. The boundary is
// inclusive: an entry exactly window old is counted. Entries after now are
// counted as well.
func (ts *Timestamps) CountWithin(now time.Time, window time.Duration) int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	count := 0
	ts.r.each(func(t time.Time) bool {
		if now.Sub(t) <= window {
			count++
		}
		return true
	})
	return count
}

// Samples is a bounded sequence of float measurements.
type Samples struct {
	mu sync.RWMutex
	r  ring[float64]
}

// NewSamples creates a sample buffer holding at most capacity entries.
func NewSamples(capacity int) *Samples {
	return &Samples{r: newRing[float64](capacity)}
}

// Add appends v, evicting the oldest entry when full.
func (s *Samples) Add(v float64) {
	s.mu.Lock()
	s.r.push(v)
	s.mu.Unlock()
}

// Len returns the number of stored samples.
func (s *Samples) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.r.n
}

// Cap returns the buffer capacity.
func (s *Samples) Cap() int {
	return len(s.r.buf)
}

// Mean returns the arithmetic mean of the stored samples, 0 when empty.
func (s *Samples) Mean() float64 {
	s.mu.RLock()
	vals := make([]float64, 0, s.r.n)
	s.r.each(func(v float64) bool {
		vals = append(vals, v)
		return true
	})
	s.mu.RUnlock()

	if len(vals) == 0 {
		return 0
	}
	return stat.Mean(vals, nil)
}
