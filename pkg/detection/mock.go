package detection

import (
	"context"
	"sync"

	"github.com/teslashibe/go-eyeguard/pkg/landmark"
)

// Mock implements Landmarker and Finder for testing.
type Mock struct {
	// DetectFunc is called when Detect is invoked.
	DetectFunc func(ctx context.Context, jpeg []byte) (*landmark.Face, error)

	// FindFunc is called when Find is invoked.
	FindFunc func(jpeg []byte) ([]Detection, error)

	mu      sync.Mutex
	detects int
	finds   int
	closed  bool
}

// NewMock returns a mock that finds nothing.
func NewMock() *Mock {
	return &Mock{}
}

// Detect calls DetectFunc and records the call.
func (m *Mock) Detect(ctx context.Context, jpeg []byte) (*landmark.Face, error) {
	m.mu.Lock()
	m.detects++
	fn := m.DetectFunc
	m.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(ctx, jpeg)
}

// Find calls FindFunc and records the call.
func (m *Mock) Find(jpeg []byte) ([]Detection, error) {
	m.mu.Lock()
	m.finds++
	fn := m.FindFunc
	m.mu.Unlock()

	if fn == nil {
		return nil, nil
	}
	return fn(jpeg)
}

// Close marks the mock closed.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns how many times Detect and Find were invoked.
func (m *Mock) Calls() (detects, finds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detects, m.finds
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
