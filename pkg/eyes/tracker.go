package eyes

import (
	"sync"
	"time"

	"github.com/teslashibe/go-eyeguard/pkg/history"
	"github.com/teslashibe/go-eyeguard/pkg/landmark"
)

// Blink thresholds on the frame EAR. CompleteThreshold < IncompleteThreshold
// < OpenThreshold.
const (
	OpenThreshold       = 0.30
	IncompleteThreshold = 0.25
	CompleteThreshold   = 0.15
)

// Blink rate parameters.
const (
	RateWindow       = 60 * time.Second
	DryRateThreshold = 12 // blinks per RateWindow
)

// Default buffer capacities.
const (
	DefaultTimestampCapacity = 2000
	DefaultRednessCapacity   = 1000
)

// Event is the outcome of a closed-to-open transition.
type Event int

const (
	// NoEvent means the sample did not end an episode.
	NoEvent Event = iota
	// FullBlink is an episode whose minimum EAR fell below CompleteThreshold.
	FullBlink
	// IncompleteBlink is an episode whose minimum fell below IncompleteThreshold only.
	IncompleteBlink
	// SpuriousDip is an episode that never fell below IncompleteThreshold.
	SpuriousDip
)

func (e Event) String() string {
	switch e {
	case FullBlink:
		return "blink"
	case IncompleteBlink:
		return "incomplete_blink"
	case SpuriousDip:
		return "spurious"
	default:
		return "none"
	}
}

// Reading is the tracker output for one frame.
type Reading struct {
	EAR              float64
	Valid            bool
	Blinks           int
	IncompleteBlinks int
	Event            Event
}

// Tracker runs the blink state machine for one camera session.
// Process is the only mutator; the read accessors may be called from other
// goroutines.
type Tracker struct {
	mu         sync.RWMutex
	blinking   bool
	minEAR     float64
	blinks     int
	incomplete int

	timestamps *history.Timestamps
}

// NewTracker creates a tracker whose blink timestamp history holds at most
// capacity entries (DefaultTimestampCapacity if capacity <= 0).
func NewTracker(capacity int) *Tracker {
	if capacity <= 0 {
		capacity = DefaultTimestampCapacity
	}
	return &Tracker{
		minEAR:     1.0,
		timestamps: history.NewTimestamps(capacity),
	}
}

// Process computes the frame EAR from both eyes and advances the state machine.
func (t *Tracker) Process(left, right [6]landmark.Point, w, h int, now time.Time) Reading {
	ear, valid := FrameEAR(left, right, w, h)
	ev := t.Observe(ear, valid, now)

	blinks, incomplete := t.Counts()
	return Reading{
		EAR:              ear,
		Valid:            valid,
		Blinks:           blinks,
		IncompleteBlinks: incomplete,
		Event:            ev,
	}
}

// Observe feeds one EAR sample to the state machine. Invalid samples come
// from degenerate eye geometry and are ignored: they neither start, extend
// nor end an episode.
func (t *Tracker) Observe(ear float64, valid bool, now time.Time) Event {
	if !valid {
		return NoEvent
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if ear < OpenThreshold {
		if !t.blinking {
			t.blinking = true
			t.minEAR = ear
		} else if ear < t.minEAR {
			t.minEAR = ear
		}
		return NoEvent
	}

	if !t.blinking {
		return NoEvent
	}
	t.blinking = false

	switch {
	case t.minEAR < CompleteThreshold:
		t.blinks++
		t.timestamps.Add(now)
		return FullBlink
	case t.minEAR < IncompleteThreshold:
		t.incomplete++
		return IncompleteBlink
	default:
		return SpuriousDip
	}
}

// Counts returns the cumulative full and incomplete blink counts.
func (t *Tracker) Counts() (blinks, incomplete int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.blinks, t.incomplete
}

// Blinking reports whether an episode is in progress.
func (t *Tracker) Blinking() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.blinking
}

// Rate returns the number of full blinks within RateWindow of now.
func (t *Tracker) Rate(now time.Time) int {
	return t.timestamps.CountWithin(now, RateWindow)
}

// BlinksWithin returns the number of full blinks within window of now.
func (t *Tracker) BlinksWithin(now time.Time, window time.Duration) int {
	return t.timestamps.CountWithin(now, window)
}

// IsDry reports a dry-eye risk: fewer than DryRateThreshold blinks in the
// last minute.
func (t *Tracker) IsDry(now time.Time) bool {
	return t.Rate(now) < DryRateThreshold
}
