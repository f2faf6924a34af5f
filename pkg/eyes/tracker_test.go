package eyes

import (
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-eyeguard/pkg/landmark"
)

// eyeWith builds an eye whose EAR is exactly ear on a square frame: width 1
// between the corners, both lid pairs ear apart.
func eyeWith(ear float64) [6]landmark.Point {
	return [6]landmark.Point{
		{X: 0.0, Y: 0.5},
		{X: 0.3, Y: 0.5 - ear/2},
		{X: 0.6, Y: 0.5 - ear/2},
		{X: 1.0, Y: 0.5},
		{X: 0.6, Y: 0.5 + ear/2},
		{X: 0.3, Y: 0.5 + ear/2},
	}
}

func TestEAR(t *testing.T) {
	tests := []struct {
		name      string
		eye       [6]landmark.Point
		want      float64
		wantValid bool
	}{
		{"open eye", eyeWith(0.35), 0.35, true},
		{"closed eye", eyeWith(0.05), 0.05, true},
		{
			name: "zero width with tall lids",
			eye: [6]landmark.Point{
				{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.1}, {X: 0.5, Y: 0.2},
				{X: 0.5, Y: 0.5}, {X: 0.5, Y: 0.8}, {X: 0.5, Y: 0.9},
			},
			want:      0,
			wantValid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, valid := EAR(tt.eye, 100, 100)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("EAR() = %v, want %v", got, tt.want)
			}
			if valid != tt.wantValid {
				t.Errorf("EAR() valid = %v, want %v", valid, tt.wantValid)
			}
		})
	}
}

func TestFrameEAR_Averages(t *testing.T) {
	ear, valid := FrameEAR(eyeWith(0.2), eyeWith(0.4), 100, 100)
	if !valid {
		t.Fatal("FrameEAR() should be valid")
	}
	if math.Abs(ear-0.3) > 1e-9 {
		t.Errorf("FrameEAR() = %v, want 0.3", ear)
	}
}

func feed(tr *Tracker, start time.Time, ears ...float64) []Event {
	events := make([]Event, len(ears))
	for i, e := range ears {
		events[i] = tr.Observe(e, true, start.Add(time.Duration(i)*33*time.Millisecond))
	}
	return events
}

func TestTracker_StateMachine(t *testing.T) {
	tests := []struct {
		name           string
		ears           []float64
		wantBlinks     int
		wantIncomplete int
		wantLast       Event
	}{
		{"full blink", []float64{0.35, 0.10, 0.10, 0.35}, 1, 0, FullBlink},
		{"incomplete blink", []float64{0.35, 0.20, 0.20, 0.35}, 0, 1, IncompleteBlink},
		{"eyes stay open", []float64{0.35, 0.35, 0.35}, 0, 0, NoEvent},
		{"spurious dip", []float64{0.35, 0.28, 0.27, 0.35}, 0, 0, SpuriousDip},
		{"minimum decides", []float64{0.35, 0.22, 0.12, 0.24, 0.31}, 1, 0, FullBlink},
		{"open threshold is inclusive", []float64{0.10, 0.30}, 1, 0, FullBlink},
		{"incomplete boundary", []float64{0.25, 0.30}, 0, 0, SpuriousDip},
		{"complete boundary", []float64{0.15, 0.30}, 0, 1, IncompleteBlink},
		{"two blinks", []float64{0.35, 0.1, 0.35, 0.1, 0.35}, 2, 0, FullBlink},
		{"episode still open", []float64{0.35, 0.1, 0.1}, 0, 0, NoEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(0)
			events := feed(tr, time.Unix(0, 0), tt.ears...)

			blinks, incomplete := tr.Counts()
			if blinks != tt.wantBlinks {
				t.Errorf("blinks = %d, want %d", blinks, tt.wantBlinks)
			}
			if incomplete != tt.wantIncomplete {
				t.Errorf("incomplete = %d, want %d", incomplete, tt.wantIncomplete)
			}
			if last := events[len(events)-1]; last != tt.wantLast {
				t.Errorf("last event = %v, want %v", last, tt.wantLast)
			}
		})
	}
}

func TestTracker_DegenerateSampleIgnored(t *testing.T) {
	tr := NewTracker(0)
	now := time.Unix(0, 0)

	tr.Observe(0.35, true, now)
	tr.Observe(0.20, true, now)
	tr.Observe(0, false, now) // one-frame detector glitch
	tr.Observe(0.20, true, now)
	tr.Observe(0.35, true, now)

	blinks, incomplete := tr.Counts()
	if blinks != 0 || incomplete != 1 {
		t.Errorf("counts = (%d, %d), want (0, 1)", blinks, incomplete)
	}

	// A degenerate sample alone never opens an episode.
	tr.Observe(0, false, now)
	if tr.Blinking() {
		t.Error("invalid sample should not start an episode")
	}
}

func TestTracker_Process(t *testing.T) {
	tr := NewTracker(0)
	now := time.Unix(100, 0)

	r := tr.Process(eyeWith(0.35), eyeWith(0.35), 640, 640, now)
	if !r.Valid || math.Abs(r.EAR-0.35) > 1e-9 {
		t.Errorf("open reading = %+v", r)
	}

	tr.Process(eyeWith(0.05), eyeWith(0.05), 640, 640, now)
	r = tr.Process(eyeWith(0.35), eyeWith(0.35), 640, 640, now)
	if r.Event != FullBlink || r.Blinks != 1 {
		t.Errorf("closing reading = %+v", r)
	}
}

func TestTracker_RateAndDry(t *testing.T) {
	tr := NewTracker(0)
	start := time.Unix(1000, 0)

	// 12 blinks, one every 5s, ending at start+55s.
	for i := 0; i < 12; i++ {
		at := start.Add(time.Duration(i*5) * time.Second)
		tr.Observe(0.1, true, at)
		tr.Observe(0.35, true, at)
	}

	now := start.Add(55 * time.Second)
	if got := tr.Rate(now); got != 12 {
		t.Errorf("Rate() = %d, want 12", got)
	}
	if tr.IsDry(now) {
		t.Error("12 blinks per minute should not be dry")
	}

	// At start+60s the first blink is exactly 60s old and still counts.
	if got := tr.Rate(start.Add(60 * time.Second)); got != 12 {
		t.Errorf("Rate() at boundary = %d, want 12", got)
	}

	// One nanosecond later it drops out.
	later := start.Add(60*time.Second + time.Nanosecond)
	if got := tr.Rate(later); got != 11 {
		t.Errorf("Rate() past boundary = %d, want 11", got)
	}
	if !tr.IsDry(later) {
		t.Error("11 blinks per minute should be dry")
	}
}

func TestTracker_TimestampCapacity(t *testing.T) {
	tr := NewTracker(3)
	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		tr.Observe(0.1, true, now)
		tr.Observe(0.35, true, now)
	}

	blinks, _ := tr.Counts()
	if blinks != 5 {
		t.Errorf("blinks = %d, want 5", blinks)
	}
	if got := tr.Rate(now); got != 3 {
		t.Errorf("Rate() = %d, want 3 (bounded history)", got)
	}
}

func TestEvent_String(t *testing.T) {
	if FullBlink.String() != "blink" || NoEvent.String() != "none" {
		t.Errorf("unexpected event names: %s %s", FullBlink, NoEvent)
	}
}
