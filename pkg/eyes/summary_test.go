package eyes

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/go-eyeguard/pkg/history"
)

func blinkN(tr *Tracker, n int, at time.Time) {
	for i := 0; i < n; i++ {
		tr.Observe(0.1, true, at)
		tr.Observe(0.35, true, at)
	}
}

func incompleteN(tr *Tracker, n int, at time.Time) {
	for i := 0; i < n; i++ {
		tr.Observe(0.2, true, at)
		tr.Observe(0.35, true, at)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Unix(10_000, 0)

	tests := []struct {
		name         string
		setup        func(*Tracker, *history.Samples)
		wantRate     float64
		wantContains []string
		wantMessages int
	}{
		{
			name:         "no data is critically low",
			setup:        func(*Tracker, *history.Samples) {},
			wantRate:     0,
			wantContains: []string{"critically low"},
			wantMessages: 1,
		},
		{
			name: "slightly low",
			setup: func(tr *Tracker, _ *history.Samples) {
				blinkN(tr, 120, now.Add(-5*time.Minute))
			},
			wantRate:     12,
			wantContains: []string{"slightly low"},
			wantMessages: 1,
		},
		{
			name: "good rate ignores old blinks",
			setup: func(tr *Tracker, _ *history.Samples) {
				blinkN(tr, 50, now.Add(-11*time.Minute))
				blinkN(tr, 150, now.Add(-time.Minute))
			},
			wantRate:     15,
			wantContains: []string{"Blink rate is good."},
			wantMessages: 1,
		},
		{
			name: "redness and incomplete blinks",
			setup: func(tr *Tracker, s *history.Samples) {
				blinkN(tr, 200, now)
				incompleteN(tr, 6, now)
				s.Add(0.9)
				s.Add(0.7)
			},
			wantRate: 20,
			wantContains: []string{
				"significant eye redness",
				"Noticed 6 incomplete blinks",
			},
			wantMessages: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(0)
			s := history.NewSamples(DefaultRednessCapacity)
			tt.setup(tr, s)

			sum := Summarize(now, tr, s)
			if math.Abs(sum.BlinkRate-tt.wantRate) > 1e-9 {
				t.Errorf("BlinkRate = %v, want %v", sum.BlinkRate, tt.wantRate)
			}
			if len(sum.Messages) != tt.wantMessages {
				t.Errorf("Messages = %q, want %d entries", sum.Messages, tt.wantMessages)
			}
			for _, want := range tt.wantContains {
				if !strings.Contains(sum.Text, want) {
					t.Errorf("Text %q missing %q", sum.Text, want)
				}
			}
		})
	}
}

func TestSummarize_NilRedness(t *testing.T) {
	sum := Summarize(time.Now(), NewTracker(0), nil)
	if sum.MeanRedness != 0 {
		t.Errorf("MeanRedness = %v, want 0", sum.MeanRedness)
	}
}
