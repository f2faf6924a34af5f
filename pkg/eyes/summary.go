package eyes

import (
	"fmt"
	"strings"
	"time"

	"github.com/teslashibe/go-eyeguard/pkg/history"
)

// SummaryWindow is the look-back for the long-window blink rate.
const SummaryWindow = 10 * time.Minute

// Summary thresholds.
const (
	criticalBlinkRate    = 10.0 // blinks per minute
	lowBlinkRate         = 15.0
	significantRedness   = 0.7
	incompleteBlinkLimit = 5
)

// Summary is a read-only aggregation over the session histories.
type Summary struct {
	BlinkRate        float64  `json:"blink_rate_10m"` // blinks per minute over SummaryWindow
	Blinks           int      `json:"blinks"`
	IncompleteBlinks int      `json:"incomplete_blinks"`
	MeanRedness      float64  `json:"mean_redness"`
	Messages         []string `json:"messages"`
	Text             string   `json:"text"`
}

// Summarize builds the long-window health summary. redness may be nil.
func Summarize(now time.Time, t *Tracker, redness *history.Samples) Summary {
	minutes := SummaryWindow.Minutes()
	recent := t.BlinksWithin(now, SummaryWindow)
	blinks, incomplete := t.Counts()

	s := Summary{
		BlinkRate:        float64(recent) / minutes,
		Blinks:           blinks,
		IncompleteBlinks: incomplete,
	}
	if redness != nil {
		s.MeanRedness = redness.Mean()
	}

	switch {
	case s.BlinkRate < criticalBlinkRate:
		s.Messages = append(s.Messages, "Blink rate is critically low. Please blink more often to hydrate your eyes.")
	case s.BlinkRate < lowBlinkRate:
		s.Messages = append(s.Messages, "Blink rate is slightly low.")
	default:
		s.Messages = append(s.Messages, "Blink rate is good.")
	}

	if s.MeanRedness > significantRedness {
		s.Messages = append(s.Messages, "Detected significant eye redness. Consider resting your eyes.")
	}

	if incomplete > incompleteBlinkLimit {
		s.Messages = append(s.Messages,
			fmt.Sprintf("Noticed %d incomplete blinks. Try to close your eyes fully.", incomplete))
	}

	s.Text = strings.Join(s.Messages, " ")
	return s
}
