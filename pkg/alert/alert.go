// Package alert raises throttled strain alerts from metrics records.
package alert

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-eyeguard/pkg/pipeline"
)

// Defaults.
const (
	DefaultThreshold = 80
	DefaultCooldown  = 5 * time.Second
)

// Alert is one raised strain alert.
type Alert struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	At          time.Time `json:"at"`
	StrainIndex int       `json:"strain_index"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	Body        string    `json:"body"`
}

// Notifier raises an alert when the strain index goes above the threshold,
// at most once per cooldown.
type Notifier struct {
	threshold int
	cooldown  time.Duration

	mu     sync.Mutex
	last   time.Time
	raised int
}

// New creates a notifier. Zero values take the defaults.
func New(threshold int, cooldown time.Duration) *Notifier {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Notifier{threshold: threshold, cooldown: cooldown}
}

// Check returns an alert for m when it is due. The cooldown is measured on
// record timestamps.
func (n *Notifier) Check(m pipeline.Metrics) (Alert, bool) {
	if m.StrainIndex <= n.threshold {
		return Alert{}, false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.last.IsZero() && m.Timestamp.Sub(n.last) <= n.cooldown {
		return Alert{}, false
	}
	n.last = m.Timestamp
	n.raised++

	return Alert{
		ID:          uuid.NewString(),
		SessionID:   m.SessionID,
		At:          m.Timestamp,
		StrainIndex: m.StrainIndex,
		Title:       "Eye Health Alert",
		Message:     fmt.Sprintf("High Eye Strain Detected: %d/100", m.StrainIndex),
		Body:        fmt.Sprintf("Strain Level Critical: %d. Take a break!", m.StrainIndex),
	}, true
}

// Raised returns how many alerts were raised.
func (n *Notifier) Raised() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.raised
}
