// Package risk fuses per-signal risks into one weighted score and level.
package risk

// Signal names a fused risk input.
type Signal string

const (
	Blink    Signal = "blink"
	Redness  Signal = "redness"
	Posture  Signal = "posture"
	Distance Signal = "distance"
	Lighting Signal = "lighting"
)

// Signals lists the fused inputs in summation order.
var Signals = []Signal{Blink, Redness, Posture, Distance, Lighting}

// Weights are the fixed fusion weights. They sum to 1.
var Weights = map[Signal]float64{
	Blink:    0.25,
	Redness:  0.25,
	Posture:  0.20,
	Distance: 0.15,
	Lighting: 0.15,
}

// Level thresholds on the weighted score.
const (
	MediumFrom = 0.7
	HighFrom   = 1.4
)

// Level is the fused risk bucket.
type Level string

const (
	Low    Level = "Low"
	Medium Level = "Medium"
	High   Level = "High"
)

// LevelOf buckets a fused score.
func LevelOf(score float64) Level {
	switch {
	case score < MediumFrom:
		return Low
	case score < HighFrom:
		return Medium
	default:
		return High
	}
}

// Result is the fused score and its level.
type Result struct {
	Score float64 `json:"risk_score"`
	Level Level   `json:"risk_level"`
}

// Inputs are per-signal risks already on the shared 0-2 scale.
type Inputs map[Signal]float64

// Compute returns the weighted sum of the inputs. Missing signals count as
// zero and unknown signals are ignored. No rescaling happens here.
func Compute(in Inputs) Result {
	var score float64
	for _, sig := range Signals {
		score += in[sig] * Weights[sig]
	}
	return Result{Score: score, Level: LevelOf(score)}
}
