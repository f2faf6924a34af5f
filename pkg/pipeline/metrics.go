package pipeline

import (
	"math"
	"time"

	"github.com/teslashibe/go-eyeguard/pkg/eyes"
	"github.com/teslashibe/go-eyeguard/pkg/light"
	"github.com/teslashibe/go-eyeguard/pkg/risk"
)

// Metrics is the per-frame record handed to downstream consumers. Values
// are rounded for presentation; classifications were made on the unrounded
// values.
type Metrics struct {
	SessionID string    `json:"session_id"`
	Seq       uint64    `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Face      bool      `json:"face"`

	// Eyes
	EAR              float64           `json:"ear"`
	Blinks           int               `json:"blinks"`
	IncompleteBlinks int               `json:"incomplete_blinks"`
	BlinkRate        int               `json:"blink_rate"`
	Blinking         bool              `json:"blinking"`
	Redness          float64           `json:"redness"`
	RednessLevel     eyes.RednessLevel `json:"redness_level"`
	IsDry            bool              `json:"is_dry"`

	// Posture
	Pitch        float64 `json:"pitch"`
	Yaw          float64 `json:"yaw"`
	Roll         float64 `json:"roll"`
	HeadPosition string  `json:"head_position"`
	Overall      string  `json:"overall"`
	PostureRisk  float64 `json:"posture_risk"`
	PostureScore int     `json:"posture_score"`
	DistanceCM   float64 `json:"distance_cm"`
	DistanceRisk float64 `json:"distance_risk"`

	// Light
	Brightness float64     `json:"brightness"`
	LightLevel light.Level `json:"light_level"`
	LightRisk  float64     `json:"light_risk"`

	// Fusion
	RiskScore   float64    `json:"risk_score"`
	RiskLevel   risk.Level `json:"risk_level"`
	StrainIndex int        `json:"strain_index"`
}

// round rounds v to the given number of decimals. Negative zero comes back
// as zero so records never carry "-0".
func round(v float64, decimals int) float64 {
	p := math.Pow10(decimals)
	r := math.Round(v*p) / p
	if r == 0 {
		return 0
	}
	return r
}
