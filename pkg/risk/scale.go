package risk

import "math"

// MaxScale is the top of the shared risk scale.
const MaxScale = 2.0

// BlinkRisk is MaxScale when the blink rate is dry, else 0.
func BlinkRisk(dry bool) float64 {
	if dry {
		return MaxScale
	}
	return 0
}

// RednessRisk maps the redness bucket (0 normal, 1 elevated, 2 high) onto
// the shared scale.
func RednessRisk(bucket int) float64 {
	return clamp(float64(bucket))
}

// UnitRisk doubles a 0-1 risk onto the shared scale. Used for posture and
// distance.
func UnitRisk(r float64) float64 {
	return clamp(r * MaxScale)
}

// LightingRisk passes the light risk through; it is already 0 or 2.
func LightingRisk(r float64) float64 {
	return clamp(r)
}

// StrainIndex rescales a fused score to 0-100.
func StrainIndex(score float64) int {
	s := math.Min(score/MaxScale*100, 100)
	return max(0, int(s))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(v, MaxScale))
}
