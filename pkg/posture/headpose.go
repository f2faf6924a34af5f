// Package posture estimates head pose from the detector's transformation
// matrix and screen distance from the inter-eye pixel distance.
package posture

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// singularityEpsilon guards the Euler decomposition near gimbal lock.
const singularityEpsilon = 1e-6

// Head position labels.
const (
	HeadDown     = "Head Down"
	HeadUp       = "Head Up"
	LookingRight = "Looking Right"
	LookingLeft  = "Looking Left"
	TiltedRight  = "Tilted Right"
	TiltedLeft   = "Tilted Left"
	GoodPosture  = "Good Posture"

	NoFace         = "No Face"
	DetectionError = "Detection Error"
)

// Overall posture labels.
const (
	Upright        = "Upright"
	LeaningForward = "Leaning Forward"
	UnknownPosture = "Unknown"
)

// Angles are head rotations in degrees.
type Angles struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Rule maps a predicate on the head angles to a head position label.
type Rule struct {
	Label string
	Match func(Angles) bool
}

// Rules is the head position classification, evaluated first match wins.
// Order matters: pitch is checked before yaw, yaw before roll.
var Rules = []Rule{
	{HeadDown, func(a Angles) bool { return a.Pitch > 10 }},
	{HeadUp, func(a Angles) bool { return a.Pitch < -10 }},
	{LookingRight, func(a Angles) bool { return a.Yaw > 15 }},
	{LookingLeft, func(a Angles) bool { return a.Yaw < -15 }},
	{TiltedRight, func(a Angles) bool { return a.Roll > 10 }},
	{TiltedLeft, func(a Angles) bool { return a.Roll < -10 }},
}

// Classify returns the label of the first matching rule, or GoodPosture.
func Classify(a Angles) string {
	for _, r := range Rules {
		if r.Match(a) {
			return r.Label
		}
	}
	return GoodPosture
}

// EulerAngles decomposes a 3x3 rotation matrix into pitch, yaw and roll in
// degrees.
func EulerAngles(r mat.Matrix) Angles {
	sy := math.Sqrt(r.At(0, 0)*r.At(0, 0) + r.At(1, 0)*r.At(1, 0))

	var pitch, yaw, roll float64
	if sy >= singularityEpsilon {
		pitch = math.Atan2(r.At(2, 1), r.At(2, 2))
		yaw = math.Atan2(-r.At(2, 0), sy)
		roll = math.Atan2(r.At(1, 0), r.At(0, 0))
	} else {
		pitch = math.Atan2(-r.At(1, 2), r.At(1, 1))
		yaw = math.Atan2(-r.At(2, 0), sy)
		roll = 0
	}

	return Angles{
		Pitch: degrees(pitch),
		Yaw:   degrees(yaw),
		Roll:  degrees(roll),
	}
}

// Risk grades how far the head is from neutral: 1.0 past the outer bounds,
// 0.5 past the inner bounds, 0 otherwise.
func Risk(a Angles) float64 {
	p, y, r := math.Abs(a.Pitch), math.Abs(a.Yaw), math.Abs(a.Roll)
	switch {
	case p > 15 || y > 20 || r > 15:
		return 1.0
	case p > 10 || y > 15 || r > 10:
		return 0.5
	default:
		return 0
	}
}

// Pose is the head pose estimate for one frame.
type Pose struct {
	Angles
	HeadPosition string  `json:"head_position"`
	Risk         float64 `json:"posture_risk"`
}

// Estimate decomposes the rotation matrix and classifies it. It is a pure
// function of r.
func Estimate(r mat.Matrix) Pose {
	a := EulerAngles(r)
	return Pose{
		Angles:       a,
		HeadPosition: Classify(a),
		Risk:         Risk(a),
	}
}

// Leaning-forward bounds.
const (
	leanPitch    = 12.0
	leanDistance = 50.0
	leanRisk     = 0.7
)

// Assessment combines head pose with the current distance reading.
type Assessment struct {
	Pose
	Overall string `json:"overall"`
	Score   int    `json:"posture_score"`
}

// Assess derives the overall posture and the 0-100 posture score. The
// distance reading only contributes when it was measured this frame.
func Assess(p Pose, d Reading) Assessment {
	a := Assessment{Pose: p, Overall: Upright}

	if d.Valid && p.Pitch > leanPitch && d.DistanceCM < leanDistance {
		a.Overall = LeaningForward
		a.Risk = math.Max(a.Risk, leanRisk)
	}

	a.Score = Score(p.Angles, d)
	return a
}

// Score is 100 minus angle and distance penalties, floored at 0:
// pitch up to 40 points over 30 degrees, yaw up to 30 over 30 degrees,
// roll up to 20 over 25 degrees, and 10 (too close) or 5 (too far) for
// distance when measured this frame.
func Score(a Angles, d Reading) int {
	pitchPenalty := math.Min(math.Abs(a.Pitch)/30, 1) * 40
	yawPenalty := math.Min(math.Abs(a.Yaw)/30, 1) * 30
	rollPenalty := math.Min(math.Abs(a.Roll)/25, 1) * 20

	distancePenalty := 0.0
	if d.Valid {
		switch {
		case d.DistanceCM < TooCloseCM:
			distancePenalty = 10
		case d.DistanceCM > TooFarCM:
			distancePenalty = 5
		}
	}

	score := int(100 - pitchPenalty - yawPenalty - rollPenalty - distancePenalty)
	return max(0, score)
}

// NoSignal is the neutral assessment for frames without a face or a
// transformation matrix. label is NoFace or DetectionError.
func NoSignal(label string) Assessment {
	return Assessment{
		Pose:    Pose{HeadPosition: label},
		Overall: UnknownPosture,
		Score:   100,
	}
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
