// Package eyes tracks eye-openness and blinking, and estimates ocular redness.
package eyes

import (
	"github.com/teslashibe/go-eyeguard/pkg/landmark"
)

// EAR computes the eye aspect ratio of one eye from its six landmarks in
// canonical order (outer corner, upper lid x2, inner corner, lower lid x2):
//
//	EAR = (|p1-p5| + |p2-p4|) / (2 * |p0-p3|)
//
// Points are scaled to pixels first so the ratio is independent of frame
// aspect. valid is false when the horizontal width is zero, in which case
// EAR is 0.
func EAR(eye [6]landmark.Point, w, h int) (ear float64, valid bool) {
	var px [6][2]float64
	for i, p := range eye {
		px[i][0], px[i][1] = p.Pixel(w, h)
	}

	v1 := landmark.Dist(px[1][0], px[1][1], px[5][0], px[5][1])
	v2 := landmark.Dist(px[2][0], px[2][1], px[4][0], px[4][1])
	hd := landmark.Dist(px[0][0], px[0][1], px[3][0], px[3][1])

	if hd == 0 {
		return 0, false
	}
	return (v1 + v2) / (2 * hd), true
}

// FrameEAR averages the left and right eye EAR. The frame sample is invalid
// if either eye is degenerate; the reported value still averages both.
func FrameEAR(left, right [6]landmark.Point, w, h int) (ear float64, valid bool) {
	l, lok := EAR(left, w, h)
	r, rok := EAR(right, w, h)
	return (l + r) / 2, lok && rok
}
