package eyes

import (
	"image"

	"github.com/teslashibe/go-eyeguard/pkg/landmark"
)

// RegionPadding is the margin in pixels added around the eye bounding box.
const RegionPadding = 2

// Redness level thresholds on the R/(G+B) ratio.
const (
	HighRedness     = 0.8
	ElevatedRedness = 0.6
)

// RednessLevel is the presentation bucket of a redness ratio.
type RednessLevel string

const (
	RednessNormal   RednessLevel = "Normal"
	RednessElevated RednessLevel = "Elevated"
	RednessHigh     RednessLevel = "High"
)

// LevelOf buckets a redness ratio.
func LevelOf(ratio float64) RednessLevel {
	switch {
	case ratio > HighRedness:
		return RednessHigh
	case ratio > ElevatedRedness:
		return RednessElevated
	default:
		return RednessNormal
	}
}

// Severity ranks the level: 0 normal, 1 elevated, 2 high.
func (l RednessLevel) Severity() int {
	switch l {
	case RednessHigh:
		return 2
	case RednessElevated:
		return 1
	default:
		return 0
	}
}

// EyeRegion returns the padded pixel bounding box of the eye landmarks,
// clamped to bounds. The result may be empty.
func EyeRegion(bounds image.Rectangle, eye [6]landmark.Point) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()

	minX, minY := eye[0].PixelInt(w, h)
	maxX, maxY := minX, minY
	for _, p := range eye[1:] {
		x, y := p.PixelInt(w, h)
		minX, maxX = min(minX, x), max(maxX, x)
		minY, maxY = min(minY, y), max(maxY, y)
	}

	x0, y0 := max(0, minX-RegionPadding), max(0, minY-RegionPadding)
	x1, y1 := min(w, maxX+RegionPadding), min(h, maxY+RegionPadding)
	// image.Rect would reorder swapped corners of an off-frame box.
	if x1 <= x0 || y1 <= y0 {
		return image.Rectangle{}
	}
	return image.Rect(x0, y0, x1, y1).Add(bounds.Min)
}

// Redness returns mean(R) / (mean(G) + mean(B)) over the eye region of img.
// An empty region or a zero denominator yields 0.
func Redness(img image.Image, eye [6]landmark.Point) float64 {
	if img == nil {
		return 0
	}
	region := EyeRegion(img.Bounds(), eye)
	if region.Empty() {
		return 0
	}

	r, g, b := channelSums(img, region)
	// Means share the pixel count, so the ratio of sums is the ratio of means.
	if g+b == 0 {
		return 0
	}
	return float64(r) / float64(g+b)
}

// FrameRedness averages the redness of both eyes.
func FrameRedness(img image.Image, left, right [6]landmark.Point) float64 {
	return (Redness(img, left) + Redness(img, right)) / 2
}

// channelSums adds up 8-bit channel values over region.
func channelSums(img image.Image, region image.Rectangle) (r, g, b uint64) {
	if rgba, ok := img.(*image.RGBA); ok {
		for y := region.Min.Y; y < region.Max.Y; y++ {
			off := rgba.PixOffset(region.Min.X, y)
			for x := region.Min.X; x < region.Max.X; x++ {
				r += uint64(rgba.Pix[off])
				g += uint64(rgba.Pix[off+1])
				b += uint64(rgba.Pix[off+2])
				off += 4
			}
		}
		return r, g, b
	}

	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			r += uint64(cr >> 8)
			g += uint64(cg >> 8)
			b += uint64(cb >> 8)
		}
	}
	return r, g, b
}
