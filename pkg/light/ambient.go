// Package light grades ambient lighting from the mean frame brightness.
package light

import (
	"image"
	"image/color"
)

// Brightness bounds on the 0-255 grayscale mean.
const (
	DimBelow   = 60.0
	HarshAbove = 180.0
)

// Level is a lighting bucket.
type Level string

const (
	Dim   Level = "Dim"
	Good  Level = "Good"
	Harsh Level = "Harsh"
)

// Result is the lighting analysis of a single frame.
type Result struct {
	Brightness float64 `json:"brightness"`
	Level      Level   `json:"light_level"`
	Risk       float64 `json:"light_risk"`
}

// Analyze returns the mean grayscale brightness of img and its bucket.
// Dim and harsh light both score risk 2. An empty image reads as dim.
func Analyze(img image.Image) Result {
	b := Brightness(img)
	return Grade(b)
}

// Grade buckets a brightness value.
func Grade(brightness float64) Result {
	r := Result{Brightness: brightness, Level: Good}
	switch {
	case brightness < DimBelow:
		r.Level, r.Risk = Dim, 2
	case brightness > HarshAbove:
		r.Level, r.Risk = Harsh, 2
	}
	return r
}

// Brightness is the mean grayscale intensity over the whole frame, using
// the ITU-R 601 luma weights of color.GrayModel.
func Brightness(img image.Image) float64 {
	if img == nil {
		return 0
	}
	bounds := img.Bounds()
	n := bounds.Dx() * bounds.Dy()
	if n <= 0 {
		return 0
	}

	var sum uint64
	switch m := img.(type) {
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := m.Pix[m.PixOffset(bounds.Min.X, y):]
			for x := 0; x < bounds.Dx(); x++ {
				sum += uint64(row[x])
			}
		}
	case *image.RGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			i := m.PixOffset(bounds.Min.X, y)
			for x := 0; x < bounds.Dx(); x++ {
				p := m.Pix[i : i+4 : i+4]
				sum += uint64(luma(p[0], p[1], p[2]))
				i += 4
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
				sum += uint64(g.Y)
			}
		}
	}
	return float64(sum) / float64(n)
}

// luma matches color.GrayModel for opaque 8-bit pixels.
func luma(r, g, b uint8) uint8 {
	r32, g32, b32 := uint32(r)*0x101, uint32(g)*0x101, uint32(b)*0x101
	y := (19595*r32 + 38470*g32 + 7471*b32 + 1<<15) >> 24
	return uint8(y)
}
