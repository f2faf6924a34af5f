package light

import (
	"image"
	"image/color"
	"testing"
)

func fill(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name      string
		img       image.Image
		wantLevel Level
		wantRisk  float64
	}{
		{"dark room", fill(8, 8, color.RGBA{20, 20, 20, 255}), Dim, 2},
		{"office", fill(8, 8, color.RGBA{120, 120, 120, 255}), Good, 0},
		{"glare", fill(8, 8, color.RGBA{230, 230, 230, 255}), Harsh, 2},
		{"lower bound is good", fill(8, 8, color.RGBA{60, 60, 60, 255}), Good, 0},
		{"upper bound is good", fill(8, 8, color.RGBA{180, 180, 180, 255}), Good, 0},
		{"empty image", image.NewRGBA(image.Rectangle{}), Dim, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.img)
			if got.Level != tt.wantLevel || got.Risk != tt.wantRisk {
				t.Errorf("Analyze() = %+v, want level %s risk %v", got, tt.wantLevel, tt.wantRisk)
			}
		})
	}
}

func TestBrightness_MatchesGrayModel(t *testing.T) {
	c := color.RGBA{200, 40, 90, 255}
	want := float64(color.GrayModel.Convert(c).(color.Gray).Y)

	rgba := fill(4, 3, c)
	if got := Brightness(rgba); got != want {
		t.Errorf("Brightness(RGBA) = %v, want %v", got, want)
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	for i := 0; i < len(nrgba.Pix); i += 4 {
		copy(nrgba.Pix[i:], []uint8{200, 40, 90, 255})
	}
	if got := Brightness(nrgba); got != want {
		t.Errorf("Brightness(NRGBA) = %v, want %v", got, want)
	}
}

func TestBrightness_Mean(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	copy(img.Pix, []uint8{0, 100, 200, 100})

	if got := Brightness(img); got != 100 {
		t.Errorf("Brightness() = %v, want 100", got)
	}
}

func TestBrightness_SubImage(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 10
	}
	img.Pix[img.PixOffset(2, 2)] = 250
	img.Pix[img.PixOffset(3, 3)] = 250

	sub := img.SubImage(image.Rect(2, 2, 4, 4))
	if got := Brightness(sub); got != 130 {
		t.Errorf("Brightness(sub) = %v, want 130", got)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	img := fill(16, 16, color.RGBA{90, 140, 30, 255})
	img.Set(3, 3, color.RGBA{255, 255, 255, 255})

	first := Analyze(img)
	second := Analyze(img)
	if first != second {
		t.Errorf("Analyze() not idempotent: %+v then %+v", first, second)
	}
}
