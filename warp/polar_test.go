package warp

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/pierkiroule/Pixaloop/flow"
	"github.com/pierkiroule/Pixaloop/internal/parallel"
)

func polarRemap(t *testing.T, size int, src, field *Texture, strength float64) *image.NRGBA {
	t.Helper()
	dst := image.NewNRGBA(image.Rect(0, 0, size, size))
	if err := PolarRemap(dst, src, field, strength, nil); err != nil {
		t.Fatalf("PolarRemap: %v", err)
	}
	return dst
}

// insideDiff is maxDiff restricted to pixels whose center lies within
// radius r of the frame center, in normalized units.
func insideDiff(a, b *image.NRGBA, r float64) int {
	n := a.Rect.Dx()
	worst := 0
	for y := range n {
		for x := range n {
			dx := (float64(x)+0.5)/float64(n) - 0.5
			dy := (float64(y)+0.5)/float64(n) - 0.5
			if math.Hypot(dx, dy) > r {
				continue
			}
			i := a.PixOffset(x, y)
			for k := range 4 {
				d := int(a.Pix[i+k]) - int(b.Pix[i+k])
				worst = max(worst, d, -d)
			}
		}
	}
	return worst
}

func TestPolarRemapIdentity(t *testing.T) {
	img := wavyImage(48, 48)
	src := mustTexture(t, img)

	tests := []struct {
		name     string
		field    color.NRGBA
		strength float64
		tol      int
	}{
		{"zero strength", color.NRGBA{R: 255, G: 0, A: 255}, 0, 1},
		{"neutral field", flow.Neutral, DefaultPolarStrength, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := polarRemap(t, 48, src, solidField(8, tt.field), tt.strength)
			if d := insideDiff(got, img, 0.45); d > tt.tol {
				t.Errorf("max diff inside the circle = %d, want <= %d", d, tt.tol)
			}
		})
	}
}

// halves is red on the left half and blue on the right.
func halves(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			c := color.NRGBA{B: 255, A: 255}
			if x < size/2 {
				c = color.NRGBA{R: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestPolarRemapSwirl(t *testing.T) {
	src := mustTexture(t, halves(64))
	turn := solidField(8, color.NRGBA{R: 255, G: 128, A: 255})

	// (48, 31) sits right of center at r≈0.27, where the falloff leaves
	// about 47% of the strength.
	tests := []struct {
		name     string
		strength float64
		wantRed  bool
	}{
		{"no swirl", 0, false},
		{"half turn", 2 * math.Pi, true},
		{"full turn wraps", 4 * math.Pi, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := polarRemap(t, 64, src, turn, tt.strength).NRGBAAt(48, 31)
			if red := got.R > 200 && got.B < 55; red != tt.wantRed {
				t.Errorf("pixel = %v, want red %v", got, tt.wantRed)
			}
		})
	}
}

func TestPolarRemapRadialPush(t *testing.T) {
	// Green disk of radius 0.1 on black.
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := range 64 {
		for x := range 64 {
			c := color.NRGBA{A: 255}
			if math.Hypot(float64(x)+0.5-32, float64(y)+0.5-32) < 6.4 {
				c.G = 255
			}
			img.SetNRGBA(x, y, c)
		}
	}
	src := mustTexture(t, img)

	if got := polarRemap(t, 64, src, solidField(8, flow.Neutral), DefaultPolarStrength).NRGBAAt(32, 32); got.G < 200 {
		t.Errorf("neutral center = %v, want green", got)
	}
	out := solidField(8, color.NRGBA{R: 128, G: 255, A: 255})
	if got := polarRemap(t, 64, src, out, DefaultPolarStrength).NRGBAAt(32, 32); got.G > 55 {
		t.Errorf("pushed center = %v, want black", got)
	}
}

func TestPolarRemapPoolMatchesInline(t *testing.T) {
	pool := parallel.NewWorkerPool(3)
	defer pool.Close()
	src := mustTexture(t, wavyImage(40, 40))
	field := mustTexture(t, wavyImage(12, 12))

	want := polarRemap(t, 40, src, field, DefaultPolarStrength)
	got := image.NewNRGBA(image.Rect(0, 0, 40, 40))
	if err := PolarRemap(got, src, field, DefaultPolarStrength, pool); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("pooled remap differs from inline remap")
	}
}

func TestPolarRemapValidation(t *testing.T) {
	src := mustTexture(t, wavyImage(8, 8))
	dst := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	if err := PolarRemap(nil, src, src, 1, nil); !errors.Is(err, ErrEmptyTexture) {
		t.Errorf("nil dst: err = %v", err)
	}
	if err := PolarRemap(dst, src, nil, 1, nil); !errors.Is(err, ErrEmptyTexture) {
		t.Errorf("nil field: err = %v", err)
	}
}
