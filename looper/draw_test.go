package looper

import (
	"bytes"
	"image"
	"testing"

	"github.com/pierkiroule/Pixaloop/internal/blend"
)

func dabCanvas(e *Event) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
	clearCanvas(img)
	drawDab(img, e)
	return img
}

func TestDabIsSeeded(t *testing.T) {
	e := &Event{X: 100, Y: 100, Color: Palette[1], Size: 42, Tool: Watercolor, Seed: 11}
	a, b := dabCanvas(e), dabCanvas(e)
	if !bytes.Equal(a.Pix, b.Pix) {
		t.Error("same seed produced different dabs")
	}
	e2 := *e
	e2.Seed = 12
	if bytes.Equal(a.Pix, dabCanvas(&e2).Pix) {
		t.Error("different seeds produced identical dabs")
	}
}

func TestDabSoftness(t *testing.T) {
	// Center alpha follows the tool softness: watercolor > ink > dry.
	prev := 256
	for _, tool := range []Tool{Watercolor, Ink, Dry} {
		img := image.NewNRGBA(image.Rect(0, 0, 200, 200))
		drawDab(img, &Event{X: 100, Y: 100, Color: Palette[0], Size: 30, Tool: tool, Seed: 3, Blend: blend.SourceOver})
		a := int(img.NRGBAAt(100, 100).A)
		if a == 0 || a >= prev {
			t.Errorf("%v: center alpha %d, previous tool %d", tool, a, prev)
		}
		prev = a
	}
}

func TestStopAlpha(t *testing.T) {
	tests := []struct {
		t, want float64
	}{
		{-1, 0xd8 / 255.0},
		{0, 0xd8 / 255.0},
		{0.5, 0x99 / 255.0},
		{1, 0},
		{2, 0},
	}
	for _, tt := range tests {
		if got := stopAlpha(tt.t); got != tt.want {
			t.Errorf("stopAlpha(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestParseTool(t *testing.T) {
	for _, tool := range []Tool{Watercolor, Ink, Dry, Text, Stamp} {
		got, err := ParseTool(tool.String())
		if err != nil || got != tool {
			t.Errorf("ParseTool(%q) = %v, %v", tool.String(), got, err)
		}
	}
	if _, err := ParseTool("airbrush"); err == nil {
		t.Error("unknown tool accepted")
	}
}

func TestBrushNormalized(t *testing.T) {
	b := Brush{Tool: Stamp, Size: 500}.normalized()
	if b.Size != MaxSize || b.Content != Stamps[0] {
		t.Errorf("normalized = %+v", b)
	}
	b = Brush{Tool: Text, Size: 1}.normalized()
	if b.Size != MinSize || b.Content != DefaultText {
		t.Errorf("normalized = %+v", b)
	}
}
