// Package lettering shapes and rasterizes the short labels drawn by the
// text and stamp tools.
//
// Widths come from HarfBuzz shaping (go-text/typesetting); coverage masks
// come from the x/image OpenType rasterizer. Both use the embedded Go fonts.
package lettering

import (
	"bytes"
	"fmt"
	"image"
	"math"
	"sync"
	"unicode"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Weight selects one of the embedded faces.
type Weight int

const (
	Regular Weight = iota
	Bold
)

type face struct {
	shape *gtfont.Font
	glyph *opentype.Font
}

// Lettering holds the parsed fonts. It is safe for concurrent use.
type Lettering struct {
	faces [2]face

	mu     sync.Mutex
	shaper shaping.HarfbuzzShaper
}

var (
	defaultOnce sync.Once
	defaultL    *Lettering
	defaultErr  error
)

// Default returns a process-wide Lettering, parsing the fonts once.
func Default() (*Lettering, error) {
	defaultOnce.Do(func() {
		defaultL, defaultErr = New()
	})
	return defaultL, defaultErr
}

// New parses the embedded Go Regular and Go Bold fonts.
func New() (*Lettering, error) {
	l := &Lettering{}
	for w, data := range map[Weight][]byte{Regular: goregular.TTF, Bold: gobold.TTF} {
		gt, err := gtfont.ParseTTF(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("lettering: parse font for shaping: %w", err)
		}
		ot, err := opentype.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("lettering: parse font: %w", err)
		}
		l.faces[w] = face{shape: gt.Font, glyph: ot}
	}
	return l, nil
}

// Measure returns the advance width of s at size pixels, and whether every
// visible rune has a glyph in the font.
func (l *Lettering) Measure(s string, w Weight, size float64) (width float64, covered bool) {
	runes := []rune(s)
	if len(runes) == 0 || size <= 0 {
		return 0, false
	}
	input := shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      gtfont.NewFace(l.faces[w].shape),
		Size:      fixed.Int26_6(size * 64),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	}
	l.mu.Lock()
	out := l.shaper.Shape(input)
	l.mu.Unlock()

	covered = true
	var adv fixed.Int26_6
	for _, g := range out.Glyphs {
		adv += g.Advance
		if g.GlyphID == 0 && !unicode.IsSpace(runes[min(g.TextIndex(), len(runes)-1)]) {
			covered = false
		}
	}
	return float64(adv) / 64, covered
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if !unicode.IsSpace(r) {
			return language.LookupScript(r)
		}
	}
	return language.Latin
}

// Mask is a coverage raster for a label, positioned relative to the label's
// anchor point.
type Mask struct {
	Alpha *image.Alpha
	// Offset is where Alpha's top-left corner goes relative to the anchor.
	Offset image.Point
}

// Centered rasterizes s so that the anchor sits at the horizontal center
// and vertical middle of the text, like a canvas with textAlign "center"
// and textBaseline "middle".
func (l *Lettering) Centered(s string, w Weight, size float64) (Mask, error) {
	width, _ := l.Measure(s, w, size)
	if width <= 0 {
		return Mask{}, fmt.Errorf("lettering: nothing to draw for %q", s)
	}
	fc, err := opentype.NewFace(l.faces[w].glyph, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: xfont.HintingNone,
	})
	if err != nil {
		return Mask{}, fmt.Errorf("lettering: face: %w", err)
	}
	defer fc.Close()

	m := fc.Metrics()
	ascent := float64(m.Ascent) / 64
	descent := float64(m.Descent) / 64
	const pad = 2
	mw := int(math.Ceil(width)) + 2*pad
	mh := int(math.Ceil(ascent+descent)) + 2*pad
	alpha := image.NewAlpha(image.Rect(0, 0, mw, mh))
	d := xfont.Drawer{
		Dst:  alpha,
		Src:  image.Opaque,
		Face: fc,
		Dot:  fixed.P(pad, pad+int(math.Round(ascent))),
	}
	d.DrawString(s)

	// "middle" puts the anchor halfway between ascent and descent.
	baseline := float64(pad) + math.Round(ascent)
	middle := baseline - (ascent-descent)/2
	return Mask{
		Alpha:  alpha,
		Offset: image.Pt(-pad-int(math.Round(width/2)), -int(math.Round(middle))),
	}, nil
}
