package looper

import (
	"image"
	"math"
	"math/rand/v2"

	"github.com/pierkiroule/Pixaloop/internal/blend"
	"github.com/pierkiroule/Pixaloop/internal/lettering"
)

// Background is the paper color the canvas is cleared to.
var Background = blend.MustHex("#fdfdf9")

// dab stop alphas at gradient offsets 0, 0.5 and 1.
var dabStops = [3]float64{0xd8 / 255.0, 0x99 / 255.0, 0}

func clearCanvas(img *image.NRGBA) {
	p := img.Pix
	for i := 0; i+3 < len(p); i += 4 {
		p[i], p[i+1], p[i+2], p[i+3] = Background.R, Background.G, Background.B, Background.A
	}
}

// drawDab paints a soft round dab: a radial gradient centered on the event
// point, clipped to a disc whose center is jittered by the event seed.
func drawDab(img *image.NRGBA, e *Event) {
	rng := rand.New(rand.NewPCG(e.Seed, e.Seed^0x9e3779b97f4a7c15))
	softness, jitter := e.Tool.texture()
	radius := e.Size * (0.6 + rng.Float64()*0.4)
	jx := e.X + (rng.Float64()-0.5)*jitter*e.Size
	jy := e.Y + (rng.Float64()-0.5)*jitter*e.Size

	base := blend.FromNRGBA(e.Color)
	fn := blend.Get(e.Blend)
	r0, r1 := radius*0.1, radius*0.9

	box := image.Rect(
		int(math.Floor(jx-radius-1)), int(math.Floor(jy-radius-1)),
		int(math.Ceil(jx+radius+1)), int(math.Ceil(jy+radius+1)),
	).Intersect(img.Rect)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			cov := min(max(0.5-(math.Hypot(px-jx, py-jy)-radius), 0), 1)
			if cov == 0 {
				continue
			}
			t := (math.Hypot(px-e.X, py-e.Y) - r0) / (r1 - r0)
			a := stopAlpha(t) * softness * cov
			if a <= 0 {
				continue
			}
			blend.Composite(img, x, y, base.Scale(a), fn)
		}
	}
}

func stopAlpha(t float64) float64 {
	switch {
	case t <= 0:
		return dabStops[0]
	case t >= 1:
		return dabStops[2]
	case t < 0.5:
		return dabStops[0] + (dabStops[1]-dabStops[0])*t*2
	default:
		return dabStops[1] + (dabStops[2]-dabStops[1])*(t-0.5)*2
	}
}

type maskKey struct {
	content string
	weight  lettering.Weight
	size    float64
}

// labels rasterizes text and stamp content, caching masks since the same
// marks are redrawn every cycle.
type labels struct {
	lt    *lettering.Lettering
	cache map[maskKey]*lettering.Mask
}

func newLabels(lt *lettering.Lettering) *labels {
	return &labels{lt: lt, cache: make(map[maskKey]*lettering.Mask)}
}

// mask returns nil when the content has no glyphs in the embedded fonts.
func (l *labels) mask(content string, w lettering.Weight, size float64) *lettering.Mask {
	k := maskKey{content, w, size}
	if m, ok := l.cache[k]; ok {
		return m
	}
	var m *lettering.Mask
	if l.lt != nil {
		if _, covered := l.lt.Measure(content, w, size); covered {
			if mk, err := l.lt.Centered(content, w, size); err == nil {
				m = &mk
			}
		}
	}
	l.cache[k] = m
	return m
}

// drawLabel centers the event content on the event point. Text is bold;
// stamps use the regular face. Content without glyphs is drawn as a disc.
func (l *labels) drawLabel(img *image.NRGBA, e *Event) {
	w := lettering.Bold
	if e.Tool == Stamp {
		w = lettering.Regular
	}
	c := blend.FromNRGBA(e.Color)
	fn := blend.Get(e.Blend)
	m := l.mask(e.Content, w, e.Size)
	if m == nil {
		blend.Disc(img, e.X, e.Y, e.Size/2, c, fn)
		return
	}
	at := image.Pt(int(math.Round(e.X)), int(math.Round(e.Y))).Add(m.Offset)
	blend.Mask(img, m.Alpha, at, c, fn)
}

func (l *labels) draw(img *image.NRGBA, e *Event) {
	if e.Tool.lettered() {
		l.drawLabel(img, e)
		return
	}
	drawDab(img, e)
}
