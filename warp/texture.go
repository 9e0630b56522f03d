package warp

import (
	"errors"
	"image"

	xdraw "golang.org/x/image/draw"
)

// ErrEmptyTexture is returned when a texture would have no pixels.
var ErrEmptyTexture = errors.New("warp: empty texture")

// Texture is an immutable straight-alpha RGBA raster sampled in normalized
// coordinates with bilinear filtering and clamp-to-edge addressing.
type Texture struct {
	img *image.NRGBA
	w   int
	h   int
}

// NewTexture copies img into a texture. Any image type and aspect ratio is
// accepted; sampling stretches it over the unit square.
func NewTexture(img image.Image) (*Texture, error) {
	if img == nil {
		return nil, ErrEmptyTexture
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, ErrEmptyTexture
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
	return &Texture{img: dst, w: b.Dx(), h: b.Dy()}, nil
}

// WrapNRGBA shares img as a texture without copying. The caller must not
// mutate img while the texture is in use.
func WrapNRGBA(img *image.NRGBA) (*Texture, error) {
	if img == nil || img.Rect.Empty() {
		return nil, ErrEmptyTexture
	}
	if img.Rect.Min != (image.Point{}) {
		cp := image.NewNRGBA(image.Rect(0, 0, img.Rect.Dx(), img.Rect.Dy()))
		xdraw.Draw(cp, cp.Rect, img, img.Rect.Min, xdraw.Src)
		img = cp
	}
	return &Texture{img: img, w: img.Rect.Dx(), h: img.Rect.Dy()}, nil
}

// Width returns the texture width in pixels.
func (t *Texture) Width() int { return t.w }

// Height returns the texture height in pixels.
func (t *Texture) Height() int { return t.h }

// NRGBA returns the backing raster, origin at (0, 0).
func (t *Texture) NRGBA() *image.NRGBA { return t.img }

func (t *Texture) texel(x, y int) vec4 {
	x = min(max(x, 0), t.w-1)
	y = min(max(y, 0), t.h-1)
	i := y*t.img.Stride + x*4
	p := t.img.Pix[i : i+4 : i+4]
	return vec4{
		float64(p[0]) / 255,
		float64(p[1]) / 255,
		float64(p[2]) / 255,
		float64(p[3]) / 255,
	}
}

// sample reads the texture at normalized uv. Texel centers sit at
// (i+0.5)/w, so uv (0,0) is the top-left corner of the first texel.
func (t *Texture) sample(uv vec2) vec4 {
	fx := uv.x*float64(t.w) - 0.5
	fy := uv.y*float64(t.h) - 0.5
	x0 := floorInt(fx)
	y0 := floorInt(fy)
	ax := fx - float64(x0)
	ay := fy - float64(y0)
	top := mix4(t.texel(x0, y0), t.texel(x0+1, y0), ax)
	bot := mix4(t.texel(x0, y0+1), t.texel(x0+1, y0+1), ax)
	return mix4(top, bot, ay)
}

// sampleWrap is sample with wrap-around addressing on both axes.
func (t *Texture) sampleWrap(uv vec2) vec4 {
	fx := uv.x*float64(t.w) - 0.5
	fy := uv.y*float64(t.h) - 0.5
	x0 := floorInt(fx)
	y0 := floorInt(fy)
	ax := fx - float64(x0)
	ay := fy - float64(y0)
	x1, y1 := wrapInt(x0+1, t.w), wrapInt(y0+1, t.h)
	x0, y0 = wrapInt(x0, t.w), wrapInt(y0, t.h)
	top := mix4(t.texel(x0, y0), t.texel(x1, y0), ax)
	bot := mix4(t.texel(x0, y1), t.texel(x1, y1), ax)
	return mix4(top, bot, ay)
}

func wrapInt(i, n int) int {
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// floorInt floors f. NaN maps to 0 and huge values saturate so that they
// still clamp to an edge.
func floorInt(f float64) int {
	const lim = 1 << 30
	switch {
	case f != f:
		return 0
	case f < -lim:
		return -lim
	case f > lim:
		return lim
	}
	i := int(f)
	if float64(i) > f {
		i--
	}
	return i
}
