package warp

import (
	"fmt"
	"image"
	"math"

	"github.com/pierkiroule/Pixaloop/internal/parallel"
)

// Renderer draws one warped frame into dst.
//
// Implementations must be pure: the same inputs produce the same pixels.
type Renderer interface {
	Render(dst *image.NRGBA, src, field *Texture, u Uniforms) error
}

// Pipeline is the CPU implementation of the warp program. Rows are shaded
// concurrently on a worker pool.
type Pipeline struct {
	pool *parallel.WorkerPool
	own  bool
}

// NewPipeline creates a pipeline that shades on pool. A nil pool creates a
// private one sized to GOMAXPROCS, released by Close.
func NewPipeline(pool *parallel.WorkerPool) *Pipeline {
	if pool == nil {
		return &Pipeline{pool: parallel.NewWorkerPool(0), own: true}
	}
	return &Pipeline{pool: pool}
}

// Render implements Renderer.
func (p *Pipeline) Render(dst *image.NRGBA, src, field *Texture, u Uniforms) error {
	if err := Validate(dst, src, field, u); err != nil {
		return err
	}
	b := dst.Rect
	w, h := b.Dx(), b.Dy()
	p.pool.Rows(h, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			i := dst.PixOffset(b.Min.X, b.Min.Y+y)
			row := dst.Pix[i : i+w*4 : i+w*4]
			v := (float64(y) + 0.5) / float64(h)
			for x := range w {
				c := shade(src, field, u, vec2{(float64(x) + 0.5) / float64(w), v})
				o := row[x*4 : x*4+4 : x*4+4]
				o[0] = to8(c.r)
				o[1] = to8(c.g)
				o[2] = to8(c.b)
				o[3] = to8(c.a)
			}
		}
	})
	return nil
}

// Close releases the private worker pool, if any.
func (p *Pipeline) Close() {
	if p.own {
		p.pool.Close()
	}
}

// Validate checks the inputs of a Render call.
func Validate(dst *image.NRGBA, src, field *Texture, u Uniforms) error {
	if dst == nil || dst.Rect.Empty() {
		return fmt.Errorf("warp: render: %w", ErrEmptyTexture)
	}
	if src == nil || field == nil {
		return fmt.Errorf("warp: render: missing input: %w", ErrEmptyTexture)
	}
	if !u.Mode.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(u.Mode))
	}
	return nil
}

func to8(v float64) uint8 {
	return uint8(math.Round(clampf(v, 0, 1) * 255))
}
