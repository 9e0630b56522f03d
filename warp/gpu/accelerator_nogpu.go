//go:build nogpu

package gpu

import (
	"errors"
	"image"

	"github.com/pierkiroule/Pixaloop/warp"
)

// ErrNoAdapter is returned by Init when no GPU adapter can be opened.
var ErrNoAdapter = errors.New("warp/gpu: no GPU adapter")

// Accelerator is a CPU pass-through in nogpu builds.
type Accelerator struct {
	fallback warp.Renderer
}

var _ warp.Renderer = (*Accelerator)(nil)

// New returns an accelerator that always renders with fallback.
func New(fallback warp.Renderer) *Accelerator {
	return &Accelerator{fallback: fallback}
}

func (a *Accelerator) Name() string { return "warp-gpu" }

func (a *Accelerator) Ready() bool { return false }

func (a *Accelerator) Dispatched() int { return 0 }

// Init always fails: the binary was built without GPU support.
func (a *Accelerator) Init() error { return ErrNoAdapter }

func (a *Accelerator) SetDeviceProvider(any) error { return ErrNoAdapter }

func (a *Accelerator) Render(dst *image.NRGBA, src, field *warp.Texture, u warp.Uniforms) error {
	if err := warp.Validate(dst, src, field, u); err != nil {
		return err
	}
	if a.fallback == nil {
		return ErrNoAdapter
	}
	return a.fallback.Render(dst, src, field, u)
}

func (a *Accelerator) Close() {}
