package texsource

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	xdraw "golang.org/x/image/draw"

	"github.com/pierkiroule/Pixaloop/internal/logging"
)

var (
	// ErrSourceClosed is returned when operations are attempted on a closed source.
	ErrSourceClosed = errors.New("texsource: source is closed")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("texsource: nil DeviceProvider")

	// ErrNilFrames is returned when no FrameFunc is passed.
	ErrNilFrames = errors.New("texsource: nil FrameFunc")

	// ErrNoFrame is returned when the FrameFunc has nothing to show yet.
	ErrNoFrame = errors.New("texsource: no frame")

	// ErrInvalidRenderer is returned when the draw context has no texture creator.
	ErrInvalidRenderer = errors.New("texsource: draw context has no TextureCreator")
)

// FrameFunc returns the frame to display. The returned image is copied.
type FrameFunc func() image.Image

// DeviceSharer is implemented by renderers that can adopt the display's GPU
// device, such as the warp accelerator.
type DeviceSharer interface {
	SetDeviceProvider(provider any) error
}

type textureDestroyer interface {
	Destroy()
}

// Option configures a Source.
type Option func(*Source)

// WithDeviceSharing offers the display's device to r so that warping and
// display run on one GPU device. Refusal is not an error.
func WithDeviceSharing(r DeviceSharer) Option {
	return func(s *Source) { s.sharer = r }
}

// Source keeps a GPU texture in sync with a stream of frames.
//
// Source is NOT safe for concurrent use.
type Source struct {
	provider gpucontext.DeviceProvider
	frames   FrameFunc
	sharer   DeviceSharer

	rgba        *image.RGBA
	texture     any // *pendingTexture until the first RenderTo
	oldTexture  any
	dirty       bool
	sizeChanged bool
	closed      bool
}

// New creates a Source for the display behind provider.
func New(provider gpucontext.DeviceProvider, frames FrameFunc, opts ...Option) (*Source, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if frames == nil {
		return nil, ErrNilFrames
	}
	s := &Source{provider: provider, frames: frames}
	for _, opt := range opts {
		opt(s)
	}
	if s.sharer != nil {
		if err := s.sharer.SetDeviceProvider(provider); err != nil {
			logging.Logger().Debug("texsource: device sharing declined", "error", err)
		}
	}
	return s, nil
}

// Size returns the size of the last pulled frame.
func (s *Source) Size() (width, height int) {
	if s.rgba == nil {
		return 0, 0
	}
	return s.rgba.Rect.Dx(), s.rgba.Rect.Dy()
}

// IsDirty reports whether a pulled frame awaits upload.
func (s *Source) IsDirty() bool { return s.dirty }

// Refresh pulls the next frame and converts it to premultiplied RGBA.
func (s *Source) Refresh() error {
	if s.closed {
		return ErrSourceClosed
	}
	img := s.frames()
	if img == nil || img.Bounds().Empty() {
		return ErrNoFrame
	}
	b := img.Bounds()
	if s.rgba == nil || s.rgba.Rect.Size() != b.Size() {
		if s.rgba != nil {
			s.sizeChanged = true
		}
		s.rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	xdraw.Copy(s.rgba, image.Point{}, img, b, xdraw.Src, nil)
	s.dirty = true
	return nil
}

// Flush uploads the last pulled frame if it changed and returns the texture.
// Before the first RenderTo the texture is a placeholder.
func (s *Source) Flush() (any, error) {
	if s.closed {
		return nil, ErrSourceClosed
	}
	if s.rgba == nil {
		if err := s.Refresh(); err != nil {
			return nil, err
		}
	}
	if s.sizeChanged {
		if s.texture != nil {
			s.destroy(s.oldTexture)
			s.oldTexture = s.texture
			s.texture = nil
		}
		s.sizeChanged = false
	}
	if !s.dirty && s.texture != nil {
		return s.texture, nil
	}

	if s.texture == nil {
		s.texture = &pendingTexture{
			width:  s.rgba.Rect.Dx(),
			height: s.rgba.Rect.Dy(),
			data:   s.rgba.Pix,
		}
		s.dirty = false
		return s.texture, nil
	}
	if updater, ok := s.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(s.rgba.Pix); err != nil {
			return nil, fmt.Errorf("texsource: texture update failed: %w", err)
		}
	}
	s.dirty = false
	return s.texture, nil
}

// RenderTo draws the current frame at the origin of dc.
func (s *Source) RenderTo(dc gpucontext.TextureDrawer) error {
	return s.RenderAt(dc, 0, 0)
}

// RenderAt draws the current frame with its top-left corner at (x, y).
func (s *Source) RenderAt(dc gpucontext.TextureDrawer, x, y float32) error {
	if s.closed {
		return ErrSourceClosed
	}
	tex, err := s.Flush()
	if err != nil {
		return err
	}

	if pending, ok := tex.(*pendingTexture); ok {
		creator := dc.TextureCreator()
		if creator == nil {
			return ErrInvalidRenderer
		}
		created, err := creator.NewTextureFromRGBA(pending.width, pending.height, pending.data)
		if err != nil {
			return fmt.Errorf("texsource: NewTextureFromRGBA failed: %w", err)
		}
		if pt, ok := created.(interface{ SetPremultiplied(bool) }); ok {
			pt.SetPremultiplied(true)
		}
		s.texture = created
		tex = created
		// The upload waited for the GPU, so the replaced texture is idle.
		s.destroy(s.oldTexture)
		s.oldTexture = nil
	}

	gpuTex, ok := tex.(gpucontext.Texture)
	if !ok {
		return fmt.Errorf("texsource: unexpected texture type %T", tex)
	}
	return dc.DrawTexture(gpuTex, x, y)
}

// Texture returns the current texture without flushing, or nil.
func (s *Source) Texture() any { return s.texture }

// Close destroys the textures. It is idempotent.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.destroy(s.oldTexture)
	s.destroy(s.texture)
	s.oldTexture, s.texture = nil, nil
	s.provider = nil
	return nil
}

func (s *Source) destroy(tex any) {
	if d, ok := tex.(textureDestroyer); ok {
		d.Destroy()
	}
}

// pendingTexture holds a frame until a TextureCreator is available.
type pendingTexture struct {
	width  int
	height int
	data   []byte
}
