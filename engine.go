package pixaloop

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"

	"github.com/pierkiroule/Pixaloop/capture"
	"github.com/pierkiroule/Pixaloop/compose"
	"github.com/pierkiroule/Pixaloop/flow"
	"github.com/pierkiroule/Pixaloop/internal/clock"
	"github.com/pierkiroule/Pixaloop/internal/logging"
	"github.com/pierkiroule/Pixaloop/internal/parallel"
	"github.com/pierkiroule/Pixaloop/paint"
	"github.com/pierkiroule/Pixaloop/warp"
	"github.com/pierkiroule/Pixaloop/warp/gpu"
)

// Engine is the animation engine: it owns the scene and renders frames.
//
// Thread safety: all methods are safe for concurrent use. Callbacks from
// capture run on their own goroutines and may call back into the Engine.
type Engine struct {
	mu sync.Mutex

	frameSize int
	duration  time.Duration
	clock     clock.Clock
	masterW   int
	masterH   int
	polar     float64

	pool     *parallel.WorkerPool
	cpu      *warp.Pipeline
	accel    *gpu.Accelerator
	renderer warp.Renderer
	initErr  error

	// Scene.
	source   *image.NRGBA
	overlay  *paint.Layer
	builder  *flow.Builder
	filter   flow.Filter
	paths    []*flow.Path
	anchors  []flow.Point
	mode     warp.Mode
	painting paint.Settings

	gesture  Tool
	inFlight bool
	current  *flow.Path

	// Animation clock.
	active      bool
	activatedAt time.Time

	// Derived state, rebuilt on demand.
	srcTex        *warp.Texture
	srcOverlayVer uint64
	srcStale      bool
	fieldTex      *warp.Texture
	fieldBuilds   int
	square        *image.NRGBA
	styled        *image.NRGBA // pre-swirl frame when polar is set
	rendered      bool
	compositor    *compose.Compositor
	master        *image.RGBA
	masterStale   bool
	equirect      *compose.Equirect
	pano          *image.RGBA
	panoStale     bool
	frames        uint64

	capture *capture.Controller
	closed  bool
}

// New creates an engine. Renderer initialization failures do not fail New:
// they are logged once, reported by Err, and make Step return
// ErrInitialization.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		frameSize:   o.frameSize,
		duration:    o.duration,
		clock:       o.clock,
		masterW:     o.masterW,
		masterH:     o.masterH,
		polar:       o.polar,
		builder:     flow.NewBuilder(o.fieldSize),
		painting:    o.paintSettings,
		square:      image.NewNRGBA(image.Rect(0, 0, o.frameSize, o.frameSize)),
		activatedAt: o.clock.Now(),
		masterStale: true,
		panoStale:   true,
	}
	overlay, err := paint.New(o.frameSize, o.frameSize)
	if err != nil {
		// Unreachable: frameSize is positive.
		panic(err)
	}
	e.overlay = overlay
	e.initRenderer(o)

	e.capture = capture.NewController(target{e},
		capture.WithClock(o.clock),
		capture.WithDuration(o.duration),
		capture.WithSinkFactory(o.sinkFactory),
		capture.WithOnComplete(o.onCapture),
	)
	return e
}

func (e *Engine) initRenderer(o options) {
	if o.renderer != nil {
		e.renderer = o.renderer
		return
	}
	e.pool = parallel.NewWorkerPool(o.workers)
	e.cpu = warp.NewPipeline(e.pool)
	e.renderer = e.cpu
	if !o.gpu {
		return
	}

	e.accel = gpu.New(e.cpu)
	if err := e.accel.Init(); err != nil {
		if o.requireGPU {
			e.initErr = fmt.Errorf("%w: %w", ErrInitialization, err)
			logging.Logger().Error("pixaloop: renderer unavailable, engine inert", "error", err)
			return
		}
		logging.Logger().Warn("pixaloop: GPU unavailable, rendering on CPU", "error", err)
	}
	e.renderer = e.accel
}

// Err returns the initialization error, if any.
func (e *Engine) Err() error {
	return e.initErr
}

// Accelerator returns the GPU accelerator, or nil without WithGPU.
func (e *Engine) Accelerator() *gpu.Accelerator {
	return e.accel
}

// FrameSize returns the side of the square frame.
func (e *Engine) FrameSize() int { return e.frameSize }

// LoadSource replaces the source image and clears the paths, the anchors
// and the paint overlay.
func (e *Engine) LoadSource(img image.Image) error {
	if img == nil {
		return fmt.Errorf("pixaloop: load source: %w", warp.ErrEmptyTexture)
	}
	tex, err := warp.NewTexture(img)
	if err != nil {
		return fmt.Errorf("pixaloop: load source: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	e.source = tex.NRGBA()
	e.clearFlowLocked()
	e.overlay.Reset()
	e.srcStale = true
	e.rendered = false
	logging.Logger().Debug("pixaloop: source loaded", "width", tex.Width(), "height", tex.Height())
	return nil
}

// SetStyleMode selects one of the style modes 0 to 10.
func (e *Engine) SetStyleMode(mode int) error {
	m := warp.Mode(mode)
	if !m.Valid() {
		return fmt.Errorf("%w: %d", warp.ErrInvalidMode, mode)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = m
	return nil
}

// StyleMode returns the current style mode.
func (e *Engine) StyleMode() warp.Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// SetAnimating turns the flow animation on or off. Turning it on from off
// restarts the animation clock. Turning it off cancels a running capture.
func (e *Engine) SetAnimating(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !on {
		e.capture.Cancel()
	}
	e.setActiveLocked(on)
}

// Animating reports whether the flow animation is on.
func (e *Engine) Animating() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

func (e *Engine) setActiveLocked(on bool) {
	if on && !e.active {
		e.activatedAt = e.clock.Now()
	}
	e.active = on
}

// Step renders the frame for now and advances any running capture. It
// returns ErrFrameSkipped, wrapping the cause, when the frame could not be
// rendered; the previous frame is kept.
func (e *Engine) Step(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrClosed
	}
	if e.initErr != nil {
		return ErrInitialization
	}
	err := e.renderLocked(now)
	e.capture.Tick(now)
	if err != nil && !errors.Is(err, ErrNoSource) {
		logging.Logger().Debug("pixaloop: frame skipped", "frame", e.frames, "error", err)
		return err
	}
	return nil
}

func (e *Engine) renderLocked(now time.Time) error {
	src, err := e.sourceTextureLocked()
	if err != nil {
		return err
	}
	field, err := e.fieldTextureLocked()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
	u := warp.Uniforms{
		Time:     max(now.Sub(e.activatedAt), 0),
		Active:   e.active,
		Duration: e.duration,
		Mode:     e.mode,
	}
	if e.polar == 0 {
		if err := e.renderer.Render(e.square, src, field, u); err != nil {
			return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
		}
	} else if err := e.renderPolarLocked(src, field, u); err != nil {
		return fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
	e.rendered = true
	e.masterStale = true
	e.panoStale = true
	e.frames++
	return nil
}

// renderPolarLocked styles the frame off-screen, then swirls it into the
// square frame.
func (e *Engine) renderPolarLocked(src, field *warp.Texture, u warp.Uniforms) error {
	if e.styled == nil {
		e.styled = image.NewNRGBA(e.square.Rect)
	}
	if err := e.renderer.Render(e.styled, src, field, u); err != nil {
		return err
	}
	styled, err := warp.WrapNRGBA(e.styled)
	if err != nil {
		return err
	}
	return warp.PolarRemap(e.square, styled, field, e.polar, e.pool)
}

// sourceTextureLocked returns the source with the paint overlay on top,
// rebuilding it only when either changed.
func (e *Engine) sourceTextureLocked() (*warp.Texture, error) {
	if e.source == nil {
		return nil, ErrNoSource
	}
	ver := e.overlay.Version()
	if e.srcTex != nil && !e.srcStale && ver == e.srcOverlayVer {
		return e.srcTex, nil
	}

	var tex *warp.Texture
	var err error
	if e.overlay.Empty() {
		tex, err = warp.WrapNRGBA(e.source)
	} else {
		merged := image.NewNRGBA(image.Rect(0, 0, e.frameSize, e.frameSize))
		xdraw.CatmullRom.Scale(merged, merged.Rect, e.source, e.source.Rect, xdraw.Src, nil)
		e.overlay.DrawOver(merged)
		tex, err = warp.WrapNRGBA(merged)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFrameSkipped, err)
	}
	e.srcTex, e.srcOverlayVer, e.srcStale = tex, ver, false
	return tex, nil
}

func (e *Engine) fieldTextureLocked() (*warp.Texture, error) {
	f := e.builder.Field(e.paths, e.anchors)
	if e.fieldTex != nil && e.builder.Builds() == e.fieldBuilds {
		return e.fieldTex, nil
	}
	tex, err := warp.WrapNRGBA(f.Image())
	if err != nil {
		return nil, err
	}
	e.fieldTex, e.fieldBuilds = tex, e.builder.Builds()
	return tex, nil
}

// Frames returns the number of frames rendered.
func (e *Engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

// SquareFrame returns a copy of the last rendered square frame, or nil
// before the first frame.
func (e *Engine) SquareFrame() *image.NRGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.rendered {
		return nil
	}
	out := image.NewNRGBA(e.square.Rect)
	copy(out.Pix, e.square.Pix)
	return out
}

// MasterFrame returns a copy of the dome master frame for the last rendered
// square frame, or nil before the first frame.
func (e *Engine) MasterFrame() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.masterLocked()
	if m == nil {
		return nil
	}
	out := image.NewRGBA(m.Rect)
	copy(out.Pix, m.Pix)
	return out
}

func (e *Engine) masterLocked() *image.RGBA {
	if !e.rendered {
		return nil
	}
	if e.compositor == nil {
		e.compositor = compose.New(e.masterW, e.masterH, compose.WithPool(e.pool))
	}
	if e.masterStale || e.master == nil {
		e.master = e.compositor.Compose(e.square)
		e.masterStale = false
	}
	return e.master
}

// EquirectFrame returns a copy of the equirectangular panorama for the last
// rendered square frame, or nil before the first frame.
func (e *Engine) EquirectFrame() *image.RGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.equirectLocked()
	if m == nil {
		return nil
	}
	out := image.NewRGBA(m.Rect)
	copy(out.Pix, m.Pix)
	return out
}

func (e *Engine) equirectLocked() *image.RGBA {
	if !e.rendered {
		return nil
	}
	if e.equirect == nil {
		e.equirect = compose.NewEquirect(e.masterW, e.masterH, compose.WithPool(e.pool))
	}
	if e.panoStale || e.pano == nil {
		e.pano = e.equirect.Project(e.square)
		e.panoStale = false
	}
	return e.pano
}

// Field returns a copy of the flow field for the current paths and anchors.
func (e *Engine) Field() *image.NRGBA {
	e.mu.Lock()
	defer e.mu.Unlock()
	src := e.builder.Field(e.paths, e.anchors).Image()
	out := image.NewNRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	return out
}

// StartCapture records one cycle of the square, master or equirect frame. It returns
// capture.ErrBusy while another recording runs, and an error wrapping
// capture.ErrCaptureUnsupported when no encoder is available.
func (e *Engine) StartCapture(kind capture.Kind) (*capture.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if e.initErr != nil {
		return nil, ErrInitialization
	}
	if e.capture.State() == capture.Recording {
		return nil, capture.ErrBusy
	}
	if !e.rendered {
		if err := e.renderLocked(e.clock.Now()); err != nil {
			return nil, err
		}
	}
	return e.capture.Start(kind)
}

// CaptureState returns whether a recording is running.
func (e *Engine) CaptureState() capture.State {
	return e.capture.State()
}

// CancelCapture aborts a running recording.
func (e *Engine) CancelCapture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.capture.Cancel()
}

// Close cancels any recording, waits for capture callbacks and releases
// the renderer. Close is idempotent.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	e.capture.Cancel()
	e.mu.Unlock()

	e.capture.Wait()
	if e.accel != nil {
		e.accel.Close()
	}
	if e.cpu != nil {
		e.cpu.Close()
	}
	if e.pool != nil {
		e.pool.Close()
	}
}

// target exposes the engine to the capture controller. The controller only
// calls it while the engine mutex is held, so it takes no locks.
type target struct{ e *Engine }

func (t target) Frame(kind capture.Kind) image.Image {
	if !t.e.rendered {
		return nil
	}
	switch kind {
	case capture.KindMaster:
		return t.e.masterLocked()
	case capture.KindEquirect:
		return t.e.equirectLocked()
	}
	return t.e.square
}

func (t target) Active() bool { return t.e.active }

func (t target) SetActive(on bool) { t.e.setActiveLocked(on) }
