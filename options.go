package pixaloop

import (
	"time"

	"github.com/pierkiroule/Pixaloop/capture"
	"github.com/pierkiroule/Pixaloop/compose"
	"github.com/pierkiroule/Pixaloop/flow"
	"github.com/pierkiroule/Pixaloop/internal/clock"
	"github.com/pierkiroule/Pixaloop/paint"
	"github.com/pierkiroule/Pixaloop/warp"
)

// DefaultFrameSize is the side of the square frame.
const DefaultFrameSize = 1024

// Option configures an Engine during creation.
//
// Example:
//
//	// CPU rendering at 512 px
//	e := pixaloop.New(pixaloop.WithFrameSize(512))
//
//	// GPU with CPU fallback, recording to GIF
//	e := pixaloop.New(
//	    pixaloop.WithGPU(),
//	    pixaloop.WithSinkFactory(func(capture.Kind) capture.Sink { return capture.NewGIFSink() }),
//	)
type Option func(*options)

type options struct {
	frameSize     int
	fieldSize     int
	masterW       int
	masterH       int
	duration      time.Duration
	clock         clock.Clock
	renderer      warp.Renderer
	gpu           bool
	requireGPU    bool
	workers       int
	sinkFactory   capture.SinkFactory
	onCapture     func(*capture.Handle, capture.Result)
	paintSettings paint.Settings
	polar         float64
}

func defaultOptions() options {
	return options{
		frameSize:     DefaultFrameSize,
		fieldSize:     flow.DefaultFieldSize,
		masterW:       compose.DefaultWidth,
		masterH:       compose.DefaultHeight,
		duration:      warp.DefaultDuration,
		clock:         clock.Real{},
		sinkFactory:   capture.DefaultSinkFactory,
		paintSettings: paint.DefaultSettings(),
	}
}

// WithFrameSize sets the side of the square frame in pixels.
func WithFrameSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.frameSize = n
		}
	}
}

// WithFieldSize sets the side of the flow field raster.
func WithFieldSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.fieldSize = n
		}
	}
}

// WithMasterSize sets the size of the master frame and of the
// equirectangular panorama.
func WithMasterSize(w, h int) Option {
	return func(o *options) {
		if w > 0 && h > 0 {
			o.masterW, o.masterH = w, h
		}
	}
}

// WithDuration sets the loop cycle length.
func WithDuration(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.duration = d
		}
	}
}

// WithClock sets the time source for animation toggles and capture starts.
// Step always takes the frame time explicitly.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRenderer sets a custom frame renderer.
// Use this for dependency injection of GPU or custom renderers.
func WithRenderer(r warp.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithGPU renders on a wgpu compute device when one is available and on
// the CPU otherwise.
func WithGPU() Option {
	return func(o *options) { o.gpu = true }
}

// WithRequireGPU is like WithGPU but leaves the engine inert, reporting
// ErrInitialization, when no GPU can be opened.
func WithRequireGPU() Option {
	return func(o *options) { o.gpu, o.requireGPU = true, true }
}

// WithWorkers sets the number of CPU shading workers. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithSinkFactory sets how capture sinks are created.
func WithSinkFactory(f capture.SinkFactory) Option {
	return func(o *options) { o.sinkFactory = f }
}

// WithOnCaptureComplete registers a callback receiving every finished or
// failed recording. It runs on a capture goroutine.
func WithOnCaptureComplete(fn func(*capture.Handle, capture.Result)) Option {
	return func(o *options) { o.onCapture = fn }
}

// WithPaintSettings sets the initial paint tool configuration.
func WithPaintSettings(s paint.Settings) Option {
	return func(o *options) { o.paintSettings = s }
}

// WithPolarFlow swirls every rendered frame around its center along the
// flow field with the given strength (warp.DefaultPolarStrength matches the
// reference exports). Zero disables the pass.
func WithPolarFlow(strength float64) Option {
	return func(o *options) { o.polar = strength }
}
