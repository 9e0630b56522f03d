package capture

import (
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/pierkiroule/Pixaloop/internal/clock"
	"github.com/pierkiroule/Pixaloop/internal/logging"
)

// DefaultDuration is the recorded cycle length.
const DefaultDuration = 5 * time.Second

// ProgressInterval is how often progress is sampled.
const ProgressInterval = 100 * time.Millisecond

// Target is the renderer being recorded.
type Target interface {
	// Frame returns the most recent frame of the given kind. The sink copies
	// it before Frame is called again.
	Frame(kind Kind) image.Image
	Active() bool
	SetActive(active bool)
}

// State is the controller state.
type State int

const (
	Idle State = iota
	Recording
)

func (s State) String() string {
	if s == Recording {
		return "recording"
	}
	return "idle"
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source used by Start.
func WithClock(c clock.Clock) Option {
	return func(ctl *Controller) { ctl.clock = c }
}

// WithDuration sets the cycle length to record.
func WithDuration(d time.Duration) Option {
	return func(ctl *Controller) {
		if d > 0 {
			ctl.duration = d
		}
	}
}

// WithSinkFactory sets how sinks are created. The default tries ffmpeg.
func WithSinkFactory(f SinkFactory) Option {
	return func(ctl *Controller) { ctl.newSink = f }
}

// WithOnComplete registers a callback invoked with every finished
// recording, on the goroutine that finalized the sink.
func WithOnComplete(fn func(*Handle, Result)) Option {
	return func(ctl *Controller) { ctl.onComplete = fn }
}

// DefaultSinkFactory returns an ffmpeg sink.
func DefaultSinkFactory(Kind) Sink { return NewFFmpegSink() }

// Controller records one cycle of a Target.
//
// Thread safety: all methods are safe for concurrent use.
type Controller struct {
	mu         sync.Mutex
	target     Target
	clock      clock.Clock
	duration   time.Duration
	newSink    SinkFactory
	onComplete func(*Handle, Result)

	state      State
	handle     *Handle
	sink       Sink
	pacer      *Pacer
	prevActive bool
	lastPoll   time.Time
	finishing  sync.WaitGroup
}

// NewController creates an idle controller recording target.
func NewController(target Target, opts ...Option) *Controller {
	c := &Controller{
		target:   target,
		clock:    clock.Real{},
		duration: DefaultDuration,
		newSink:  DefaultSinkFactory,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Current returns the in-flight recording, or nil.
func (c *Controller) Current() *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// Start begins recording kind. While another recording is running it
// returns ErrBusy and changes nothing. If the sink cannot be opened it
// returns an error wrapping ErrCaptureUnsupported and stays idle.
func (c *Controller) Start(kind Kind) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Recording {
		return nil, ErrBusy
	}

	frame := c.target.Frame(kind)
	if frame == nil || frame.Bounds().Empty() {
		return nil, fmt.Errorf("%w: no %s frame to record", ErrCaptureUnsupported, kind)
	}
	b := frame.Bounds()
	sink := c.newSink(kind)
	if sink == nil {
		return nil, ErrCaptureUnsupported
	}
	cfg := SinkConfig{
		Width:   b.Dx(),
		Height:  b.Dy(),
		FPS:     FrameRate,
		Bitrate: kind.Bitrate(),
		Name:    kind.Basename(),
	}
	if err := sink.Start(cfg); err != nil {
		logging.Logger().Warn("capture: sink unavailable", "kind", kind, "err", err)
		if !errors.Is(err, ErrCaptureUnsupported) {
			err = fmt.Errorf("%w: %w", ErrCaptureUnsupported, err)
		}
		return nil, err
	}

	now := c.clock.Now()
	c.prevActive = c.target.Active()
	c.target.SetActive(true)
	c.state = Recording
	c.sink = sink
	c.handle = newHandle(kind, now)
	c.pacer = NewPacer(FrameRate)
	c.pacer.Reset(now)
	c.lastPoll = now
	logging.Logger().Info("capture: recording started", "id", c.handle.ID(), "kind", kind, "duration", c.duration)
	return c.handle, nil
}

// Tick pushes the current frame if one is due and samples progress. It is
// called once per rendered frame; it never blocks on the encoder.
func (c *Controller) Tick(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Recording {
		return
	}
	if c.pacer.Ready(now) {
		if frame := c.target.Frame(c.handle.kind); frame != nil {
			if err := c.sink.WriteFrame(frame); err != nil {
				c.failLocked(fmt.Errorf("capture: %w", err))
				return
			}
		}
	}
	if now.Sub(c.lastPoll) < ProgressInterval {
		return
	}
	c.lastPoll = now
	p := float64(now.Sub(c.handle.started)) / float64(c.duration)
	c.handle.setProgress(p)
	if p >= 1 {
		c.finishLocked()
	}
}

// Cancel aborts the in-flight recording. The sink is released before
// Cancel returns; ErrCanceled is delivered on the handle asynchronously.
// Cancel is a no-op when idle.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.state != Recording {
		c.mu.Unlock()
		return
	}
	h, sink := c.handle, c.sink
	c.resetLocked()
	c.mu.Unlock()

	sink.Abort()
	logging.Logger().Info("capture: recording canceled", "id", h.ID())
	c.deliverAsync(h, Result{Err: ErrCanceled})
}

// Wait blocks until every finished recording has delivered its result.
func (c *Controller) Wait() {
	c.finishing.Wait()
}

func (c *Controller) finishLocked() {
	h, sink := c.handle, c.sink
	c.resetLocked()
	c.finishing.Add(1)
	go func() {
		defer c.finishing.Done()
		blob, err := sink.Stop()
		if err != nil {
			logging.Logger().Error("capture: finalize failed", "id", h.ID(), "err", err)
		} else {
			logging.Logger().Info("capture: recording finished", "id", h.ID(), "file", blob.Filename, "bytes", len(blob.Data))
		}
		c.deliver(h, Result{Blob: blob, Err: err})
	}()
}

func (c *Controller) failLocked(err error) {
	h, sink := c.handle, c.sink
	c.resetLocked()
	sink.Abort()
	logging.Logger().Error("capture: recording failed", "id", h.ID(), "err", err)
	c.deliverAsync(h, Result{Err: err})
}

// resetLocked returns to Idle and restores the animation flag.
func (c *Controller) resetLocked() {
	c.target.SetActive(c.prevActive)
	c.state = Idle
	c.handle = nil
	c.sink = nil
	c.pacer = nil
}

func (c *Controller) deliverAsync(h *Handle, r Result) {
	c.finishing.Add(1)
	go func() {
		defer c.finishing.Done()
		c.deliver(h, r)
	}()
}

func (c *Controller) deliver(h *Handle, r Result) {
	h.complete(r)
	if c.onComplete != nil {
		c.onComplete(h, r)
	}
}
