package looper

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/pierkiroule/Pixaloop/capture"
	"github.com/pierkiroule/Pixaloop/internal/clock"
	"github.com/pierkiroule/Pixaloop/internal/lettering"
	"github.com/pierkiroule/Pixaloop/internal/logging"
)

const (
	// DefaultDuration is the cycle length.
	DefaultDuration = 5 * time.Second
	// TriggerWindow is how close the cycle time must come to an event's
	// offset for the event to be replayed.
	TriggerWindow = 70 * time.Millisecond
	// RearmWindow is how far the cycle time must move away from an event's
	// offset before the event can fire again.
	RearmWindow = 160 * time.Millisecond

	DefaultWidth  = 720
	DefaultHeight = 420
	MinWidth      = 640
	MinHeight     = 380

	// ExportBitrate is the target bitrate of the ping-pong clip.
	ExportBitrate = 6_000_000
	// ExportName is the clip file name without extension.
	ExportName = "horizon_pingpong_loop"

	minMove     = 2.0
	stepSpacing = 6.0
)

// ErrBusy is returned when an export is already armed or recording, and by
// pointer input while recording.
var ErrBusy = errors.New("looper: export in progress")

// State is the export state of the looper.
type State int

const (
	Idle State = iota
	Armed
	RecordingForward
	RecordingBackward
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case RecordingForward:
		return "recording-forward"
	case RecordingBackward:
		return "recording-backward"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) recording() bool { return s == RecordingForward || s == RecordingBackward }

// Status is a snapshot of the looper after the last Tick.
type Status struct {
	State State
	// Elapsed is the time since the cycle started. While recording it runs
	// to twice the cycle length.
	Elapsed time.Duration
	// Progress is the position within the current cycle in [0, 1).
	Progress float64
	Events   int
}

// Option configures a Looper.
type Option func(*Looper)

// WithClock sets the time source for pointer input.
func WithClock(c clock.Clock) Option {
	return func(l *Looper) { l.clock = c }
}

// WithDuration sets the cycle length.
func WithDuration(d time.Duration) Option {
	return func(l *Looper) {
		if d > 0 {
			l.duration = d
		}
	}
}

// WithCanvasSize sets the canvas size, raised to at least MinWidth×MinHeight.
func WithCanvasSize(w, h int) Option {
	return func(l *Looper) {
		l.width, l.height = max(w, MinWidth), max(h, MinHeight)
	}
}

// WithSinkFactory sets how the export sink is created. The default tries
// ffmpeg.
func WithSinkFactory(f func() capture.Sink) Option {
	return func(l *Looper) { l.newSink = f }
}

// WithOnLoopReady registers the callback receiving each finished export or
// its failure. It runs on its own goroutine.
func WithOnLoopReady(fn func(capture.Blob, error)) Option {
	return func(l *Looper) { l.onReady = fn }
}

// WithSeed fixes the seed events derive their dab geometry from.
func WithSeed(seed uint64) Option {
	return func(l *Looper) { l.seed = seed }
}

// Looper records marks over a cycle and replays them every cycle.
//
// Thread safety: all methods are safe for concurrent use.
type Looper struct {
	mu       sync.Mutex
	clock    clock.Clock
	duration time.Duration
	width    int
	height   int
	newSink  func() capture.Sink
	onReady  func(capture.Blob, error)
	seed     uint64

	canvas *image.NRGBA
	labels *labels
	// events is sorted by (Offset, Seq).
	events     []*Event
	seq        uint64
	cycleStart time.Time
	elapsed    time.Duration
	draws      int

	drawing      bool
	brush        Brush
	lastX, lastY float64

	state State
	sink  capture.Sink
	pacer *capture.Pacer
	// shown is the number of leading events on the canvas while recording.
	shown int

	delivering sync.WaitGroup
}

// New creates an idle looper whose first cycle starts now.
func New(opts ...Option) *Looper {
	l := &Looper{
		clock:    clock.Real{},
		duration: DefaultDuration,
		width:    DefaultWidth,
		height:   DefaultHeight,
		newSink:  func() capture.Sink { return capture.NewFFmpegSink() },
		seed:     rand.Uint64(),
	}
	for _, opt := range opts {
		opt(l)
	}
	lt, err := lettering.Default()
	if err != nil {
		logging.Logger().Warn("looper: fonts unavailable, labels drawn as discs", "error", err)
	}
	l.labels = newLabels(lt)
	l.canvas = image.NewNRGBA(image.Rect(0, 0, l.width, l.height))
	clearCanvas(l.canvas)
	l.cycleStart = l.clock.Now()
	return l
}

// Size returns the canvas size.
func (l *Looper) Size() (w, h int) { return l.width, l.height }

// Duration returns the cycle length.
func (l *Looper) Duration() time.Duration { return l.duration }

// State returns the export state.
func (l *Looper) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Status returns the state as of the last Tick or pointer event.
func (l *Looper) Status() Status {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Status{
		State:    l.state,
		Elapsed:  l.elapsed,
		Progress: float64(l.elapsed%l.duration) / float64(l.duration),
		Events:   len(l.events),
	}
}

// Events returns a copy of the recorded events in replay order.
func (l *Looper) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	for i, e := range l.events {
		out[i] = *e
	}
	return out
}

// Frame returns a copy of the canvas.
func (l *Looper) Frame() *image.NRGBA {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := image.NewNRGBA(l.canvas.Rect)
	copy(out.Pix, l.canvas.Pix)
	return out
}

// PointerDown starts a stroke at canvas pixel (x, y), or places a single
// text or stamp mark. The brush is kept for the rest of the stroke.
func (l *Looper) PointerDown(x, y float64, b Brush) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	l.advanceLocked(now)
	if l.state.recording() {
		return ErrBusy
	}
	b = b.normalized()
	l.markLocked(x, y, b, now.Sub(l.cycleStart))
	if b.Tool.lettered() {
		return nil
	}
	l.drawing = true
	l.brush = b
	l.lastX, l.lastY = x, y
	return nil
}

// PointerMove extends the current stroke to (x, y), laying a dab every few
// pixels. Moves shorter than two pixels are ignored.
func (l *Looper) PointerMove(x, y float64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.drawing {
		return nil
	}
	now := l.clock.Now()
	l.advanceLocked(now)
	if l.state.recording() {
		l.drawing = false
		return ErrBusy
	}
	dist := math.Hypot(x-l.lastX, y-l.lastY)
	if dist < minMove {
		return nil
	}
	steps := max(1, int(dist/stepSpacing))
	off := now.Sub(l.cycleStart)
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		l.markLocked(l.lastX+(x-l.lastX)*t, l.lastY+(y-l.lastY)*t, l.brush, off)
	}
	l.lastX, l.lastY = x, y
	return nil
}

// PointerUp ends the current stroke.
func (l *Looper) PointerUp() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drawing = false
}

// markLocked draws a live mark and records it as already triggered.
func (l *Looper) markLocked(x, y float64, b Brush, off time.Duration) {
	l.seq++
	e := &Event{
		X: x, Y: y,
		Color:     b.Color,
		Size:      b.Size,
		Tool:      b.Tool,
		Blend:     b.Blend,
		Content:   b.Content,
		Offset:    off,
		Seed:      l.seed ^ (l.seq * 0x9e3779b97f4a7c15),
		Seq:       l.seq,
		triggered: true,
	}
	if !e.Tool.lettered() {
		e.Content = ""
	}
	l.drawLocked(e)
	i, _ := slices.BinarySearchFunc(l.events, e, compareEvents)
	l.events = slices.Insert(l.events, i, e)
}

func (l *Looper) drawLocked(e *Event) {
	l.labels.draw(l.canvas, e)
	l.draws++
}

// ArmExport asks for a ping-pong export starting at the next cycle wrap.
// It returns ErrBusy if an export is already armed or recording.
func (l *Looper) ArmExport() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state != Idle {
		return ErrBusy
	}
	l.state = Armed
	logging.Logger().Info("looper: export armed, waiting for next cycle")
	return nil
}

// Tick advances the looper to now: it wraps the cycle, replays due events
// and, while recording, pushes frames to the export sink.
func (l *Looper) Tick(now time.Time) Status {
	l.mu.Lock()
	l.advanceLocked(now)
	l.mu.Unlock()
	return l.Status()
}

func (l *Looper) advanceLocked(now time.Time) {
	if !l.state.recording() {
		if now.Sub(l.cycleStart) >= l.duration {
			l.wrapLocked(now)
		}
		if !l.state.recording() {
			l.elapsed = max(now.Sub(l.cycleStart), 0)
			l.replayLocked(l.elapsed)
			return
		}
	}

	elapsed := now.Sub(l.cycleStart)
	if elapsed >= 2*l.duration {
		l.finishLocked()
		l.wrapLocked(now)
		l.elapsed = 0
		l.replayLocked(0)
		return
	}
	l.elapsed = elapsed
	vt := elapsed
	l.state = RecordingForward
	if elapsed >= l.duration {
		vt = 2*l.duration - elapsed
		l.state = RecordingBackward
	}
	l.showLocked(vt)
	if l.pacer.Ready(now) {
		if err := l.sink.WriteFrame(l.canvas); err != nil {
			l.failLocked(fmt.Errorf("looper: write frame: %w", err))
		}
	}
}

// wrapLocked starts a new cycle at now.
func (l *Looper) wrapLocked(now time.Time) {
	l.cycleStart = now
	for _, e := range l.events {
		e.triggered = false
	}
	clearCanvas(l.canvas)
	if l.state == Armed {
		l.startLocked(now)
	}
}

// replayLocked draws events whose offset is within TriggerWindow of vt and
// re-arms those farther than RearmWindow.
func (l *Looper) replayLocked(vt time.Duration) {
	for _, e := range l.events {
		d := e.Offset - vt
		if d < 0 {
			d = -d
		}
		switch {
		case d < TriggerWindow:
			if !e.triggered {
				l.drawLocked(e)
				e.triggered = true
			}
		case d > RearmWindow:
			e.triggered = false
		}
	}
}

// showLocked makes the canvas hold exactly the events with an offset before
// vt+TriggerWindow. That set is a prefix of l.events.
func (l *Looper) showLocked(vt time.Duration) {
	limit := vt + TriggerWindow
	n := sort.Search(len(l.events), func(i int) bool { return l.events[i].Offset >= limit })
	switch {
	case n > l.shown:
		for _, e := range l.events[l.shown:n] {
			l.drawLocked(e)
		}
	case n < l.shown:
		clearCanvas(l.canvas)
		for _, e := range l.events[:n] {
			l.drawLocked(e)
		}
	}
	l.shown = n
}

func (l *Looper) startLocked(now time.Time) {
	l.state = Idle
	sink := l.newSink()
	if sink == nil {
		l.deliverAsync(func() (capture.Blob, error) { return capture.Blob{}, capture.ErrCaptureUnsupported })
		return
	}
	err := sink.Start(capture.SinkConfig{
		Width:   l.width,
		Height:  l.height,
		FPS:     capture.FrameRate,
		Bitrate: ExportBitrate,
		Name:    ExportName,
	})
	if err != nil {
		if !errors.Is(err, capture.ErrCaptureUnsupported) {
			err = fmt.Errorf("%w: %w", capture.ErrCaptureUnsupported, err)
		}
		logging.Logger().Warn("looper: export unavailable", "error", err)
		l.deliverAsync(func() (capture.Blob, error) { return capture.Blob{}, err })
		return
	}
	l.sink = sink
	l.pacer = capture.NewPacer(capture.FrameRate)
	l.pacer.Reset(now)
	l.shown = 0
	l.state = RecordingForward
	logging.Logger().Info("looper: recording ping-pong", "cycle", l.duration)
}

func (l *Looper) finishLocked() {
	sink := l.sink
	l.sink, l.pacer, l.state = nil, nil, Idle
	l.deliverAsync(sink.Stop)
}

func (l *Looper) failLocked(err error) {
	l.sink.Abort()
	l.sink, l.pacer, l.state = nil, nil, Idle
	logging.Logger().Warn("looper: export failed", "error", err)
	l.deliverAsync(func() (capture.Blob, error) { return capture.Blob{}, err })
}

func (l *Looper) deliverAsync(result func() (capture.Blob, error)) {
	l.delivering.Add(1)
	go func() {
		defer l.delivering.Done()
		blob, err := result()
		if err == nil {
			logging.Logger().Info("looper: export ready", "file", blob.Filename, "bytes", len(blob.Data))
		}
		if l.onReady != nil {
			l.onReady(blob, err)
		}
	}()
}

// abortLocked drops an armed or running export.
func (l *Looper) abortLocked() {
	switch {
	case l.state == Armed:
		l.state = Idle
	case l.state.recording():
		l.sink.Abort()
		l.sink, l.pacer, l.state = nil, nil, Idle
		l.deliverAsync(func() (capture.Blob, error) { return capture.Blob{}, capture.ErrCanceled })
	}
}

// Reset forgets every event, clears the canvas and cancels any export.
func (l *Looper) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.abortLocked()
	l.events = nil
	l.drawing = false
	l.shown = 0
	clearCanvas(l.canvas)
}

// Wait blocks until every export result has been delivered.
func (l *Looper) Wait() {
	l.delivering.Wait()
}

// Close cancels any export and waits for pending deliveries.
func (l *Looper) Close() {
	l.mu.Lock()
	l.abortLocked()
	l.mu.Unlock()
	l.Wait()
}
