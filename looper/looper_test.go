package looper

import (
	"bytes"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pierkiroule/Pixaloop/capture"
	"github.com/pierkiroule/Pixaloop/internal/blend"
	"github.com/pierkiroule/Pixaloop/internal/clock"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type results struct {
	mu    sync.Mutex
	blobs []capture.Blob
	errs  []error
}

func (r *results) add(b capture.Blob, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.blobs = append(r.blobs, b)
	r.errs = append(r.errs, err)
}

func newTestLooper(t *testing.T, opts ...Option) (*Looper, *clock.Manual, *results) {
	t.Helper()
	clk := clock.NewManual(t0)
	res := &results{}
	base := []Option{
		WithClock(clk),
		WithSeed(7),
		WithCanvasSize(MinWidth, MinHeight),
		WithOnLoopReady(res.add),
		WithSinkFactory(func() capture.Sink { return &capture.MemorySink{} }),
	}
	l := New(append(base, opts...)...)
	t.Cleanup(l.Close)
	return l, clk, res
}

func isBackground(img *image.NRGBA, x, y int) bool {
	return img.NRGBAAt(x, y) == Background
}

func TestLiveStroke(t *testing.T) {
	l, _, _ := newTestLooper(t)

	if err := l.PointerDown(100, 100, DefaultBrush()); err != nil {
		t.Fatal(err)
	}
	if isBackground(l.Frame(), 100, 100) {
		t.Error("pointer down left no mark")
	}
	if err := l.PointerMove(130, 100); err != nil {
		t.Fatal(err)
	}
	if got := len(l.Events()); got != 6 {
		t.Errorf("events after a 30px move = %d, want 6", got)
	}
	// Too short to record.
	if err := l.PointerMove(131, 100); err != nil {
		t.Fatal(err)
	}
	l.PointerUp()
	if err := l.PointerMove(200, 100); err != nil {
		t.Fatal(err)
	}
	evs := l.Events()
	if len(evs) != 6 {
		t.Fatalf("events = %d, want 6", len(evs))
	}
	if evs[5].X != 130 || evs[5].Y != 100 {
		t.Errorf("last dab at (%v, %v), want (130, 100)", evs[5].X, evs[5].Y)
	}
	for _, e := range evs {
		if e.Offset != 0 || !e.triggered {
			t.Errorf("event %d: offset %v triggered %v", e.Seq, e.Offset, e.triggered)
		}
	}
}

func TestLetteredMark(t *testing.T) {
	l, _, _ := newTestLooper(t)
	b := DefaultBrush()
	b.Tool = Text
	b.Color = Palette[5]
	b.Size = 60
	if err := l.PointerDown(320, 190, b); err != nil {
		t.Fatal(err)
	}
	evs := l.Events()
	if len(evs) != 1 || evs[0].Content != DefaultText {
		t.Fatalf("events = %+v", evs)
	}
	// Lettered marks do not start a stroke.
	if err := l.PointerMove(400, 190); err != nil {
		t.Fatal(err)
	}
	if got := len(l.Events()); got != 1 {
		t.Errorf("events after move = %d, want 1", got)
	}

	frame := l.Frame()
	inked := 0
	for y := 150; y < 230; y++ {
		for x := 200; x < 440; x++ {
			if !isBackground(frame, x, y) {
				inked++
			}
		}
	}
	if inked < 200 {
		t.Errorf("text covered %d pixels, want a visible label", inked)
	}
}

func TestStampWithoutGlyphFallsBackToDisc(t *testing.T) {
	l, _, _ := newTestLooper(t)
	b := DefaultBrush()
	b.Tool = Stamp
	b.Size = 40
	if err := l.PointerDown(300, 200, b); err != nil {
		t.Fatal(err)
	}
	frame := l.Frame()
	if got := frame.NRGBAAt(300, 200); got != Palette[0] {
		t.Errorf("disc center = %v, want %v", got, Palette[0])
	}
	if !isBackground(frame, 300, 230) {
		t.Error("disc extends beyond size/2")
	}
}

func TestReplayAcrossCycles(t *testing.T) {
	l, clk, _ := newTestLooper(t)

	clk.Set(t0.Add(time.Second))
	b := DefaultBrush()
	b.Tool = Ink
	if err := l.PointerDown(200, 200, b); err != nil {
		t.Fatal(err)
	}
	l.PointerUp()
	if l.draws != 1 {
		t.Fatalf("draws = %d, want 1", l.draws)
	}

	steps := []struct {
		at        time.Duration
		wantDraws int
		wantClear bool
	}{
		{1050 * time.Millisecond, 1, false}, // live mark is already triggered
		{5 * time.Second, 1, true},          // wrap clears the canvas
		{5900 * time.Millisecond, 1, true},  // 100ms away: outside the window
		{5950 * time.Millisecond, 2, false}, // fires
		{6 * time.Second, 2, false},         // stays triggered
		{6100 * time.Millisecond, 2, false}, // between the windows
		{6300 * time.Millisecond, 2, false}, // re-armed
		{10 * time.Second, 2, true},
		{10980 * time.Millisecond, 3, false},
	}
	for _, s := range steps {
		st := l.Tick(t0.Add(s.at))
		if l.draws != s.wantDraws {
			t.Errorf("at %v: draws = %d, want %d", s.at, l.draws, s.wantDraws)
		}
		if got := isBackground(l.Frame(), 200, 200); got != s.wantClear {
			t.Errorf("at %v: canvas clear = %v, want %v", s.at, got, s.wantClear)
		}
		if st.State != Idle || st.Events != 1 {
			t.Errorf("at %v: status %+v", s.at, st)
		}
	}
	if !l.events[0].triggered {
		t.Error("event not triggered after firing")
	}
}

func TestArmExportWaitsForWrap(t *testing.T) {
	sink := &capture.MemorySink{}
	made := 0
	l, clk, _ := newTestLooper(t, WithSinkFactory(func() capture.Sink {
		made++
		return sink
	}))

	if err := l.ArmExport(); err != nil {
		t.Fatal(err)
	}
	if err := l.ArmExport(); !errors.Is(err, ErrBusy) {
		t.Errorf("second ArmExport = %v, want ErrBusy", err)
	}
	l.Tick(t0.Add(4 * time.Second))
	if l.State() != Armed || made != 0 {
		t.Fatalf("state %v, sinks %d before wrap", l.State(), made)
	}
	st := l.Tick(t0.Add(5 * time.Second))
	if st.State != RecordingForward || made != 1 {
		t.Fatalf("state %v, sinks %d after wrap", st.State, made)
	}
	want := capture.SinkConfig{
		Width: MinWidth, Height: MinHeight,
		FPS: 30, Bitrate: 6_000_000, Name: "horizon_pingpong_loop",
	}
	if diff := cmp.Diff(want, sink.Config()); diff != "" {
		t.Errorf("sink config mismatch (-want +got):\n%s", diff)
	}

	clk.Set(t0.Add(5 * time.Second))
	if err := l.PointerDown(10, 10, DefaultBrush()); !errors.Is(err, ErrBusy) {
		t.Errorf("PointerDown while recording = %v, want ErrBusy", err)
	}
	if err := l.ArmExport(); !errors.Is(err, ErrBusy) {
		t.Errorf("ArmExport while recording = %v, want ErrBusy", err)
	}
	if st := l.Tick(t0.Add(11 * time.Second)); st.State != RecordingBackward {
		t.Errorf("state at 6s into recording = %v, want backward", st.State)
	}
}

// drawScene lays down marks at distinct offsets; no offset lies within a
// trigger window of a frame boundary.
func drawScene(t *testing.T, l *Looper, clk *clock.Manual) {
	t.Helper()
	marks := []struct {
		at   time.Duration
		tool Tool
		mode blend.Mode
		x, y float64
	}{
		{500 * time.Millisecond, Watercolor, blend.SourceOver, 100, 100},
		{1500 * time.Millisecond, Text, blend.SourceOver, 320, 120},
		{2500 * time.Millisecond, Ink, blend.Multiply, 200, 250},
		{3500 * time.Millisecond, Stamp, blend.Overlay, 450, 250},
		{4500 * time.Millisecond, Dry, blend.SourceOver, 500, 100},
	}
	for i, m := range marks {
		clk.Set(t0.Add(m.at))
		b := DefaultBrush()
		b.Tool, b.Blend, b.Color = m.tool, m.mode, Palette[i]
		if err := l.PointerDown(m.x, m.y, b); err != nil {
			t.Fatal(err)
		}
		if !m.tool.lettered() {
			if err := l.PointerMove(m.x+40, m.y+20); err != nil {
				t.Fatal(err)
			}
		}
		l.PointerUp()
	}
}

func TestPingPongExport(t *testing.T) {
	sink := &capture.MemorySink{}
	l, clk, res := newTestLooper(t, WithSinkFactory(func() capture.Sink { return sink }))
	drawScene(t, l, clk)
	if err := l.ArmExport(); err != nil {
		t.Fatal(err)
	}

	start := t0.Add(5 * time.Second)
	const ticks = 300
	for k := 0; k <= ticks; k++ {
		l.Tick(start.Add(time.Duration(k) * 10 * time.Second / ticks))
	}
	l.Wait()

	if l.State() != Idle {
		t.Errorf("state after 2 cycles = %v, want idle", l.State())
	}
	if !sink.Stopped() {
		t.Fatal("sink not stopped")
	}
	res.mu.Lock()
	if len(res.errs) != 1 || res.errs[0] != nil || res.blobs[0].Filename != "horizon_pingpong_loop.raw" {
		t.Errorf("results = %v %v", res.blobs, res.errs)
	}
	res.mu.Unlock()

	frames := sink.Frames()
	if len(frames) != ticks {
		t.Fatalf("frames = %d, want %d", len(frames), ticks)
	}
	for k := 1; k < ticks; k++ {
		if !bytes.Equal(frames[k].Pix, frames[ticks-k].Pix) {
			t.Errorf("frame %d differs from its mirror %d", k, ticks-k)
		}
	}
	if !bytes.Equal(frames[0].Pix, frames[ticks-1].Pix) {
		t.Error("first and last frames differ")
	}
	if bytes.Equal(frames[0].Pix, frames[ticks/2].Pix) {
		t.Error("turning point frame equals the first frame")
	}

	// Forward half grows monotonically in ink.
	if bytes.Equal(frames[60].Pix, frames[120].Pix) {
		t.Error("frames 2s and 4s into the cycle are identical")
	}
}

func TestPingPongAfterSink(t *testing.T) {
	l, clk, _ := newTestLooper(t)
	drawScene(t, l, clk)
	if err := l.ArmExport(); err != nil {
		t.Fatal(err)
	}
	start := t0.Add(5 * time.Second)
	l.Tick(start)
	l.Tick(start.Add(10 * time.Second))
	l.Wait()

	// Back to live replay, on a fresh cycle.
	st := l.Status()
	if st.State != Idle || st.Elapsed != 0 {
		t.Errorf("status after export = %+v", st)
	}
	clk.Set(start.Add(10 * time.Second))
	if err := l.PointerDown(50, 50, DefaultBrush()); err != nil {
		t.Errorf("PointerDown after export = %v", err)
	}
}

func TestResetCancelsExport(t *testing.T) {
	sink := &capture.MemorySink{}
	l, clk, res := newTestLooper(t, WithSinkFactory(func() capture.Sink { return sink }))
	drawScene(t, l, clk)
	if err := l.ArmExport(); err != nil {
		t.Fatal(err)
	}
	l.Tick(t0.Add(5 * time.Second))
	l.Tick(t0.Add(6 * time.Second))

	l.Reset()
	l.Wait()
	if !sink.Aborted() {
		t.Error("sink not aborted")
	}
	res.mu.Lock()
	if len(res.errs) != 1 || !errors.Is(res.errs[0], capture.ErrCanceled) {
		t.Errorf("errors = %v, want ErrCanceled", res.errs)
	}
	res.mu.Unlock()
	if l.State() != Idle || len(l.Events()) != 0 {
		t.Errorf("state %v events %d after reset", l.State(), len(l.Events()))
	}
	frame := l.Frame()
	for y := 0; y < frame.Rect.Dy(); y += 37 {
		for x := 0; x < frame.Rect.Dx(); x += 37 {
			if !isBackground(frame, x, y) {
				t.Fatalf("pixel (%d, %d) not cleared", x, y)
			}
		}
	}
}

func TestResetDisarms(t *testing.T) {
	l, _, _ := newTestLooper(t)
	if err := l.ArmExport(); err != nil {
		t.Fatal(err)
	}
	l.Reset()
	if l.State() != Idle {
		t.Errorf("state = %v, want idle", l.State())
	}
	if err := l.ArmExport(); err != nil {
		t.Errorf("ArmExport after reset = %v", err)
	}
}

func TestUnsupportedExport(t *testing.T) {
	l, _, res := newTestLooper(t, WithSinkFactory(func() capture.Sink {
		return &capture.MemorySink{StartErr: errors.New("no encoder")}
	}))
	if err := l.ArmExport(); err != nil {
		t.Fatal(err)
	}
	l.Tick(t0.Add(5 * time.Second))
	l.Wait()
	if l.State() != Idle {
		t.Errorf("state = %v, want idle", l.State())
	}
	res.mu.Lock()
	defer res.mu.Unlock()
	if len(res.errs) != 1 || !errors.Is(res.errs[0], capture.ErrCaptureUnsupported) {
		t.Errorf("errors = %v, want ErrCaptureUnsupported", res.errs)
	}
}

func TestCanvasSizeClamped(t *testing.T) {
	l, _, _ := newTestLooper(t, WithCanvasSize(100, 2000))
	if w, h := l.Size(); w != MinWidth || h != 2000 {
		t.Errorf("size = %dx%d", w, h)
	}
}
