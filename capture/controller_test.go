package capture

import (
	"errors"
	"image"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pierkiroule/Pixaloop/internal/clock"
)

type fakeTarget struct {
	mu      sync.Mutex
	frames  map[Kind]*image.NRGBA
	active  bool
	toggles int
}

func newFakeTarget() *fakeTarget {
	sq := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	ms := image.NewNRGBA(image.Rect(0, 0, 16, 8))
	for i := range sq.Pix {
		sq.Pix[i] = 200
	}
	return &fakeTarget{frames: map[Kind]*image.NRGBA{KindSquare: sq, KindMaster: ms}}
}

func (f *fakeTarget) Frame(k Kind) image.Image {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.frames[k]
}

func (f *fakeTarget) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

func (f *fakeTarget) SetActive(a bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active = a
	f.toggles++
}

type failingSink struct{ MemorySink }

func (s *failingSink) WriteFrame(image.Image) error { return errors.New("disk full") }

func newTestController(t *testing.T, sink Sink, opts ...Option) (*Controller, *fakeTarget, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(time.Unix(5000, 0))
	target := newFakeTarget()
	opts = append([]Option{
		WithClock(clk),
		WithSinkFactory(func(Kind) Sink { return sink }),
	}, opts...)
	return NewController(target, opts...), target, clk
}

func waitResult(t *testing.T, h *Handle) Result {
	t.Helper()
	select {
	case r := <-h.Done():
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("no result delivered")
		return Result{}
	}
}

func TestRecordOneCycle(t *testing.T) {
	sink := &MemorySink{}
	var mu sync.Mutex
	var callbacks []Result
	c, target, clk := newTestController(t, sink, WithOnComplete(func(_ *Handle, r Result) {
		mu.Lock()
		callbacks = append(callbacks, r)
		mu.Unlock()
	}))

	h, err := c.Start(KindSquare)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != Recording || !target.Active() {
		t.Fatalf("state = %v active = %v after Start", c.State(), target.Active())
	}
	if h.ID() == "" {
		t.Error("empty handle id")
	}
	cfg := sink.Config()
	if cfg.Width != 8 || cfg.Height != 8 || cfg.FPS != 30 || cfg.Bitrate != 10_000_000 || cfg.Name != "horizon_square_loop" {
		t.Errorf("sink config = %+v", cfg)
	}

	step := time.Second / 60
	var lastProgress float64
	for range 400 {
		c.Tick(clk.Advance(step))
		if p := h.Progress(); p < lastProgress {
			t.Fatalf("progress went backwards: %v -> %v", lastProgress, p)
		} else {
			lastProgress = p
		}
		if c.State() == Idle {
			break
		}
	}
	if c.State() != Idle {
		t.Fatal("recording did not stop after one cycle")
	}
	elapsed := clk.Now().Sub(h.Started())
	if elapsed < 5*time.Second || elapsed > 5*time.Second+ProgressInterval+2*step {
		t.Errorf("recording stopped after %v, want just over 5s", elapsed)
	}

	r := waitResult(t, h)
	if r.Err != nil {
		t.Fatalf("result error: %v", r.Err)
	}
	if !strings.HasPrefix(r.Blob.Filename, "horizon_square_loop.") {
		t.Errorf("filename = %q", r.Blob.Filename)
	}
	if n := len(sink.Frames()); n < 148 || n > 158 {
		t.Errorf("recorded %d frames, want about 150", n)
	}
	if !sink.Stopped() {
		t.Error("sink not stopped")
	}
	if target.Active() {
		t.Error("animation flag not restored")
	}
	c.Wait()
	mu.Lock()
	defer mu.Unlock()
	if len(callbacks) != 1 || callbacks[0].Err != nil {
		t.Errorf("callbacks = %+v", callbacks)
	}
}

func TestStartWhileBusyIsRejected(t *testing.T) {
	c, target, _ := newTestController(t, &MemorySink{})
	h, err := c.Start(KindMaster)
	if err != nil {
		t.Fatal(err)
	}
	toggles := target.toggles

	_, err = c.Start(KindSquare)
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("second Start err = %v, want ErrBusy", err)
	}
	if c.Current() != h || c.State() != Recording || target.toggles != toggles {
		t.Error("rejected Start changed controller state")
	}
	c.Cancel()
}

func TestCancelRestoresAndReports(t *testing.T) {
	sink := &MemorySink{}
	c, target, clk := newTestController(t, sink)
	target.SetActive(false)

	h, err := c.Start(KindSquare)
	if err != nil {
		t.Fatal(err)
	}
	c.Tick(clk.Advance(time.Second))
	c.Cancel()

	if c.State() != Idle || c.Current() != nil {
		t.Error("controller not idle after Cancel")
	}
	if !sink.Aborted() {
		t.Error("sink not aborted")
	}
	if target.Active() {
		t.Error("animation flag not restored after Cancel")
	}
	if r := waitResult(t, h); !errors.Is(r.Err, ErrCanceled) {
		t.Errorf("result err = %v, want ErrCanceled", r.Err)
	}
	c.Cancel() // idle: no-op
}

func TestUnsupportedSink(t *testing.T) {
	c, target, _ := newTestController(t, &MemorySink{StartErr: errors.New("no encoder")})
	_, err := c.Start(KindSquare)
	if !errors.Is(err, ErrCaptureUnsupported) {
		t.Fatalf("err = %v, want ErrCaptureUnsupported", err)
	}
	if c.State() != Idle || target.toggles != 0 {
		t.Error("failed Start changed state")
	}
}

func TestWriteFailureReturnsToIdle(t *testing.T) {
	sink := &failingSink{}
	c, target, clk := newTestController(t, sink)
	h, err := c.Start(KindSquare)
	if err != nil {
		t.Fatal(err)
	}
	c.Tick(clk.Advance(time.Millisecond))
	if c.State() != Idle {
		t.Fatal("controller still recording after sink failure")
	}
	if r := waitResult(t, h); r.Err == nil || !strings.Contains(r.Err.Error(), "disk full") {
		t.Errorf("result err = %v", r.Err)
	}
	if target.Active() {
		t.Error("animation flag not restored")
	}
}

func TestMasterKind(t *testing.T) {
	sink := &MemorySink{}
	c, _, _ := newTestController(t, sink, WithDuration(time.Second))
	if _, err := c.Start(KindMaster); err != nil {
		t.Fatal(err)
	}
	defer c.Cancel()
	cfg := sink.Config()
	if cfg.Width != 16 || cfg.Height != 8 || cfg.Bitrate != 25_000_000 || cfg.Name != "horizon_master_loop" {
		t.Errorf("sink config = %+v", cfg)
	}
}

func TestKindParse(t *testing.T) {
	for _, k := range []Kind{KindSquare, KindMaster, KindEquirect} {
		got, err := ParseKind(k.String())
		if err != nil || got != k {
			t.Errorf("ParseKind(%q) = %v, %v", k, got, err)
		}
	}
	if got := KindEquirect.Basename(); got != "horizon_equirect_loop" {
		t.Errorf("equirect basename = %q", got)
	}
	if got := KindEquirect.Bitrate(); got != 25_000_000 {
		t.Errorf("equirect bitrate = %d", got)
	}
	if _, err := ParseKind("dome"); err == nil {
		t.Error("unknown kind accepted")
	}
}

func TestGIFSink(t *testing.T) {
	s := NewGIFSink()
	s.MaxSide = 16
	if err := s.Start(SinkConfig{Width: 64, Height: 32, FPS: 30, Name: "clip"}); err != nil {
		t.Fatal(err)
	}
	img := image.NewNRGBA(image.Rect(0, 0, 64, 32))
	for i := range 3 {
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i * 80)
			img.Pix[p+3] = 255
		}
		if err := s.WriteFrame(img); err != nil {
			t.Fatal(err)
		}
	}
	blob, err := s.Stop()
	if err != nil {
		t.Fatal(err)
	}
	if blob.Filename != "clip.gif" || blob.MIMEType != "image/gif" || !strings.HasPrefix(string(blob.Data), "GIF89a") {
		t.Errorf("blob = %q %q %q", blob.Filename, blob.MIMEType, blob.Data[:min(6, len(blob.Data))])
	}
	if err := s.WriteFrame(img); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("write after stop err = %v", err)
	}
}

func TestFFmpegMissingBinary(t *testing.T) {
	s := &FFmpegSink{Binary: "pixaloop-no-such-encoder"}
	err := s.Start(SinkConfig{Width: 4, Height: 4, Name: "x"})
	if !errors.Is(err, ErrCaptureUnsupported) {
		t.Errorf("err = %v, want ErrCaptureUnsupported", err)
	}
	if err := s.WriteFrame(image.NewRGBA(image.Rect(0, 0, 4, 4))); !errors.Is(err, ErrSinkClosed) {
		t.Errorf("write on unstarted sink err = %v", err)
	}
}

func TestFFmpegArgs(t *testing.T) {
	args := strings.Join(ffmpegArgs(SinkConfig{Width: 1024, Height: 1024, Bitrate: 10_000_000}, "libvpx-vp9"), " ")
	for _, want := range []string{"-video_size 1024x1024", "-framerate 30", "-c:v libvpx-vp9", "-b:v 10000000", "-f webm"} {
		if !strings.Contains(args, want) {
			t.Errorf("args %q missing %q", args, want)
		}
	}
}
