package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// DefaultGIFSide is the longest side of GIF frames.
const DefaultGIFSide = 480

// GIFSink encodes an animated GIF in process. It needs no external tools,
// at the cost of a 256-color palette and reduced resolution.
type GIFSink struct {
	// MaxSide bounds the longer frame side. Zero selects DefaultGIFSide.
	MaxSide int

	mu     sync.Mutex
	cfg    SinkConfig
	w, h   int
	frames chan *image.RGBA
	done   chan struct{}
	anim   gif.GIF
	closed bool
}

var _ Sink = (*GIFSink)(nil)

// NewGIFSink returns a GIF sink with default settings.
func NewGIFSink() *GIFSink {
	return &GIFSink{}
}

// Start prepares the encoder.
func (s *GIFSink) Start(cfg SinkConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames != nil {
		return fmt.Errorf("capture: gif sink already started")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("capture: gif sink: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	side := s.MaxSide
	if side <= 0 {
		side = DefaultGIFSide
	}
	s.w, s.h = cfg.Width, cfg.Height
	if k := float64(side) / float64(max(s.w, s.h)); k < 1 {
		s.w = max(1, int(float64(s.w)*k))
		s.h = max(1, int(float64(s.h)*k))
	}
	s.cfg = cfg
	s.frames = make(chan *image.RGBA, frameQueueSize)
	s.done = make(chan struct{})
	go s.quantize()
	return nil
}

func (s *GIFSink) quantize() {
	defer close(s.done)
	fps := s.cfg.FPS
	if fps <= 0 {
		fps = FrameRate
	}
	delay := max(1, 100/fps)
	for f := range s.frames {
		p := image.NewPaletted(f.Rect, palette.Plan9)
		xdraw.FloydSteinberg.Draw(p, f.Rect, f, image.Point{})
		s.anim.Image = append(s.anim.Image, p)
		s.anim.Delay = append(s.anim.Delay, delay)
	}
}

// WriteFrame queues a downscaled copy of img. It blocks when the quantizer
// falls behind.
func (s *GIFSink) WriteFrame(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.frames == nil {
		return ErrSinkClosed
	}
	enqueue(s.frames, rgbaCopy(img, s.w, s.h), true)
	return nil
}

// Stop encodes the animation.
func (s *GIFSink) Stop() (Blob, error) {
	s.mu.Lock()
	if s.closed || s.frames == nil {
		s.mu.Unlock()
		return Blob{}, ErrSinkClosed
	}
	s.closed = true
	close(s.frames)
	s.mu.Unlock()
	<-s.done

	if len(s.anim.Image) == 0 {
		return Blob{}, fmt.Errorf("capture: gif sink: no frames")
	}
	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, &s.anim); err != nil {
		return Blob{}, fmt.Errorf("capture: encode gif: %w", err)
	}
	return Blob{Data: buf.Bytes(), MIMEType: "image/gif", Filename: s.cfg.Name + ".gif"}, nil
}

// Abort discards buffered frames.
func (s *GIFSink) Abort() {
	s.mu.Lock()
	if s.closed || s.frames == nil {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.frames)
	s.mu.Unlock()
	<-s.done
	s.anim = gif.GIF{}
}
