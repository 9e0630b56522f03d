package capture

import (
	"image"
	"sync"
)

// MemorySink keeps every frame in memory. It encodes nothing and is meant
// for tests and for callers that post-process frames themselves.
type MemorySink struct {
	mu      sync.Mutex
	cfg     SinkConfig
	frames  []*image.RGBA
	started bool
	stopped bool
	aborted bool
	// StartErr, when set, is returned by Start.
	StartErr error
}

var _ Sink = (*MemorySink)(nil)

func (s *MemorySink) Start(cfg SinkConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StartErr != nil {
		return s.StartErr
	}
	s.cfg = cfg
	s.started = true
	return nil
}

func (s *MemorySink) WriteFrame(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped || s.aborted {
		return ErrSinkClosed
	}
	s.frames = append(s.frames, rgbaCopy(img, s.cfg.Width, s.cfg.Height))
	return nil
}

func (s *MemorySink) Stop() (Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped || s.aborted {
		return Blob{}, ErrSinkClosed
	}
	s.stopped = true
	return Blob{MIMEType: "application/octet-stream", Filename: s.cfg.Name + ".raw"}, nil
}

func (s *MemorySink) Abort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aborted = true
}

// Frames returns the recorded frames.
func (s *MemorySink) Frames() []*image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*image.RGBA(nil), s.frames...)
}

// Config returns the configuration passed to Start.
func (s *MemorySink) Config() SinkConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Stopped reports whether Stop was called.
func (s *MemorySink) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// Aborted reports whether Abort was called.
func (s *MemorySink) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}
