package capture

import (
	"errors"
	"image"
)

// FrameRate is the capture frame rate.
const FrameRate = 30

var (
	// ErrCaptureUnsupported is returned when no encoder is available.
	ErrCaptureUnsupported = errors.New("capture: recording not supported")
	// ErrBusy is returned by Start while a recording is in flight.
	ErrBusy = errors.New("capture: recording already in progress")
	// ErrCanceled is delivered when a recording is aborted.
	ErrCanceled = errors.New("capture: recording canceled")
	// ErrSinkClosed is returned when writing to a stopped sink.
	ErrSinkClosed = errors.New("capture: sink closed")
)

// Blob is an encoded clip.
type Blob struct {
	Data     []byte
	MIMEType string
	Filename string
}

// SinkConfig describes the stream a sink encodes.
type SinkConfig struct {
	Width, Height int
	FPS           int
	Bitrate       int
	// Name is the output file name without extension.
	Name string
}

// Sink encodes a stream of frames.
//
// WriteFrame must not retain img after returning; implementations copy what
// they need and encode asynchronously. Stop flushes buffered frames and
// returns the finished clip. Abort discards everything and releases
// encoder resources. Stop and Abort may each be called once.
type Sink interface {
	Start(cfg SinkConfig) error
	WriteFrame(img image.Image) error
	Stop() (Blob, error)
	Abort()
}

// SinkFactory creates a fresh sink for one recording.
type SinkFactory func(kind Kind) Sink
