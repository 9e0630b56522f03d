package pixaloop

import "errors"

var (
	// ErrInitialization is returned by Step and StartCapture when the
	// renderer could not be initialized. The engine stays inert.
	ErrInitialization = errors.New("pixaloop: renderer initialization failed")

	// ErrFrameSkipped wraps a per-frame rendering failure. The previous
	// frame is kept and the next Step proceeds normally.
	ErrFrameSkipped = errors.New("pixaloop: frame skipped")

	// ErrNoSource is returned when an operation needs a source image.
	ErrNoSource = errors.New("pixaloop: no source image")

	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("pixaloop: engine closed")
)
