package capture

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// frameQueueSize bounds the number of frames waiting for the encoder.
const frameQueueSize = 16

// rgbaCopy converts img to a tightly packed RGBA buffer of w×h pixels,
// scaling if the frame size changed mid-recording.
func rgbaCopy(img image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		xdraw.Copy(dst, image.Point{}, img, b, xdraw.Src, nil)
		return dst
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, xdraw.Src, nil)
	return dst
}

// enqueue hands f to an encoder goroutine. When block is false and the queue
// is full it reports false instead of waiting.
func enqueue(q chan<- *image.RGBA, f *image.RGBA, block bool) bool {
	if block {
		q <- f
		return true
	}
	select {
	case q <- f:
		return true
	default:
		return false
	}
}
