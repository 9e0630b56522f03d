package capture

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

// PosterFormat is the still-image format of a clip's poster frame.
type PosterFormat string

const (
	PosterPNG  PosterFormat = "png"
	PosterWebP PosterFormat = "webp"
)

// EncodePoster writes img as a poster frame. WebP needs a build with the
// formats tag (cgo, libwebp); otherwise it returns ErrCaptureUnsupported.
func EncodePoster(w io.Writer, img image.Image, format PosterFormat) error {
	switch format {
	case PosterPNG, "":
		enc := png.Encoder{CompressionLevel: png.BestSpeed}
		return enc.Encode(w, img)
	case PosterWebP:
		return encodeWebP(w, img)
	default:
		return fmt.Errorf("capture: unknown poster format %q", format)
	}
}
