//go:build !formats

package capture

import (
	"fmt"
	"image"
	"io"
)

func encodeWebP(io.Writer, image.Image) error {
	return fmt.Errorf("%w: WebP posters need the formats build tag", ErrCaptureUnsupported)
}
