//go:build formats

package capture

import (
	"fmt"
	"image"
	"io"

	webp "github.com/kolesa-team/go-webp/encoder"
)

// posterQuality is the lossy WebP quality of poster frames.
const posterQuality = 90

func encodeWebP(w io.Writer, img image.Image) error {
	options, err := webp.NewLossyEncoderOptions(webp.PresetPhoto, posterQuality)
	if err != nil {
		return fmt.Errorf("capture: webp options: %w", err)
	}
	enc, err := webp.NewEncoder(img, options)
	if err != nil {
		return fmt.Errorf("capture: webp encoder: %w", err)
	}
	return enc.Encode(w)
}
