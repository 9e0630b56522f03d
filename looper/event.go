package looper

import (
	"cmp"
	"image/color"
	"time"

	"github.com/pierkiroule/Pixaloop/internal/blend"
)

// Event is one recorded mark.
type Event struct {
	X, Y    float64
	Color   color.NRGBA
	Size    float64
	Tool    Tool
	Blend   blend.Mode
	Content string
	// Offset is the time since the start of the cycle the mark was made in.
	Offset time.Duration
	// Seed fixes the dab radius and jitter so every replay is identical.
	Seed uint64
	// Seq breaks ties between events with the same offset.
	Seq uint64

	triggered bool
}

func compareEvents(a, b *Event) int {
	if c := cmp.Compare(a.Offset, b.Offset); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}
