package texsource

import (
	"errors"
	"image"
	"time"

	"github.com/pierkiroule/Pixaloop/internal/clock"
)

// ErrEmptyClip is returned by NewClip without frames.
var ErrEmptyClip = errors.New("texsource: empty clip")

// Clip loops recorded frames, such as an exported ping-pong loop, as a
// video texture.
type Clip struct {
	frames []image.Image
	period time.Duration
	clock  clock.Clock
	start  time.Time
}

// NewClip plays frames at fps frames per second, starting now on c.
// A nil clock uses the wall clock.
func NewClip(frames []image.Image, fps int, c clock.Clock) (*Clip, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyClip
	}
	if fps <= 0 {
		fps = 30
	}
	if c == nil {
		c = clock.Real{}
	}
	return &Clip{
		frames: frames,
		period: time.Second / time.Duration(fps),
		clock:  c,
		start:  c.Now(),
	}, nil
}

// Len returns the number of frames.
func (c *Clip) Len() int { return len(c.frames) }

// Duration returns the length of one pass through the clip.
func (c *Clip) Duration() time.Duration { return c.period * time.Duration(len(c.frames)) }

// Frame returns the frame due now. It is a FrameFunc.
func (c *Clip) Frame() image.Image {
	elapsed := max(c.clock.Now().Sub(c.start), 0)
	i := int(elapsed/c.period) % len(c.frames)
	return c.frames[i]
}
