package warp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// DefaultDuration is the length of one animation cycle.
const DefaultDuration = 5 * time.Second

// ErrInvalidMode is returned for a style mode outside 0..10.
var ErrInvalidMode = errors.New("warp: invalid style mode")

// Mode selects the style transform applied after the dual-phase warp.
type Mode int

// Style modes. The numeric values are stable and shared with the shader.
const (
	ModeOriginal Mode = iota
	ModeAurora
	ModePrism
	ModePaper
	ModeChromaStar
	ModeSwirlGlow
	ModeRipple
	ModeInfrared
	ModeKaleido
	ModeBlock
	ModeStreak

	modeCount
)

var modeNames = [modeCount]string{
	"original", "aurora", "prism", "paper", "chroma-star", "swirl-glow",
	"ripple", "infrared", "kaleido", "block", "streak",
}

// Valid reports whether m is one of the eleven style modes.
func (m Mode) Valid() bool { return m >= 0 && m < modeCount }

// String returns the mode's lowercase name.
func (m Mode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Mode(%d)", int(m))
	}
	return modeNames[m]
}

// Modes returns every style mode in numeric order.
func Modes() []Mode {
	out := make([]Mode, modeCount)
	for i := range out {
		out[i] = Mode(i)
	}
	return out
}

// ParseMode accepts a mode name or its number.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range modeNames {
		if n == s {
			return Mode(i), nil
		}
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && fmt.Sprint(n) == s && Mode(n).Valid() {
		return Mode(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Uniforms are the per-frame inputs of the pipeline.
type Uniforms struct {
	// Time is the elapsed animation time.
	Time time.Duration
	// Active scales the warp force: false renders the still image.
	Active bool
	// Duration is the cycle length. Zero selects DefaultDuration.
	Duration time.Duration
	Mode     Mode
}

func (u Uniforms) duration() float64 {
	if u.Duration <= 0 {
		return DefaultDuration.Seconds()
	}
	return u.Duration.Seconds()
}

// Phase returns the position within the cycle in [0,1).
func (u Uniforms) Phase() float64 {
	return fract(u.Time.Seconds() / u.duration())
}

func (u Uniforms) active() float64 {
	if u.Active {
		return 1
	}
	return 0
}

// packed mirrors the shader's uniform block, padded to 48 bytes.
type packed struct {
	Time     float32
	Active   float32
	Duration float32
	Mode     uint32
	Width    uint32
	Height   uint32
	SrcW     uint32
	SrcH     uint32
	FieldW   uint32
	FieldH   uint32
}

// Pack encodes u for the shader's uniform buffer. Time is reduced to the
// cycle so that float32 keeps full precision on long sessions.
func (u Uniforms) Pack(dstW, dstH int, src, field *Texture) []byte {
	d := u.duration()
	p := packed{
		Time:     float32(u.Phase() * d),
		Active:   float32(u.active()),
		Duration: float32(d),
		Mode:     uint32(u.Mode),
		Width:    uint32(dstW),
		Height:   uint32(dstH),
		SrcW:     uint32(src.w),
		SrcH:     uint32(src.h),
		FieldW:   uint32(field.w),
		FieldH:   uint32(field.h),
	}
	return p.bytes()
}

func (p packed) bytes() []byte {
	buf := make([]byte, 0, 48)
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(p.Time))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(p.Active))
	buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(p.Duration))
	for _, v := range []uint32{p.Mode, p.Width, p.Height, p.SrcW, p.SrcH, p.FieldW, p.FieldH, 0, 0} {
		buf = binary.LittleEndian.AppendUint32(buf, v)
	}
	return buf
}
