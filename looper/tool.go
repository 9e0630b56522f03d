package looper

import (
	"fmt"
	"image/color"

	"github.com/pierkiroule/Pixaloop/internal/blend"
)

// Tool is the kind of mark an event leaves.
type Tool int

const (
	Watercolor Tool = iota
	Ink
	Dry
	Text
	Stamp
)

var toolNames = [...]string{"watercolor", "ink", "dry", "text", "stamp"}

func (t Tool) String() string {
	if t < 0 || int(t) >= len(toolNames) {
		return fmt.Sprintf("Tool(%d)", int(t))
	}
	return toolNames[t]
}

// ParseTool maps a tool name to a Tool.
func ParseTool(name string) (Tool, error) {
	for i, n := range toolNames {
		if n == name {
			return Tool(i), nil
		}
	}
	return 0, fmt.Errorf("looper: unknown tool %q", name)
}

// lettered reports whether the tool draws Content instead of dabs.
func (t Tool) lettered() bool { return t == Text || t == Stamp }

// texture returns the dab softness (global alpha) and position jitter.
func (t Tool) texture() (softness, jitter float64) {
	switch t {
	case Watercolor:
		return 0.85, 0.6
	case Ink:
		return 0.45, 0.35
	case Dry:
		return 0.2, 0.15
	default:
		return 0.6, 0.25
	}
}

// Blends lists the compositing modes offered for marks.
var Blends = []blend.Mode{blend.SourceOver, blend.Multiply, blend.Overlay}

// Stamps lists the stamp glyphs offered by default.
var Stamps = []string{"🌀", "🌌", "✨", "💠", "🎆"}

// Palette lists the preset mark colors.
var Palette = []color.NRGBA{
	blend.MustHex("#3b82f6"),
	blend.MustHex("#ef4444"),
	blend.MustHex("#10b981"),
	blend.MustHex("#f59e0b"),
	blend.MustHex("#8b5cf6"),
	blend.MustHex("#0f172a"),
	blend.MustHex("#ffffff"),
}

const (
	MinSize = 12
	MaxSize = 140

	// DefaultText is drawn by the text tool when Brush.Content is empty.
	DefaultText = "Squiggle"
)

// Brush is the mark configuration captured when a stroke begins.
type Brush struct {
	Tool  Tool
	Blend blend.Mode
	Color color.NRGBA
	// Size is the dab size or font size in pixels, clamped to
	// [MinSize, MaxSize].
	Size float64
	// Content is the text or stamp glyph. Empty selects DefaultText or the
	// first of Stamps.
	Content string
}

// DefaultBrush returns the initial brush: blue watercolor, size 42.
func DefaultBrush() Brush {
	return Brush{Tool: Watercolor, Blend: blend.SourceOver, Color: Palette[0], Size: 42}
}

func (b Brush) normalized() Brush {
	b.Size = min(max(b.Size, MinSize), MaxSize)
	if b.Content == "" {
		switch b.Tool {
		case Text:
			b.Content = DefaultText
		case Stamp:
			b.Content = Stamps[0]
		}
	}
	return b
}
