package paint

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pierkiroule/Pixaloop/internal/blend"
)

// Tool selects what a pointer press does.
type Tool int

const (
	Pencil Tool = iota
	Brush
	Eraser
	Fill
	Text
	Stamp
)

var toolNames = [...]string{"pencil", "brush", "eraser", "fill", "text", "stamp"}

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
	return 0, fmt.Errorf("paint: unknown tool %q", name)
}

// stroked reports whether the tool draws segments while the pointer moves.
func (t Tool) stroked() bool { return t == Pencil || t == Brush || t == Eraser }

// Palette lists the preset colors.
var Palette = []color.NRGBA{
	blend.MustHex("#111827"),
	blend.MustHex("#0ea5e9"),
	blend.MustHex("#f43f5e"),
	blend.MustHex("#f59e0b"),
	blend.MustHex("#22c55e"),
	blend.MustHex("#a855f7"),
	blend.MustHex("#ffffff"),
}

// DefaultText is the initial text tool content.
const DefaultText = "Hello Horizon"

// Settings is the tool configuration used by a pointer press.
type Settings struct {
	Tool  Tool
	Color color.NRGBA
	Size  float64
	Text  string
	// StampImage is drawn by the stamp tool. Without one the stamp is a
	// filled disc.
	StampImage image.Image
}

// DefaultSettings returns a dark size-12 pencil.
func DefaultSettings() Settings {
	return Settings{Tool: Pencil, Color: Palette[0], Size: 12, Text: DefaultText}
}

func clamp(v, lo, hi float64) float64 { return min(max(v, lo), hi) }

// lineWidth returns the stroke width and alpha of a stroked tool.
func (s Settings) lineWidth() (width, alpha float64) {
	switch s.Tool {
	case Pencil:
		return clamp(s.Size*0.6, 2, 40), 0.9
	case Brush:
		return clamp(s.Size*1.2, 4, 140), 0.75
	case Eraser:
		return clamp(s.Size*1.4, 8, 120), 1
	default:
		return 0, 0
	}
}

// textSize returns the font size of the text tool.
func (s Settings) textSize() float64 { return max(18, s.Size*2) }

// stampSize returns the longest side of a stamp on a canvas width pixels
// wide.
func (s Settings) stampSize(width int) float64 {
	return clamp(s.Size*8, 60, float64(width)*0.9)
}
