package paint

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"

	"github.com/pierkiroule/Pixaloop/internal/blend"
	"github.com/pierkiroule/Pixaloop/internal/lettering"
	"github.com/pierkiroule/Pixaloop/internal/logging"
)

// Paper is the background of a sketch layer.
var Paper = blend.MustHex("#fdfdf9")

// ErrEmptyLayer is returned by New for a non-positive size.
var ErrEmptyLayer = errors.New("paint: empty layer")

// SketchSide returns the side of a square sketch canvas for a viewport
// width pixels wide.
func SketchSide(width int) int {
	return min(1024, max(640, width))
}

// Option configures a Layer.
type Option func(*Layer)

// WithPaper makes the layer start on, and clear to, Paper instead of
// transparency.
func WithPaper() Option {
	return func(l *Layer) { l.background = Paper }
}

// WithBackground sets the color the layer starts on and clears to.
func WithBackground(c color.NRGBA) Option {
	return func(l *Layer) { l.background = c }
}

// Layer is a paintable raster.
//
// Thread safety: all methods are safe for concurrent use.
type Layer struct {
	mu         sync.Mutex
	img        *image.NRGBA
	background color.NRGBA
	hist       history
	version    uint64

	letters *lettering.Lettering

	drawing      bool
	settings     Settings
	lastX, lastY float64
}

// New creates a w×h layer.
func New(w, h int, opts ...Option) (*Layer, error) {
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyLayer
	}
	l := &Layer{img: image.NewNRGBA(image.Rect(0, 0, w, h))}
	for _, opt := range opts {
		opt(l)
	}
	lt, err := lettering.Default()
	if err != nil {
		logging.Logger().Warn("paint: fonts unavailable, text tool disabled", "error", err)
	}
	l.letters = lt
	l.fillBackground()
	return l, nil
}

// Bounds returns the layer rectangle.
func (l *Layer) Bounds() image.Rectangle { return l.img.Rect }

// Version increases with every change to the pixels.
func (l *Layer) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

// Image returns a copy of the layer.
func (l *Layer) Image() *image.NRGBA {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := image.NewNRGBA(l.img.Rect)
	copy(out.Pix, l.img.Pix)
	return out
}

// DrawOver composites the layer over dst, aligned at the origin and scaled
// to dst's bounds when the sizes differ.
func (l *Layer) DrawOver(dst *image.NRGBA) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if dst.Bounds().Size() == l.img.Rect.Size() {
		xdraw.Draw(dst, dst.Bounds(), l.img, image.Point{}, xdraw.Over)
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), l.img, l.img.Rect, xdraw.Over, nil)
}

// Empty reports whether every pixel equals the background.
func (l *Layer) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	bg := l.background
	p := l.img.Pix
	for i := 0; i+3 < len(p); i += 4 {
		if p[i] != bg.R || p[i+1] != bg.G || p[i+2] != bg.B || p[i+3] != bg.A {
			return false
		}
	}
	return true
}

// PointerDown applies s at pixel (x, y). Fill, text and stamp act at once;
// pencil, brush and eraser begin a stroke continued by PointerMove.
// Every press is one undo step.
func (l *Layer) PointerDown(x, y float64, s Settings) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pushLocked()
	switch s.Tool {
	case Fill:
		blend.Fill(l.img, blend.FromNRGBA(s.Color), blend.Get(blend.SourceOver))
	case Text:
		l.textLocked(x, y, s)
	case Stamp:
		l.stampLocked(x, y, s)
	default:
		l.drawing = true
		l.settings = s
		l.lastX, l.lastY = x, y
		return
	}
	l.version++
}

// PointerMove draws a round-capped segment from the previous point.
func (l *Layer) PointerMove(x, y float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.drawing {
		return
	}
	s := l.settings
	width, alpha := s.lineWidth()
	c := blend.FromNRGBA(s.Color).Scale(alpha)
	fn := blend.Get(blend.SourceOver)
	if s.Tool == Eraser {
		c = blend.Color{A: 1}
		fn = blend.Get(blend.DestinationOut)
	}
	blend.Segment(l.img, l.lastX, l.lastY, x, y, width, c, fn)
	l.lastX, l.lastY = x, y
	l.version++
}

// PointerUp ends the stroke.
func (l *Layer) PointerUp() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.drawing = false
}

func (l *Layer) textLocked(x, y float64, s Settings) {
	if l.letters == nil || s.Text == "" {
		return
	}
	m, err := l.letters.Centered(s.Text, lettering.Bold, s.textSize())
	if err != nil {
		logging.Logger().Debug("paint: text skipped", "error", err)
		return
	}
	at := image.Pt(int(math.Round(x)), int(math.Round(y))).Add(m.Offset)
	blend.Mask(l.img, m.Alpha, at, blend.FromNRGBA(s.Color), blend.Get(blend.SourceOver))
}

func (l *Layer) stampLocked(x, y float64, s Settings) {
	side := s.stampSize(l.img.Rect.Dx())
	if s.StampImage == nil || s.StampImage.Bounds().Empty() {
		blend.Disc(l.img, x, y, side/2, blend.FromNRGBA(s.Color), blend.Get(blend.SourceOver))
		return
	}
	sb := s.StampImage.Bounds()
	ratio := float64(sb.Dx()) / float64(sb.Dy())
	w, h := side, side/ratio
	if ratio < 1 {
		w, h = side*ratio, side
	}
	r := image.Rect(
		int(math.Round(x-w/2)), int(math.Round(y-h/2)),
		int(math.Round(x+w/2)), int(math.Round(y+h/2)),
	)
	xdraw.CatmullRom.Scale(l.img, r, s.StampImage, sb, xdraw.Over, nil)
}

// Clear pushes an undo step and restores the background.
func (l *Layer) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pushLocked()
	l.fillBackground()
	l.version++
}

// Reset restores the background and forgets the history.
func (l *Layer) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hist.reset()
	l.drawing = false
	l.fillBackground()
	l.version++
}

// Undo restores the state before the last edit. It reports whether there
// was anything to undo.
func (l *Layer) Undo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	prev, ok := l.hist.back(l.snapshot())
	if ok {
		l.restore(prev)
	}
	return ok
}

// Redo reapplies the last undone edit.
func (l *Layer) Redo() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	next, ok := l.hist.forward(l.snapshot())
	if ok {
		l.restore(next)
	}
	return ok
}

// UndoDepth returns the number of edits that can be undone.
func (l *Layer) UndoDepth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hist.undo)
}

// RedoDepth returns the number of undone edits that can be redone.
func (l *Layer) RedoDepth() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.hist.redo)
}

// EncodePNG writes the layer as PNG.
func (l *Layer) EncodePNG(w io.Writer) error {
	return png.Encode(w, l.Image())
}

func (l *Layer) pushLocked() {
	l.hist.push(l.snapshot())
}

func (l *Layer) snapshot() []byte {
	return append([]byte(nil), l.img.Pix...)
}

func (l *Layer) restore(snap []byte) {
	copy(l.img.Pix, snap)
	l.drawing = false
	l.version++
}

func (l *Layer) fillBackground() {
	bg := l.background
	p := l.img.Pix
	for i := 0; i+3 < len(p); i += 4 {
		p[i], p[i+1], p[i+2], p[i+3] = bg.R, bg.G, bg.B, bg.A
	}
}
