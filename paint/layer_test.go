package paint

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func newLayer(t *testing.T, opts ...Option) *Layer {
	t.Helper()
	l, err := New(200, 200, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestNew(t *testing.T) {
	if _, err := New(0, 10); err != ErrEmptyLayer {
		t.Errorf("New(0, 10) error = %v", err)
	}
	transparent := newLayer(t)
	if got := transparent.Image().NRGBAAt(5, 5); got != (color.NRGBA{}) {
		t.Errorf("transparent layer pixel = %v", got)
	}
	paper := newLayer(t, WithPaper())
	if got := paper.Image().NRGBAAt(5, 5); got != Paper {
		t.Errorf("paper layer pixel = %v", got)
	}
	if !transparent.Empty() || !paper.Empty() {
		t.Error("fresh layers not empty")
	}
}

func TestSketchSide(t *testing.T) {
	tests := []struct{ in, want int }{{320, 640}, {800, 800}, {2000, 1024}}
	for _, tt := range tests {
		if got := SketchSide(tt.in); got != tt.want {
			t.Errorf("SketchSide(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestToolSizes(t *testing.T) {
	tests := []struct {
		tool      Tool
		size      float64
		wantWidth float64
		wantAlpha float64
	}{
		{Pencil, 12, 7.2, 0.9},
		{Pencil, 1, 2, 0.9},
		{Pencil, 100, 40, 0.9},
		{Brush, 12, 14.4, 0.75},
		{Brush, 200, 140, 0.75},
		{Eraser, 2, 8, 1},
		{Eraser, 12, 16.8, 1},
	}
	for _, tt := range tests {
		w, a := Settings{Tool: tt.tool, Size: tt.size}.lineWidth()
		if diff := cmp.Diff([2]float64{tt.wantWidth, tt.wantAlpha}, [2]float64{w, a}, cmp.Comparer(func(x, y float64) bool {
			return x-y < 1e-9 && y-x < 1e-9
		})); diff != "" {
			t.Errorf("%v size %v (-want +got):\n%s", tt.tool, tt.size, diff)
		}
	}
	if got := (Settings{Size: 12}).stampSize(200); got != 96 {
		t.Errorf("stamp size = %v, want 96", got)
	}
	if got := (Settings{Size: 2}).stampSize(1000); got != 60 {
		t.Errorf("stamp size = %v, want 60", got)
	}
	if got := (Settings{Size: 140}).stampSize(200); got != 180 {
		t.Errorf("stamp size = %v, want 180", got)
	}
	if got := (Settings{Size: 4}).textSize(); got != 18 {
		t.Errorf("text size = %v, want 18", got)
	}
}

func TestStrokeAndErase(t *testing.T) {
	l := newLayer(t, WithPaper())
	s := DefaultSettings()
	s.Tool = Brush
	s.Color = Palette[1]
	l.PointerDown(20, 100, s)
	l.PointerMove(180, 100)
	l.PointerUp()
	l.PointerMove(180, 20) // ignored after PointerUp

	img := l.Image()
	if img.NRGBAAt(100, 100) == Paper {
		t.Fatal("brush left no mark")
	}
	if img.NRGBAAt(100, 40) != Paper {
		t.Error("stroke bled far from its path")
	}
	if img.NRGBAAt(180, 30) != Paper {
		t.Error("move after PointerUp drew")
	}

	e := DefaultSettings()
	e.Tool = Eraser
	l.PointerDown(100, 80, e)
	l.PointerMove(100, 120)
	l.PointerUp()
	if a := l.Image().NRGBAAt(100, 100).A; a != 0 {
		t.Errorf("erased alpha = %d, want 0", a)
	}
	if l.UndoDepth() != 2 {
		t.Errorf("undo depth = %d, want 2", l.UndoDepth())
	}
}

func TestFillTextStamp(t *testing.T) {
	l := newLayer(t)
	s := DefaultSettings()
	s.Tool = Fill
	s.Color = Palette[2]
	l.PointerDown(0, 0, s)
	if got := l.Image().NRGBAAt(199, 199); got != Palette[2] {
		t.Errorf("fill = %v, want %v", got, Palette[2])
	}

	l.Reset()
	s = DefaultSettings()
	s.Tool = Text
	s.Size = 20
	l.PointerDown(100, 100, s)
	if l.Empty() {
		t.Error("text drew nothing")
	}

	l.Reset()
	s = DefaultSettings()
	s.Tool = Stamp
	s.Color = Palette[4]
	s.Size = 10 // 80px disc
	l.PointerDown(100, 100, s)
	img := l.Image()
	if img.NRGBAAt(100, 100) != Palette[4] || img.NRGBAAt(100, 62) != Palette[4] {
		t.Error("stamp disc not filled")
	}
	if img.NRGBAAt(100, 55).A != 0 {
		t.Error("stamp disc larger than its size")
	}
}

func TestStampImageKeepsRatio(t *testing.T) {
	l := newLayer(t)
	src := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+3] = 255, 255
	}
	s := DefaultSettings()
	s.Tool = Stamp
	s.Size = 10 // 80px wide, 40px high
	s.StampImage = src
	l.PointerDown(100, 100, s)
	img := l.Image()
	red := func(c color.NRGBA) bool { return c.R > 250 && c.G < 5 && c.A > 250 }
	if !red(img.NRGBAAt(65, 100)) || !red(img.NRGBAAt(100, 85)) {
		t.Error("stamp image not drawn over its box")
	}
	if img.NRGBAAt(100, 75).A != 0 || img.NRGBAAt(55, 100).A != 0 {
		t.Error("stamp image drawn outside its box")
	}
}

func TestUndoRedo(t *testing.T) {
	l := newLayer(t, WithPaper())
	s := DefaultSettings()
	s.Tool = Fill

	var states [][]byte
	states = append(states, l.Image().Pix)
	for _, c := range Palette[:3] {
		s.Color = c
		l.PointerDown(0, 0, s)
		states = append(states, l.Image().Pix)
	}

	for i := 2; i >= 0; i-- {
		if !l.Undo() {
			t.Fatalf("undo to state %d failed", i)
		}
		if !bytes.Equal(l.Image().Pix, states[i]) {
			t.Errorf("after undo, state %d not restored", i)
		}
	}
	if l.Undo() {
		t.Error("undo past the first edit succeeded")
	}
	for i := 1; i <= 3; i++ {
		if !l.Redo() {
			t.Fatalf("redo to state %d failed", i)
		}
		if !bytes.Equal(l.Image().Pix, states[i]) {
			t.Errorf("after redo, state %d not restored", i)
		}
	}
	if l.Redo() {
		t.Error("redo past the last edit succeeded")
	}

	// A new edit forgets the redo stack.
	l.Undo()
	l.PointerDown(0, 0, s)
	if l.RedoDepth() != 0 {
		t.Errorf("redo depth after edit = %d", l.RedoDepth())
	}
}

func TestHistoryBounded(t *testing.T) {
	l := newLayer(t)
	s := DefaultSettings()
	s.Tool = Fill
	for i := 0; i < 30; i++ {
		l.PointerDown(0, 0, s)
	}
	if got := l.UndoDepth(); got != maxHistory {
		t.Errorf("undo depth = %d, want %d", got, maxHistory)
	}
	for l.Undo() {
	}
	if got := l.RedoDepth(); got != maxHistory {
		t.Errorf("redo depth = %d, want %d", got, maxHistory)
	}
}

func TestClear(t *testing.T) {
	l := newLayer(t, WithPaper())
	s := DefaultSettings()
	s.Tool = Fill
	l.PointerDown(0, 0, s)
	v := l.Version()
	l.Clear()
	if !l.Empty() || l.Version() <= v {
		t.Error("clear did not restore paper")
	}
	l.Undo()
	if l.Empty() {
		t.Error("clear is not undoable")
	}
}

func TestDrawOverAndPNG(t *testing.T) {
	l := newLayer(t)
	s := DefaultSettings()
	s.Tool = Fill
	s.Color = color.NRGBA{R: 255, A: 128}
	l.PointerDown(0, 0, s)

	dst := image.NewNRGBA(image.Rect(0, 0, 100, 100))
	for i := range dst.Pix {
		dst.Pix[i] = 255
	}
	l.DrawOver(dst)
	got := dst.NRGBAAt(50, 50)
	if got.A != 255 || got.R != 255 || got.G < 120 || got.G > 135 {
		t.Errorf("half red over white = %v", got)
	}

	var buf bytes.Buffer
	if err := l.EncodePNG(&buf); err != nil {
		t.Fatal(err)
	}
	dec, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Bounds() != l.Bounds() {
		t.Errorf("png bounds = %v", dec.Bounds())
	}
}

func TestParseTool(t *testing.T) {
	for _, tool := range []Tool{Pencil, Brush, Eraser, Fill, Text, Stamp} {
		if got, err := ParseTool(tool.String()); err != nil || got != tool {
			t.Errorf("ParseTool(%q) = %v, %v", tool, got, err)
		}
	}
	if _, err := ParseTool("lasso"); err == nil {
		t.Error("unknown tool accepted")
	}
}
