package pixaloop

import (
	"fmt"

	"github.com/pierkiroule/Pixaloop/flow"
	"github.com/pierkiroule/Pixaloop/paint"
)

// Tool selects what a pointer gesture does.
type Tool int

const (
	// ToolFlow draws a flow path.
	ToolFlow Tool = iota
	// ToolAnchor places a still anchor on pointer down.
	ToolAnchor
	// ToolPaint paints on the overlay above the source image.
	ToolPaint
)

func (t Tool) String() string {
	switch t {
	case ToolFlow:
		return "flow"
	case ToolAnchor:
		return "anchor"
	case ToolPaint:
		return "paint"
	default:
		return fmt.Sprintf("Tool(%d)", int(t))
	}
}

// BeginGesture starts a gesture at p, in normalized frame coordinates.
func (e *Engine) BeginGesture(p flow.Point, tool Tool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.endGestureLocked()
	e.gesture = tool
	e.inFlight = true

	switch tool {
	case ToolFlow:
		e.filter.Reset()
		q, ok := e.filter.Accept(p)
		if !ok {
			return
		}
		e.current = flow.NewPath(q)
		e.paths = append(e.paths, e.current)
		e.builder.Invalidate()
	case ToolAnchor:
		e.anchors = append(e.anchors, e.filter.Anchor(p))
		e.builder.Invalidate()
		e.inFlight = false
	case ToolPaint:
		x, y := e.overlayPoint(p)
		e.overlay.PointerDown(x, y, e.painting)
	}
}

// ExtendGesture continues the current gesture. Points rejected by the
// vortex filter are dropped.
func (e *Engine) ExtendGesture(p flow.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.inFlight {
		return
	}
	switch e.gesture {
	case ToolFlow:
		q, ok := e.filter.Accept(p)
		if !ok {
			return
		}
		if e.current == nil {
			e.current = flow.NewPath(q)
			e.paths = append(e.paths, e.current)
		} else if err := e.current.Append(q); err != nil {
			return
		}
		e.builder.Invalidate()
	case ToolPaint:
		x, y := e.overlayPoint(p)
		e.overlay.PointerMove(x, y)
	}
}

// EndGesture finishes the current gesture. A flow path is frozen.
func (e *Engine) EndGesture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.endGestureLocked()
}

func (e *Engine) endGestureLocked() {
	if !e.inFlight {
		return
	}
	switch e.gesture {
	case ToolFlow:
		if e.current != nil {
			e.current.Freeze()
		}
		e.current = nil
	case ToolPaint:
		e.overlay.PointerUp()
	}
	e.inFlight = false
}

// PlaceAnchor adds a still point at p.
func (e *Engine) PlaceAnchor(p flow.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anchors = append(e.anchors, e.filter.Anchor(p))
	e.builder.Invalidate()
}

// Paths returns the number of flow paths.
func (e *Engine) Paths() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.paths)
}

// Anchors returns a copy of the anchors.
func (e *Engine) Anchors() []flow.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]flow.Point(nil), e.anchors...)
}

// ResetScene clears the paths and anchors, cancelling any recording. The
// source image and the overlay are kept.
func (e *Engine) ResetScene() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.capture.Cancel()
	e.clearFlowLocked()
}

func (e *Engine) clearFlowLocked() {
	e.paths = nil
	e.anchors = nil
	e.current = nil
	e.inFlight = false
	e.filter.Reset()
	e.builder.Invalidate()
}

// SetPaintSettings sets the tool used by ToolPaint gestures.
func (e *Engine) SetPaintSettings(s paint.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.painting = s
}

// PaintSettings returns the current paint settings.
func (e *Engine) PaintSettings() paint.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.painting
}

// Overlay returns the paint overlay. Edits made through it, such as Undo,
// show up on the next Step.
func (e *Engine) Overlay() *paint.Layer {
	return e.overlay
}

func (e *Engine) overlayPoint(p flow.Point) (x, y float64) {
	s := float64(e.frameSize)
	return p.X * s, p.Y * s
}
