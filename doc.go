// Package pixaloop animates a still image along gesture-drawn flow and
// captures the result as a seamless loop.
//
// # Overview
//
// An Engine owns the whole scene: the source image, the flow paths and
// anchors drawn over it, a paint overlay, the style mode and the animation
// clock. The caller drives it with one Step per display refresh:
//
//	e := pixaloop.New()
//	defer e.Close()
//	if err := e.LoadSource(img); err != nil {
//		return err
//	}
//	e.BeginGesture(flow.Pt(0.2, 0.2), pixaloop.ToolFlow)
//	e.ExtendGesture(flow.Pt(0.8, 0.8))
//	e.EndGesture()
//	e.SetAnimating(true)
//	for now := range ticker.C {
//		if err := e.Step(now); err != nil && !errors.Is(err, pixaloop.ErrFrameSkipped) {
//			return err
//		}
//		show(e.SquareFrame())
//	}
//
// # Pipeline
//
// Gestures pass through the vortex filter in package flow, which eases them
// into the unit disk; the flow builder paints paths and anchors into a
// direction field. The warp package samples the source twice along the
// field, half a cycle apart, and crossfades the two so the animation loops
// every cycle. A style mode then restyles each pixel, and WithPolarFlow can
// add a swirl about the frame center. The compose package embeds the square
// frame in a wide dome master frame or remaps it onto an equirectangular
// panorama, and the capture package records one cycle of any of them to a
// video file.
//
// # Rendering backends
//
// Frames are shaded on the CPU by default. WithGPU adds a wgpu compute
// accelerator that falls back to the CPU when no adapter is available.
//
// # Logging
//
// Pixaloop logs through log/slog and is silent by default. See SetLogger.
package pixaloop
