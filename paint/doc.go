// Package paint implements a raster paint layer with pencil, brush, eraser,
// fill, text and stamp tools and a bounded undo/redo history.
//
// The engine keeps a transparent layer that is composited over the source
// image before warping. A layer on paper is a standalone sketch whose
// result can be loaded as a source.
package paint
