// Package flow turns user gestures into the directional flow field that
// drives the warp.
//
// # Gestures
//
// Raw pointer positions are normalized to [0,1]² and constrained to the
// "vortex", the disk of radius 0.5 inscribed in the canvas. [ClampToVortex]
// projects stray points onto the rim; [CurveTowardVortex] additionally eases
// each new path point toward the previous one in polar coordinates, so that
// straight strokes bend into a mild spiral. A [Filter] applies both and
// drops points closer than [MinPointSpacing] to the last accepted one.
//
// # Field
//
// A [Builder] rasterizes paths and anchors into a [Field]: red and green
// carry the unit direction encoded as (v+1)/2, blue carries the anchor
// weight. Paths paint soft radial splats with source-over blending; anchors
// paint additive blue splats on top. The field is rebuilt only after
// [Builder.Invalidate].
package flow
