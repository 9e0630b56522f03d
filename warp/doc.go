// Package warp implements the shading pipeline that animates the source
// image along the flow field.
//
// Every output pixel samples the source twice, displaced along the flow
// direction by two phases half a cycle apart, and crossfades the samples so
// that the wrap of either phase is hidden under the other. The result loops
// exactly once per cycle. A style [Mode] then restyles the blended color.
// [PolarRemap] is an optional second pass that swirls a frame about its
// center along the same field.
//
// [Pipeline] is the CPU reference implementation. The same program is
// written in WGSL (shaders/warp.wgsl) for the compute accelerator in
// warp/gpu; [CompileShader] validates it.
package warp
