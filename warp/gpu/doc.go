// Package gpu runs the warp program as a wgpu compute shader.
//
// The [Accelerator] uploads the source and field rasters as storage buffers,
// dispatches one invocation per output pixel in 8x8 workgroups, and reads the
// frame back through a staging buffer. When no Vulkan adapter is available,
// or a dispatch fails, rendering falls back to the CPU pipeline so callers
// never need a second code path.
//
// Build with the nogpu tag to exclude wgpu entirely.
package gpu
