//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/pierkiroule/Pixaloop/internal/logging"
	"github.com/pierkiroule/Pixaloop/warp"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// ErrNoAdapter is returned by Init when no GPU adapter can be opened.
var ErrNoAdapter = errors.New("warp/gpu: no GPU adapter")

// fenceTimeout bounds the wait for one frame.
const fenceTimeout = 5 * time.Second

// uniformSize is the size of the packed warp.Uniforms block.
const uniformSize = 48

// Accelerator renders warp frames on the GPU. It implements warp.Renderer.
//
// Thread safety: Accelerator is safe for concurrent use; frames are
// dispatched one at a time.
type Accelerator struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	fallback       warp.Renderer
	gpuReady       bool
	externalDevice bool
	dispatched     int
}

var _ warp.Renderer = (*Accelerator)(nil)

// New creates an accelerator that uses fallback until Init succeeds.
func New(fallback warp.Renderer) *Accelerator {
	return &Accelerator{fallback: fallback}
}

// Name identifies the renderer in logs.
func (a *Accelerator) Name() string { return "warp-gpu" }

// Ready reports whether frames are rendered on the GPU.
func (a *Accelerator) Ready() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.gpuReady
}

// Dispatched returns how many frames were rendered on the GPU.
func (a *Accelerator) Dispatched() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dispatched
}

// Init opens a Vulkan device and builds the compute pipeline. Failure is
// logged and leaves the accelerator on its CPU fallback; the error is
// returned so callers can report it.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.gpuReady {
		return nil
	}
	if err := a.initGPU(); err != nil {
		logging.Logger().Warn("warp-gpu: GPU init failed, using CPU fallback", "err", err)
		a.releaseDevice()
		return err
	}
	return nil
}

// SetDeviceProvider switches to a GPU device owned by the host
// application. The provider must expose HalDevice() and HalQueue()
// returning hal.Device and hal.Queue.
func (a *Accelerator) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("warp-gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("warp-gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("warp-gpu: provider HalQueue is not hal.Queue")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.destroyPipeline()
	a.releaseDevice()
	a.device = device
	a.queue = queue
	a.externalDevice = true

	if err := a.createPipeline(); err != nil {
		a.gpuReady = false
		return fmt.Errorf("warp-gpu: create pipeline with shared device: %w", err)
	}
	a.gpuReady = true
	logging.Logger().Info("warp-gpu: switched to shared GPU device")
	return nil
}

// Render implements warp.Renderer.
func (a *Accelerator) Render(dst *image.NRGBA, src, field *warp.Texture, u warp.Uniforms) error {
	if err := warp.Validate(dst, src, field, u); err != nil {
		return err
	}
	a.mu.Lock()
	if a.gpuReady {
		err := a.dispatch(dst, src, field, u)
		if err == nil {
			a.dispatched++
			a.mu.Unlock()
			return nil
		}
		logging.Logger().Warn("warp-gpu: dispatch failed, rendering on CPU", "err", err)
	}
	a.mu.Unlock()
	if a.fallback == nil {
		return ErrNoAdapter
	}
	return a.fallback.Render(dst, src, field, u)
}

// Close releases the pipeline and, unless shared, the device.
func (a *Accelerator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.destroyPipeline()
	a.releaseDevice()
	a.gpuReady = false
}

func (a *Accelerator) releaseDevice() {
	if !a.externalDevice {
		if a.device != nil {
			a.device.Destroy()
		}
		if a.instance != nil {
			a.instance.Destroy()
		}
	}
	a.device = nil
	a.instance = nil
	a.queue = nil
	a.externalDevice = false
}

func (a *Accelerator) initGPU() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	a.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return ErrNoAdapter
	}
	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	a.device = openDev.Device
	a.queue = openDev.Queue
	if err := a.createPipeline(); err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	a.gpuReady = true
	logging.Logger().Info("warp-gpu: accelerator initialized", "adapter", selected.Info.Name)
	return nil
}

func (a *Accelerator) createPipeline() error {
	shader, err := a.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "warp",
		Source: hal.ShaderSource{WGSL: warp.ShaderSource()},
	})
	if err != nil {
		return fmt.Errorf("compile warp shader: %w", err)
	}
	a.shader = shader

	bindLayout, err := a.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "warp_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}
	a.bindLayout = bindLayout

	pipeLayout, err := a.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "warp_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{a.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	a.pipeLayout = pipeLayout

	pipeline, err := a.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "warp_pipeline", Layout: a.pipeLayout,
		Compute: hal.ComputeState{Module: a.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	a.pipeline = pipeline
	return nil
}

func (a *Accelerator) destroyPipeline() {
	if a.device == nil {
		return
	}
	if a.pipeline != nil {
		a.device.DestroyComputePipeline(a.pipeline)
		a.pipeline = nil
	}
	if a.pipeLayout != nil {
		a.device.DestroyPipelineLayout(a.pipeLayout)
		a.pipeLayout = nil
	}
	if a.bindLayout != nil {
		a.device.DestroyBindGroupLayout(a.bindLayout)
		a.bindLayout = nil
	}
	if a.shader != nil {
		a.device.DestroyShaderModule(a.shader)
		a.shader = nil
	}
}

// dispatch renders one frame. Buffers are created per frame; the source and
// field rarely change size so the driver's allocator absorbs the churn.
func (a *Accelerator) dispatch(dst *image.NRGBA, src, field *warp.Texture, u warp.Uniforms) error {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	outSize := uint64(w * h * 4)
	srcBytes := packPixels(src.NRGBA())
	fieldBytes := packPixels(field.NRGBA())
	params := u.Pack(w, h, src, field)

	var bufs []hal.Buffer
	defer func() {
		for _, b := range bufs {
			a.device.DestroyBuffer(b)
		}
	}()
	newBuf := func(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
		b, err := a.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
		if err != nil {
			return nil, fmt.Errorf("create %s buffer: %w", label, err)
		}
		bufs = append(bufs, b)
		return b, nil
	}

	uniformBuf, err := newBuf("warp_params", uniformSize, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	srcBuf, err := newBuf("warp_src", uint64(len(srcBytes)), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	fieldBuf, err := newBuf("warp_field", uint64(len(fieldBytes)), gputypes.BufferUsageStorage|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	outBuf, err := newBuf("warp_out", outSize, gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc)
	if err != nil {
		return err
	}
	stagingBuf, err := newBuf("warp_staging", outSize, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}

	a.queue.WriteBuffer(uniformBuf, 0, params)
	a.queue.WriteBuffer(srcBuf, 0, srcBytes)
	a.queue.WriteBuffer(fieldBuf, 0, fieldBytes)

	bg, err := a.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "warp_bind", Layout: a.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uniformSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: srcBuf.NativeHandle(), Offset: 0, Size: uint64(len(srcBytes))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: fieldBuf.NativeHandle(), Offset: 0, Size: uint64(len(fieldBytes))}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: outBuf.NativeHandle(), Offset: 0, Size: outSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	defer a.device.DestroyBindGroup(bg)

	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "warp_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("warp"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "warp_pass"})
	pass.SetPipeline(a.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(uint32((w+7)/8), uint32((h+7)/8), 1) //nolint:gosec // frame dimensions fit uint32
	pass.End()
	encoder.CopyBufferToBuffer(outBuf, stagingBuf, []hal.BufferCopy{{SrcOffset: 0, DstOffset: 0, Size: outSize}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer a.device.FreeCommandBuffer(cmdBuf)

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer a.device.DestroyFence(fence)
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	fenceOK, err := a.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", fenceOK, err)
	}

	readback := make([]byte, outSize)
	if err := a.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	unpackPixels(readback, dst)
	return nil
}

// packPixels lays img out as tightly packed little-endian RGBA words.
func packPixels(img *image.NRGBA) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	out := make([]byte, w*h*4)
	for y := range h {
		row := img.Pix[img.PixOffset(img.Rect.Min.X, img.Rect.Min.Y+y):]
		for x := range w {
			p := row[x*4 : x*4+4 : x*4+4]
			packed := uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
			binary.LittleEndian.PutUint32(out[(y*w+x)*4:], packed)
		}
	}
	return out
}

func unpackPixels(packed []byte, dst *image.NRGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := range h {
		row := dst.Pix[dst.PixOffset(dst.Rect.Min.X, dst.Rect.Min.Y+y):]
		for x := range w {
			val := binary.LittleEndian.Uint32(packed[(y*w+x)*4:])
			o := row[x*4 : x*4+4 : x*4+4]
			o[0] = uint8(val & 0xFF)         //nolint:gosec // masked to 8 bits
			o[1] = uint8((val >> 8) & 0xFF)  //nolint:gosec // masked to 8 bits
			o[2] = uint8((val >> 16) & 0xFF) //nolint:gosec // masked to 8 bits
			o[3] = uint8((val >> 24) & 0xFF) //nolint:gosec // masked to 8 bits
		}
	}
}
