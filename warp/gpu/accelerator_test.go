package gpu

import (
	"bytes"
	"errors"
	"image"
	"testing"
	"time"

	"github.com/pierkiroule/Pixaloop/warp"
)

type countingRenderer struct {
	calls int
	inner warp.Renderer
}

func (c *countingRenderer) Render(dst *image.NRGBA, src, field *warp.Texture, u warp.Uniforms) error {
	c.calls++
	return c.inner.Render(dst, src, field, u)
}

func testInputs(t *testing.T) (*warp.Texture, *warp.Texture) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 7)
	}
	src, err := warp.NewTexture(img)
	if err != nil {
		t.Fatal(err)
	}
	f := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < len(f.Pix); i += 4 {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2], f.Pix[i+3] = 200, 90, 0, 255
	}
	field, err := warp.WrapNRGBA(f)
	if err != nil {
		t.Fatal(err)
	}
	return src, field
}

func TestUninitializedUsesFallback(t *testing.T) {
	cpu := warp.NewPipeline(nil)
	defer cpu.Close()
	fb := &countingRenderer{inner: cpu}
	a := New(fb)
	defer a.Close()

	src, field := testInputs(t)
	u := warp.Uniforms{Time: 800 * time.Millisecond, Active: true, Mode: warp.ModePrism}
	got := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	if err := a.Render(got, src, field, u); err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	if err := cpu.Render(want, src, field, u); err != nil {
		t.Fatal(err)
	}
	if fb.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fb.calls)
	}
	if !bytes.Equal(got.Pix, want.Pix) {
		t.Error("fallback frame differs from CPU frame")
	}
	if a.Ready() || a.Dispatched() != 0 {
		t.Error("accelerator claims GPU work without Init")
	}
}

func TestRenderValidatesBeforeFallback(t *testing.T) {
	fb := &countingRenderer{inner: warp.NewPipeline(nil)}
	a := New(fb)
	src, field := testInputs(t)
	err := a.Render(image.NewNRGBA(image.Rect(0, 0, 4, 4)), src, field, warp.Uniforms{Mode: 42})
	if !errors.Is(err, warp.ErrInvalidMode) {
		t.Errorf("err = %v, want ErrInvalidMode", err)
	}
	if fb.calls != 0 {
		t.Error("fallback called for invalid input")
	}
}

func TestNoFallback(t *testing.T) {
	a := New(nil)
	src, field := testInputs(t)
	err := a.Render(image.NewNRGBA(image.Rect(0, 0, 4, 4)), src, field, warp.Uniforms{})
	if !errors.Is(err, ErrNoAdapter) {
		t.Errorf("err = %v, want ErrNoAdapter", err)
	}
}

func TestSetDeviceProviderRejectsForeignTypes(t *testing.T) {
	a := New(nil)
	if err := a.SetDeviceProvider(struct{}{}); err == nil {
		t.Error("plain struct accepted as device provider")
	}
	if a.Ready() {
		t.Error("accelerator ready after rejected provider")
	}
}

func TestName(t *testing.T) {
	if got := New(nil).Name(); got != "warp-gpu" {
		t.Errorf("Name() = %q", got)
	}
}
