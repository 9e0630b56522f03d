package warp

import "math"

// baseForce is the displacement scale at full activity away from anchors.
const baseForce = 0.25

// fragment is the state one style transform sees for a single pixel.
type fragment struct {
	uv    vec2
	color vec4
	luma  float64
	flow  vec2
	phase float64

	src    *Texture
	d1, d2 vec2
	blend  float64
}

// resample re-applies the pixel's dual-phase displacement at p.
func (f *fragment) resample(p vec2) vec4 {
	return mix4(f.src.sample(p.sub(f.d1)), f.src.sample(p.sub(f.d2)), f.blend)
}

// tau is the cycle phase in radians.
func (f *fragment) tau() float64 {
	return f.phase * 2 * math.Pi
}

// shade computes one output color at uv.
func shade(src, field *Texture, u Uniforms, uv vec2) vec4 {
	fs := field.sample(uv)
	flow := vec2{(fs.r - 0.5) * 2, (fs.g - 0.5) * 2}
	anchor := fs.b

	d := u.duration()
	ts := u.Time.Seconds() / d
	t1 := fract(ts)
	t2 := fract(ts + 0.5)

	k := 1 - anchor
	force := baseForce * u.active() * k * k * k * k

	f := fragment{
		uv:    uv,
		flow:  flow,
		phase: t1,
		src:   src,
		d1:    flow.mul(t1 * force),
		d2:    flow.mul(t2 * force),
		blend: smoothstep(0, 1, math.Abs(t1-0.5)*2),
	}
	col1 := src.sample(uv.sub(f.d1))
	col2 := src.sample(uv.sub(f.d2))
	f.color = mix4(col1, col2, f.blend)
	f.luma = luminance(f.color.rgb())

	rgb := styles[u.Mode](&f)
	return vec4{
		clampf(rgb.r, 0, 1),
		clampf(rgb.g, 0, 1),
		clampf(rgb.b, 0, 1),
		clampf(f.color.a, 0, 1),
	}
}
