package warp

import "math"

type vec2 struct{ x, y float64 }

type vec3 struct{ r, g, b float64 }

type vec4 struct{ r, g, b, a float64 }

func (v vec2) add(o vec2) vec2         { return vec2{v.x + o.x, v.y + o.y} }
func (v vec2) sub(o vec2) vec2         { return vec2{v.x - o.x, v.y - o.y} }
func (v vec2) mul(k float64) vec2      { return vec2{v.x * k, v.y * k} }
func (v vec2) length() float64         { return math.Hypot(v.x, v.y) }
func (v vec3) add(o vec3) vec3         { return vec3{v.r + o.r, v.g + o.g, v.b + o.b} }
func (v vec3) mul(k float64) vec3      { return vec3{v.r * k, v.g * k, v.b * k} }
func (v vec4) rgb() vec3               { return vec3{v.r, v.g, v.b} }
func splat3(k float64) vec3            { return vec3{k, k, k} }
func mixf(a, b, t float64) float64     { return a + (b-a)*t }
func fract(x float64) float64          { return x - math.Floor(x) }
func clampf(x, lo, hi float64) float64 { return min(max(x, lo), hi) }

func mix3(a, b vec3, t float64) vec3 {
	return vec3{mixf(a.r, b.r, t), mixf(a.g, b.g, t), mixf(a.b, b.b, t)}
}

func mix4(a, b vec4, t float64) vec4 {
	return vec4{mixf(a.r, b.r, t), mixf(a.g, b.g, t), mixf(a.b, b.b, t), mixf(a.a, b.a, t)}
}

// smoothstep is the GLSL/WGSL Hermite step. It also accepts e0 > e1.
func smoothstep(e0, e1, x float64) float64 {
	t := clampf((x-e0)/(e1-e0), 0, 1)
	return t * t * (3 - 2*t)
}

// step is 0 when x < edge and 1 otherwise.
func step(edge, x float64) float64 {
	if x < edge {
		return 0
	}
	return 1
}

// luminance uses the Rec. 601 weights.
func luminance(c vec3) float64 {
	return c.r*0.299 + c.g*0.587 + c.b*0.114
}

// hsv2rgb converts hue, saturation and value to RGB.
func hsv2rgb(h, s, v float64) vec3 {
	ch := func(k float64) float64 {
		p := math.Abs(fract(h+k)*6 - 3)
		return v * mixf(1, clampf(p-1, 0, 1), s)
	}
	return vec3{ch(1), ch(2.0 / 3.0), ch(1.0 / 3.0)}
}
