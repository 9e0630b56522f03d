package warp

import "math"

type styleFunc func(f *fragment) vec3

// styles is indexed by Mode.
var styles = [modeCount]styleFunc{
	ModeOriginal:   original,
	ModeAurora:     aurora,
	ModePrism:      prism,
	ModePaper:      paper,
	ModeChromaStar: chromaStar,
	ModeSwirlGlow:  swirlGlow,
	ModeRipple:     ripple,
	ModeInfrared:   infrared,
	ModeKaleido:    kaleido,
	ModeBlock:      block,
	ModeStreak:     streak,
}

var center = vec2{0.5, 0.5}

func original(f *fragment) vec3 {
	return f.color.rgb()
}

func aurora(f *fragment) vec3 {
	low := vec3{0.05, 0.10, 0.35}
	mid := vec3{0.10, 0.85, 0.70}
	high := vec3{0.95, 0.40, 0.85}
	g := mix3(low, mid, smoothstep(0.15, 0.55, f.luma))
	g = mix3(g, high, smoothstep(0.55, 0.95, f.luma))
	band := math.Floor(f.luma*6) / 6
	return mix3(f.color.rgb(), g, 0.75).mul(0.9 + 0.2*band)
}

func prism(f *fragment) vec3 {
	hue := fract(f.luma*0.8 + f.phase)
	return mix3(f.color.rgb(), hsv2rgb(hue, 0.65, 0.35+0.75*f.luma), 0.6)
}

func paper(f *fragment) vec3 {
	tone := vec3{0.96, 0.93, 0.86}
	gray := mix3(splat3(f.luma), tone.mul(f.luma*1.1), 0.55)
	return mix3(gray, tone, 0.18)
}

// chromaOffset splits the channels horizontally around p.
func chromaOffset(f *fragment, p vec2, o float64) vec3 {
	return vec3{
		f.resample(p.add(vec2{o, 0})).r,
		f.resample(p).g,
		f.resample(p.sub(vec2{o, 0})).b,
	}
}

func chromaStar(f *fragment) vec3 {
	const o = 0.004
	c := vec3{
		f.resample(f.uv.add(vec2{o, 0})).r,
		f.color.g,
		f.resample(f.uv.sub(vec2{o, 0})).b,
	}
	tau := f.tau()
	s := math.Abs(math.Sin(f.uv.x*40+tau) * math.Sin(f.uv.y*40-tau))
	star := math.Pow(s, 24) * 0.8 * f.luma
	return c.add(splat3(star))
}

func swirlGlow(f *fragment) vec3 {
	d := f.uv.sub(center)
	r := d.length()
	fall := 1 - smoothstep(0, 0.5, r)
	a := fall * 1.2 * math.Sin(f.tau())
	sa, ca := math.Sincos(a)
	rot := vec2{d.x*ca - d.y*sa, d.x*sa + d.y*ca}
	s := f.resample(center.add(rot))
	tint := hsv2rgb(fract(f.phase+r), 0.5, 1)
	return s.rgb().add(tint.mul(0.25 * fall))
}

func ripple(f *fragment) vec3 {
	d := f.uv.sub(center)
	r := d.length()
	var n vec2
	if r > 1e-4 {
		n = d.mul(1 / r)
	}
	w := math.Sin(r*60-f.tau()) * 0.006
	return chromaOffset(f, f.uv.add(n.mul(w)), 0.0015)
}

func infrared(f *fragment) vec3 {
	ir := mix3(vec3{0.10, 0, 0.30}, vec3{1, 0.20, 0.10}, smoothstep(0, 0.5, f.luma))
	ir = mix3(ir, vec3{1, 1, 0.60}, smoothstep(0.5, 1, f.luma))
	l2 := luminance(f.resample(f.uv.add(vec2{0.003, 0.003})).rgb())
	edge := math.Abs(f.luma-l2) * 6
	halo := smoothstep(0.1, 0.6, edge)
	return ir.add(vec3{0.9, 0.95, 1}.mul(halo * 0.5))
}

func kaleido(f *fragment) vec3 {
	const seg = math.Pi / 3
	d := f.uv.sub(center)
	r := d.length()
	a := math.Atan2(d.y, d.x)
	a -= seg * math.Floor(a/seg)
	a = math.Abs(a - seg/2)
	sa, ca := math.Sincos(a)
	return chromaOffset(f, center.add(vec2{ca * r, sa * r}), 0.002)
}

// block inverts a band whose edge sweeps right and back once per cycle, so
// the cut sits at the left border when the phase wraps.
func block(f *fragment) vec3 {
	base := splat3(step(0.5, f.luma))
	if f.uv.x < 1-math.Abs(2*f.phase-1) {
		base = splat3(1).add(base.mul(-1))
	}
	line := f.uv.y - 0.5 - (f.uv.x-0.5)*0.35
	tilt := 1 - smoothstep(0, 0.02, math.Abs(line))
	return mix3(base, vec3{1, 0.85, 0.20}, tilt*0.7)
}

func streak(f *fragment) vec3 {
	tau := f.tau()
	s1 := math.Sin((f.uv.x+f.uv.y)*220 + tau)
	s2 := math.Sin((f.uv.x-f.uv.y)*220 - tau)
	inter := s1*s2*0.5 + 0.5
	gate := smoothstep(0.05, 0.6, f.flow.length())
	hue := hsv2rgb(fract(f.luma+f.phase), 0.7, 1)
	c := f.color.rgb()
	return mix3(c, c.mul(0.6).add(hue.mul(inter*0.6)), gate)
}
