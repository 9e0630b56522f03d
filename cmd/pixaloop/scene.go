package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strconv"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/pierkiroule/Pixaloop"
	"github.com/pierkiroule/Pixaloop/flow"
)

// Scene holds the options shared by render and capture.
type Scene struct {
	Input   string
	Paths   string
	Anchors string
	Mode    int
	Size    int
	GPU     bool
	Verbose bool
}

func (s *Scene) engine(opts ...pixaloop.Option) (*pixaloop.Engine, error) {
	if s.Input == "" {
		return nil, fmt.Errorf("missing source image")
	}
	setupLogging(s.Verbose)

	img, err := loadImage(s.Input)
	if err != nil {
		return nil, err
	}
	paths, err := parsePaths(s.Paths)
	if err != nil {
		return nil, err
	}
	anchors, err := parsePoints(s.Anchors)
	if err != nil {
		return nil, fmt.Errorf("anchors: %w", err)
	}

	opts = append([]pixaloop.Option{pixaloop.WithFrameSize(s.Size)}, opts...)
	if s.GPU {
		opts = append(opts, pixaloop.WithGPU())
	}
	e := pixaloop.New(opts...)
	if err := e.LoadSource(img); err != nil {
		e.Close()
		return nil, err
	}
	if err := e.SetStyleMode(s.Mode); err != nil {
		e.Close()
		return nil, err
	}
	for _, path := range paths {
		e.BeginGesture(path[0], pixaloop.ToolFlow)
		for _, p := range path[1:] {
			e.ExtendGesture(p)
		}
		e.EndGesture()
	}
	for _, a := range anchors {
		e.PlaceAnchor(a)
	}
	return e, nil
}

func loadImage(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}

// parsePaths parses ';'-separated paths of at least two points each.
func parsePaths(s string) ([][]flow.Point, error) {
	var paths [][]flow.Point
	for i, field := range strings.Split(s, ";") {
		if strings.TrimSpace(field) == "" {
			continue
		}
		pts, err := parsePoints(field)
		if err != nil {
			return nil, fmt.Errorf("path %d: %w", i, err)
		}
		if len(pts) < 2 {
			return nil, fmt.Errorf("path %d: need at least two points", i)
		}
		paths = append(paths, pts)
	}
	return paths, nil
}

// parsePoints parses whitespace-separated "x,y" pairs.
func parsePoints(s string) ([]flow.Point, error) {
	var pts []flow.Point
	for _, pair := range strings.Fields(s) {
		xs, ys, ok := strings.Cut(pair, ",")
		if !ok {
			return nil, fmt.Errorf("bad point %q", pair)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("bad point %q: %w", pair, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("bad point %q: %w", pair, err)
		}
		pts = append(pts, flow.Pt(x, y))
	}
	return pts, nil
}
