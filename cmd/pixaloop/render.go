package main

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/pierkiroule/Pixaloop"
	"github.com/pierkiroule/Pixaloop/capture"
	"github.com/pierkiroule/Pixaloop/internal/clock"
)

// epoch anchors the manual clock of offline renders.
var epoch = time.Unix(0, 0).UTC()

// Render writes a single frame.
type Render struct {
	Input   string  `index:"0" desc:"Source image (PNG, JPEG or WebP)"`
	Paths   string  `short:"p" desc:"Flow paths as 'x,y x,y;x,y x,y' in unit coordinates"`
	Anchors string  `short:"a" desc:"Anchors as 'x,y x,y'"`
	Mode    int     `short:"m" default:"0" desc:"Style mode, 0 to 10"`
	Size    int     `short:"s" default:"1024" desc:"Square frame size"`
	GPU     bool    `desc:"Render on the GPU when available"`
	Verbose bool    `short:"v" desc:"Log to stderr"`
	Time    float64 `short:"t" default:"0" desc:"Animation time in seconds"`
	Still   bool    `desc:"Render without flow motion"`
	Kind    string  `short:"k" default:"square" desc:"Frame kind: square, master or equirect"`
	Polar   float64 `desc:"Polar swirl strength applied along the flow, 0 disables"`
	Format  string  `short:"f" default:"png" desc:"Output format: png or webp"`
	Output  string  `short:"o" desc:"Output file, defaults to the frame kind and format"`
}

func (cmd *Render) Run() error {
	kind, err := capture.ParseKind(cmd.Kind)
	if err != nil {
		return err
	}
	clk := clock.NewManual(epoch)
	e, err := cmd.scene().engine(pixaloop.WithClock(clk), pixaloop.WithPolarFlow(cmd.Polar))
	if err != nil {
		return err
	}
	defer e.Close()

	e.SetAnimating(!cmd.Still)
	if err := e.Step(epoch.Add(seconds(cmd.Time))); err != nil {
		return err
	}

	frame := frameOf(e, kind)
	if frame == nil {
		return fmt.Errorf("no frame rendered")
	}

	name := cmd.Output
	if name == "" {
		name = kind.Basename() + "." + cmd.Format
	}
	return writeFile(name, func(f *os.File) error {
		return capture.EncodePoster(f, frame, capture.PosterFormat(cmd.Format))
	})
}

// frameOf returns a copy of the last frame of kind, or nil before the first
// frame.
func frameOf(e *pixaloop.Engine, kind capture.Kind) image.Image {
	switch kind {
	case capture.KindMaster:
		if m := e.MasterFrame(); m != nil {
			return m
		}
	case capture.KindEquirect:
		if m := e.EquirectFrame(); m != nil {
			return m
		}
	default:
		if sq := e.SquareFrame(); sq != nil {
			return sq
		}
	}
	return nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func writeFile(name string, write func(*os.File) error) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

func (cmd *Render) scene() *Scene {
	return &Scene{cmd.Input, cmd.Paths, cmd.Anchors, cmd.Mode, cmd.Size, cmd.GPU, cmd.Verbose}
}
