package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pierkiroule/Pixaloop"
	"github.com/pierkiroule/Pixaloop/capture"
	"github.com/pierkiroule/Pixaloop/internal/clock"
)

// Capture records one cycle offline, stepping a manual clock at the
// capture frame rate.
type Capture struct {
	Input    string  `index:"0" desc:"Source image (PNG, JPEG or WebP)"`
	Paths    string  `short:"p" desc:"Flow paths as 'x,y x,y;x,y x,y' in unit coordinates"`
	Anchors  string  `short:"a" desc:"Anchors as 'x,y x,y'"`
	Mode     int     `short:"m" default:"0" desc:"Style mode, 0 to 10"`
	Size     int     `short:"s" default:"1024" desc:"Square frame size"`
	GPU      bool    `desc:"Render on the GPU when available"`
	Verbose  bool    `short:"v" desc:"Log to stderr"`
	Kind     string  `short:"k" default:"square" desc:"Frame kind: square, master or equirect"`
	Polar    float64 `desc:"Polar swirl strength applied along the flow, 0 disables"`
	Format   string  `short:"f" default:"webm" desc:"Container: webm (ffmpeg) or gif"`
	Duration float64 `short:"d" default:"5" desc:"Cycle length in seconds"`
	Output   string  `short:"o" desc:"Output file, defaults to the clip name"`
}

func (cmd *Capture) Run() error {
	kind, err := capture.ParseKind(cmd.Kind)
	if err != nil {
		return err
	}
	factory, err := sinkFactory(cmd.Format)
	if err != nil {
		return err
	}

	clk := clock.NewManual(epoch)
	e, err := cmd.scene().engine(
		pixaloop.WithClock(clk),
		pixaloop.WithDuration(seconds(cmd.Duration)),
		pixaloop.WithSinkFactory(factory),
		pixaloop.WithPolarFlow(cmd.Polar),
	)
	if err != nil {
		return err
	}
	defer e.Close()

	h, err := e.StartCapture(kind)
	if err != nil {
		return err
	}
	interval := time.Second / capture.FrameRate
	for e.CaptureState() == capture.Recording {
		if err := e.Step(clk.Advance(interval)); err != nil {
			e.CancelCapture()
			return err
		}
	}

	r := <-h.Done()
	if r.Err != nil {
		return r.Err
	}
	name := cmd.Output
	if name == "" {
		name = r.Blob.Filename
	}
	return writeFile(name, func(f *os.File) error {
		_, err := f.Write(r.Blob.Data)
		return err
	})
}

func sinkFactory(format string) (capture.SinkFactory, error) {
	switch format {
	case "webm":
		// Offline steps outpace the encoder; wait for it instead of dropping.
		return func(capture.Kind) capture.Sink {
			s := capture.NewFFmpegSink()
			s.Block = true
			return s
		}, nil
	case "gif":
		return func(capture.Kind) capture.Sink { return capture.NewGIFSink() }, nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

func (cmd *Capture) scene() *Scene {
	return &Scene{cmd.Input, cmd.Paths, cmd.Anchors, cmd.Mode, cmd.Size, cmd.GPU, cmd.Verbose}
}
