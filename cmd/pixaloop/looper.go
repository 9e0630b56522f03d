package main

import (
	"fmt"
	"os"
	"time"

	"github.com/pierkiroule/Pixaloop/capture"
	"github.com/pierkiroule/Pixaloop/internal/blend"
	"github.com/pierkiroule/Pixaloop/internal/clock"
	"github.com/pierkiroule/Pixaloop/looper"
)

// Loop replays scripted strokes on the live looper and exports the
// ping-pong clip.
type Loop struct {
	Strokes  string  `index:"0" desc:"Strokes in canvas pixels as 'x,y x,y;x,y x,y'"`
	Tool     string  `short:"t" default:"watercolor" desc:"Mark tool: watercolor, ink, dry, text or stamp"`
	Blend    string  `short:"b" default:"source-over" desc:"Blend mode: source-over, multiply or overlay"`
	Color    string  `short:"c" default:"#3b82f6" desc:"Mark color"`
	Size     float64 `short:"s" default:"42" desc:"Mark size in pixels"`
	Content  string  `desc:"Text or stamp glyph"`
	Duration float64 `short:"d" default:"5" desc:"Cycle length in seconds"`
	Seed     uint64  `default:"1" desc:"Dab seed"`
	Format   string  `short:"f" default:"webm" desc:"Container: webm (ffmpeg) or gif"`
	Output   string  `short:"o" desc:"Output file, defaults to the clip name"`
	Verbose  bool    `short:"v" desc:"Log to stderr"`
}

func (cmd *Loop) Run() error {
	setupLogging(cmd.Verbose)
	strokes, err := parsePaths(cmd.Strokes)
	if err != nil {
		return err
	}
	if len(strokes) == 0 {
		return fmt.Errorf("no strokes")
	}
	tool, err := looper.ParseTool(cmd.Tool)
	if err != nil {
		return err
	}
	c, err := blend.Hex(cmd.Color)
	if err != nil {
		return err
	}
	brush := looper.Brush{
		Tool:    tool,
		Blend:   blend.ParseMode(cmd.Blend),
		Color:   c,
		Size:    cmd.Size,
		Content: cmd.Content,
	}
	factory, err := sinkFactory(cmd.Format)
	if err != nil {
		return err
	}

	type result struct {
		blob capture.Blob
		err  error
	}
	ready := make(chan result, 1)
	clk := clock.NewManual(epoch)
	cycle := seconds(cmd.Duration)
	l := looper.New(
		looper.WithClock(clk),
		looper.WithDuration(cycle),
		looper.WithSeed(cmd.Seed),
		looper.WithSinkFactory(func() capture.Sink { return factory(capture.KindSquare) }),
		looper.WithOnLoopReady(func(b capture.Blob, err error) { ready <- result{b, err} }),
	)
	defer l.Close()

	// Each stroke takes an equal slice of the first cycle.
	interval := time.Second / capture.FrameRate
	slot := cycle / time.Duration(len(strokes))
	for i, stroke := range strokes {
		at := epoch.Add(time.Duration(i) * slot)
		step := slot / time.Duration(len(stroke)+1)
		for j, p := range stroke {
			clk.Set(at.Add(time.Duration(j) * step))
			if j == 0 {
				err = l.PointerDown(p.X, p.Y, brush)
			} else {
				err = l.PointerMove(p.X, p.Y)
			}
			if err != nil {
				return err
			}
			l.Tick(clk.Now())
		}
		l.PointerUp()
	}

	if err := l.ArmExport(); err != nil {
		return err
	}
	limit := clk.Now().Add(4 * cycle)
	for clk.Now().Before(limit) {
		l.Tick(clk.Advance(interval))
		select {
		case r := <-ready:
			return cmd.save(r.blob, r.err)
		default:
		}
	}
	l.Wait()
	select {
	case r := <-ready:
		return cmd.save(r.blob, r.err)
	default:
		return fmt.Errorf("export did not finish")
	}
}

func (cmd *Loop) save(blob capture.Blob, err error) error {
	if err != nil {
		return err
	}
	name := cmd.Output
	if name == "" {
		name = blob.Filename
	}
	return writeFile(name, func(f *os.File) error {
		_, err := f.Write(blob.Data)
		return err
	})
}
