// Command pixaloop renders, records and loops flow animations from the
// command line.
package main

import (
	"log/slog"
	"os"

	"github.com/tdewolff/argp"

	"github.com/pierkiroule/Pixaloop"
)

// Main shows usage; the work is done by the subcommands.
type Main struct{}

func main() {
	root := argp.NewCmd(&Main{}, "Pixaloop: animate still images along drawn flow")
	root.AddCmd(&Render{}, "render", "Render one frame at a given time")
	root.AddCmd(&Capture{}, "capture", "Record one seamless cycle to a video file")
	root.AddCmd(&Loop{}, "looper", "Record a scripted drawing as a ping-pong loop")
	root.Parse()
	root.PrintHelp()
}

func (cmd *Main) Run() error {
	return argp.ShowUsage
}

func setupLogging(verbose bool) {
	if !verbose {
		return
	}
	pixaloop.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}
