package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"sync"

	"github.com/pierkiroule/Pixaloop/internal/logging"
)

// FFmpegSink encodes VP9/WebM by piping raw RGBA frames into an ffmpeg
// child process. Frames are written to ffmpeg's stdin from a buffered queue
// on a separate goroutine; when the queue is full the frame is dropped
// unless Block is set.
type FFmpegSink struct {
	// Binary is the ffmpeg executable, looked up in PATH. Default "ffmpeg".
	Binary string
	// Codec is the video encoder. Default "libvpx-vp9".
	Codec string
	// Block makes WriteFrame wait for room in the queue instead of dropping
	// the frame. Offline renders that outpace the encoder set it.
	Block bool

	mu      sync.Mutex
	cfg     SinkConfig
	cmd     *exec.Cmd
	cancel  context.CancelFunc
	frames  chan *image.RGBA
	done    chan error
	out     bytes.Buffer
	stderr  bytes.Buffer
	closed  bool
	dropped int
}

var _ Sink = (*FFmpegSink)(nil)

// NewFFmpegSink returns a sink using ffmpeg from PATH.
func NewFFmpegSink() *FFmpegSink {
	return &FFmpegSink{Binary: "ffmpeg", Codec: "libvpx-vp9"}
}

// Start launches ffmpeg. A missing binary yields ErrCaptureUnsupported.
func (s *FFmpegSink) Start(cfg SinkConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return fmt.Errorf("capture: ffmpeg sink already started")
	}
	bin := s.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCaptureUnsupported, err)
	}
	codec := s.Codec
	if codec == "" {
		codec = "libvpx-vp9"
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, path, ffmpegArgs(cfg, codec)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("%w: %w", ErrCaptureUnsupported, err)
	}
	cmd.Stdout = &s.out
	cmd.Stderr = &s.stderr
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("%w: %w", ErrCaptureUnsupported, err)
	}

	s.cfg = cfg
	s.cmd = cmd
	s.cancel = cancel
	s.frames = make(chan *image.RGBA, frameQueueSize)
	s.done = make(chan error, 1)
	go s.pump(stdin)
	logging.Logger().Debug("capture: ffmpeg started", "size", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height), "bitrate", cfg.Bitrate)
	return nil
}

func ffmpegArgs(cfg SinkConfig, codec string) []string {
	fps := cfg.FPS
	if fps <= 0 {
		fps = FrameRate
	}
	return []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", strconv.Itoa(cfg.Width) + "x" + strconv.Itoa(cfg.Height),
		"-framerate", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-c:v", codec,
		"-b:v", strconv.Itoa(cfg.Bitrate),
		"-deadline", "realtime",
		"-row-mt", "1",
		"-pix_fmt", "yuv420p",
		"-f", "webm",
		"pipe:1",
	}
}

// pump feeds queued frames to ffmpeg and closes stdin when the queue closes.
func (s *FFmpegSink) pump(stdin io.WriteCloser) {
	var werr error
	for f := range s.frames {
		if werr != nil {
			continue
		}
		if _, err := stdin.Write(f.Pix); err != nil {
			werr = fmt.Errorf("capture: write frame: %w", err)
		}
	}
	if err := stdin.Close(); err != nil && werr == nil {
		werr = err
	}
	s.done <- werr
}

// WriteFrame queues a copy of img.
func (s *FFmpegSink) WriteFrame(img image.Image) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.frames == nil {
		return ErrSinkClosed
	}
	f := rgbaCopy(img, s.cfg.Width, s.cfg.Height)
	if !enqueue(s.frames, f, s.Block) {
		s.dropped++
		logging.Logger().Debug("capture: encoder queue full, frame dropped", "dropped", s.dropped)
	}
	return nil
}

// Stop drains the queue, waits for ffmpeg and returns the WebM clip.
func (s *FFmpegSink) Stop() (Blob, error) {
	s.mu.Lock()
	if s.closed || s.frames == nil {
		s.mu.Unlock()
		return Blob{}, ErrSinkClosed
	}
	s.closed = true
	close(s.frames)
	s.mu.Unlock()

	werr := <-s.done
	waitErr := s.cmd.Wait()
	s.cancel()
	if werr != nil {
		return Blob{}, werr
	}
	if waitErr != nil {
		return Blob{}, fmt.Errorf("capture: ffmpeg: %w: %s", waitErr, bytes.TrimSpace(s.stderr.Bytes()))
	}
	return Blob{
		Data:     s.out.Bytes(),
		MIMEType: "video/webm",
		Filename: s.cfg.Name + ".webm",
	}, nil
}

// Abort kills ffmpeg and discards the output.
func (s *FFmpegSink) Abort() {
	s.mu.Lock()
	if s.closed || s.frames == nil {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	close(s.frames)
	s.mu.Unlock()

	<-s.done
	_ = s.cmd.Wait()
}

// Dropped returns how many frames were discarded because the encoder fell
// behind.
func (s *FFmpegSink) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}
