package video

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/1F47E/go-timereel/pkg/logger"
)

// FFmpeg pipes JPEG frames into an ffmpeg process that encodes H.264 MP4.
type FFmpeg struct {
	Ctx     context.Context
	Binary  string
	Quality int
}

func (FFmpeg) Ext() string { return "mp4" }

// Args builds the ffmpeg command line. The muxer is forced because the
// output path carries a staging suffix until the run finishes.
func (f FFmpeg) Args(path string, fps int) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-f", "image2pipe",
		"-c:v", "mjpeg",
		"-framerate", strconv.Itoa(fps),
		"-i", "-",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		// yuv420p needs even dimensions
		"-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2",
		"-movflags", "+faststart",
		"-f", "mp4",
		path,
	}
}

func (f FFmpeg) Open(path string, width, height, fps int) (Writer, error) {
	ctx := f.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	bin := f.Binary
	if bin == "" {
		bin = "ffmpeg"
	}
	bin, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	args := f.Args(path, fps)
	logger.Scope("video").Debugf("Running ffmpeg command: %s %s", bin, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, bin, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	w := &ffmpegWriter{cmd: cmd, stdin: stdin, width: width, height: height, quality: f.Quality}
	cmd.Stderr = &w.stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	if w.quality <= 0 {
		w.quality = jpeg.DefaultQuality
	}
	return w, nil
}

type ffmpegWriter struct {
	cmd           *exec.Cmd
	stdin         io.WriteCloser
	stderr        bytes.Buffer
	width, height int
	quality       int
}

func (w *ffmpegWriter) WriteFrame(img image.Image) error {
	if err := checkSize(img, w.width, w.height); err != nil {
		return err
	}
	// stderr is only read after Wait, Close reports it
	if err := jpeg.Encode(w.stdin, img, &jpeg.Options{Quality: w.quality}); err != nil {
		return fmt.Errorf("pipe frame to ffmpeg: %w", err)
	}
	return nil
}

func (w *ffmpegWriter) Close() error {
	cerr := w.stdin.Close()
	if err := w.cmd.Wait(); err != nil {
		return fmt.Errorf("ffmpeg: %w: %s", err, strings.TrimSpace(w.stderr.String()))
	}
	return cerr
}
