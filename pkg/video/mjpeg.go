package video

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/icza/mjpeg"
)

// MJPEG writes Motion JPEG into an AVI container. Pure Go, plays everywhere.
type MJPEG struct {
	Quality int
}

func (MJPEG) Ext() string { return "avi" }

func (m MJPEG) Open(path string, width, height, fps int) (Writer, error) {
	aw, err := mjpeg.New(path, int32(width), int32(height), int32(fps))
	if err != nil {
		return nil, fmt.Errorf("create avi %s: %w", path, err)
	}
	q := m.Quality
	if q <= 0 {
		q = jpeg.DefaultQuality
	}
	return &mjpegWriter{aw: aw, width: width, height: height, quality: q}, nil
}

type mjpegWriter struct {
	aw            mjpeg.AviWriter
	width, height int
	quality       int
	buf           bytes.Buffer
}

func (w *mjpegWriter) WriteFrame(img image.Image) error {
	if err := checkSize(img, w.width, w.height); err != nil {
		return err
	}
	w.buf.Reset()
	if err := jpeg.Encode(&w.buf, img, &jpeg.Options{Quality: w.quality}); err != nil {
		return fmt.Errorf("encode jpeg frame: %w", err)
	}
	return w.aw.AddFrame(w.buf.Bytes())
}

func (w *mjpegWriter) Close() error {
	return w.aw.Close()
}

func checkSize(img image.Image, width, height int) error {
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("frame is %dx%d, stream is %dx%d", b.Dx(), b.Dy(), width, height)
	}
	return nil
}
