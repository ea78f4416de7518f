package video

import (
	"fmt"
	"image"
	"time"

	"github.com/1F47E/go-timereel/pkg/meta"
)

// Writer appends frames to one output stream. All frames must have the
// size the stream was opened with.
type Writer interface {
	WriteFrame(img image.Image) error
	Close() error
}

// Factory opens output streams for one container format.
type Factory interface {
	Open(path string, width, height, fps int) (Writer, error)
	// Ext is the container file extension without the dot.
	Ext() string
}

// OutputName encodes the window and frame rate in the file name:
// timelapse_last7days_<startLocal>_<endUTC>_<fps>fps.<ext>
func OutputName(days int, startLocal, endUTC time.Time, fps int, ext string) string {
	return fmt.Sprintf("timelapse_last%ddays_%s_%s_%dfps.%s",
		days, meta.Format(startLocal), meta.Format(endUTC.UTC()), fps, ext)
}
