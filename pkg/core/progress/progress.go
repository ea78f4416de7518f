package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Progress is a frame counter bar. A hidden bar swallows every update.
type Progress struct {
	bar *progressbar.ProgressBar
}

func New(max int, desc string, visible bool) *Progress {
	return &Progress{bar: progressCreate(max, desc, visible, os.Stderr)}
}

func (p *Progress) Add(n int) {
	_ = p.bar.Add(n)
}

func (p *Progress) Describe(desc string) {
	p.bar.Describe(desc)
}

func (p *Progress) Finish() {
	_ = p.bar.Finish()
}

func progressCreate(max int, desc string, visible bool, w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetVisibility(visible),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionShowCount(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionOnCompletion(func() { _, _ = io.WriteString(w, "\n") }),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
