package job

import (
	"fmt"

	"github.com/1F47E/go-timereel/pkg/catalog"
	"github.com/1F47E/go-timereel/pkg/frame"
	"github.com/1F47E/go-timereel/pkg/quality"
)

// job for the classify worker
type Job struct {
	Idx    int
	Record catalog.Record
}

// res from the classify worker, Frame is only set when accepted
type Result struct {
	Idx     int
	Record  catalog.Record
	Frame   frame.Frame
	Verdict quality.Verdict
}

func New(idx int, r catalog.Record) Job {
	return Job{Idx: idx, Record: r}
}

func (j Job) Print() string {
	return fmt.Sprintf("Job: Idx: %d, Instant: %s, Ref: %s", j.Idx, j.Record.Instant.Format("2006-01-02 15:04:05"), j.Record.Ref)
}

func (r Result) Print() string {
	return fmt.Sprintf("Result: Idx: %d, Ref: %s, Verdict: %s", r.Idx, r.Record.Ref, r.Verdict)
}
