package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/1F47E/go-timereel/pkg/frame"
	"github.com/1F47E/go-timereel/pkg/job"
	"github.com/1F47E/go-timereel/pkg/logger"
	"github.com/1F47E/go-timereel/pkg/quality"
)

var log = logger.Log

// Worker loads and classifies captures. It holds no per-job state, so one
// Worker serves any number of goroutines.
type Worker struct {
	loader     frame.Loader
	classifier *quality.Classifier
}

func NewWorker(loader frame.Loader, c *quality.Classifier) *Worker {
	return &Worker{
		loader:     loader,
		classifier: c,
	}
}

// Process decodes and classifies one capture. Rejected frames are dropped
// from the result so their pixels can be collected early.
func (w *Worker) Process(j job.Job) job.Result {
	fr := w.loader.Load(j.Record.Ref)
	v := w.classifier.Classify(fr)
	res := job.Result{Idx: j.Idx, Record: j.Record, Verdict: v}
	if v.Accepted {
		res.Frame = fr
	}
	return res
}

// WorkerClassify drains jobs and sends every result to resChs[job.Idx].
// Each result channel must have room for one value.
func (w *Worker) WorkerClassify(ctx context.Context, id int, jobs <-chan job.Job, resChs []chan job.Result) error {
	name := fmt.Sprintf("WorkerClassify #%d", id)
	log.Debugf("%s started", name)
	defer log.Debugf("%s finished", name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case j, ok := <-jobs:
			if !ok {
				return nil
			}
			now := time.Now()
			res := w.Process(j)
			log.Debugf("%s %s took %s", name, res.Print(), time.Since(now))

			select {
			case resChs[j.Idx] <- res:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
