package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/1F47E/go-timereel/pkg/catalog"
	"github.com/1F47E/go-timereel/pkg/core/progress"
	"github.com/1F47E/go-timereel/pkg/frame"
	"github.com/1F47E/go-timereel/pkg/job"
	"github.com/1F47E/go-timereel/pkg/quality"
	"github.com/1F47E/go-timereel/pkg/storage"
	"github.com/1F47E/go-timereel/pkg/video"
	"golang.org/x/sync/errgroup"
)

// Result is filled in while frames are written. Used+Skipped always equals
// the number of records handed to Assemble once it returns without error.
type Result struct {
	Used    int                    `json:"used"`
	Skipped int                    `json:"skipped"`
	Width   int                    `json:"width"`
	Height  int                    `json:"height"`
	First   time.Time              `json:"first"`
	Last    time.Time              `json:"last"`
	Reasons map[quality.Reason]int `json:"reasons"`
}

func (r Result) Attempted() int { return r.Used + r.Skipped }

// sink owns the output stream, Close is safe to call from every exit path.
type sink struct {
	w    video.Writer
	once sync.Once
	err  error
}

func (s *sink) Close() error {
	s.once.Do(func() { s.err = s.w.Close() })
	return s.err
}

// 1. feed records to the workers, at most 2*workers in flight
// 2. workers load and classify, each result goes to its own channel in resChs
// 3. write accepted frames in record order, reading resChs one by one
func (c *Core) Assemble(ctx context.Context, records []catalog.Record, outPath string) (Result, error) {
	log := c.log.WithField("scope", "core assemble")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	resChs := make([]chan job.Result, len(records))
	for i := range resChs {
		resChs[i] = make(chan job.Result, 1)
	}

	n := c.cfg.Workers
	if n < 1 {
		n = 1
	}
	slots := make(chan struct{}, 2*n)
	jobs := make(chan job.Job)
	w := c.newWorker()

	g, gctx := errgroup.WithContext(ctx)
	log.Debugf("Starting %d workers for %d records", n, len(records))
	for i := 0; i < n; i++ {
		id := i + 1
		g.Go(func() error {
			return w.WorkerClassify(gctx, id, jobs, resChs)
		})
	}

	// send all the jobs, blocks while the writer is 2*n results behind
	g.Go(func() error {
		defer close(jobs)
		for i, r := range records {
			select {
			case slots <- struct{}{}:
			case <-gctx.Done():
				return gctx.Err()
			}
			select {
			case jobs <- job.New(i, r):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	res, err := c.write(gctx, resChs, slots, outPath, c.factoryFor(ctx))

	// stops the feeder and workers when the writer bailed out early
	cancel()
	// the pool only fails with context errors, the writer already saw them
	_ = g.Wait()

	if err != nil {
		return res, err
	}
	if res.Used == 0 {
		return res, ErrNoUsableFrames
	}
	log.Infof("Video saved: %s (%d frames, %d skipped)", outPath, res.Used, res.Skipped)
	return res, nil
}

// write drains resChs in order. The stream is opened lazily on the first
// accepted frame, so a run without usable frames never creates a file.
func (c *Core) write(ctx context.Context, resChs []chan job.Result, slots <-chan struct{}, outPath string, factory video.Factory) (res Result, err error) {
	log := c.log.WithField("scope", "core write")
	res.Reasons = make(map[quality.Reason]int)

	bar := progress.New(len(resChs), "Assembling...", c.progress)
	defer bar.Finish()

	var out *sink
	var partial string
	defer func() {
		if out == nil {
			return
		}
		if cerr := out.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("close video: %w", cerr)
		}
		if err != nil {
			if derr := storage.Discard(partial); derr != nil {
				log.Warnf("Cannot remove %s: %v", partial, derr)
			}
			return
		}
		err = storage.Commit(partial, outPath)
	}()

	// ranging over channels because frames must be written in order
	for i, ch := range resChs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var r job.Result
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		case r = <-ch:
		}
		<-slots
		bar.Add(1)

		if !r.Verdict.Accepted {
			res.Skipped++
			res.Reasons[r.Verdict.Reason]++
			log.Debugf("Skipped #%d %s: %s", i, r.Record.Ref, r.Verdict)
			continue
		}

		if out == nil {
			res.Width, res.Height = r.Frame.Size()
			partial, err = storage.Stage(outPath)
			if err != nil {
				return res, err
			}
			vw, err := factory.Open(partial, res.Width, res.Height, c.cfg.FPS)
			if err != nil {
				_ = storage.Discard(partial)
				return res, fmt.Errorf("open video: %w", err)
			}
			out = &sink{w: vw}
			log.Debugf("Output %dx%d @ %dfps: %s", res.Width, res.Height, c.cfg.FPS, partial)
		}

		img := frame.Stretch(r.Frame.Image(), res.Width, res.Height)
		if err := out.w.WriteFrame(img); err != nil {
			return res, fmt.Errorf("write frame %s: %w", r.Record.Ref, err)
		}
		res.Used++
		if res.Used == 1 {
			res.First = r.Record.Instant
		}
		res.Last = r.Record.Instant
	}
	return res, nil
}
