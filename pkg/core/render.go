package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/1F47E/go-timereel/pkg/catalog"
	"github.com/1F47E/go-timereel/pkg/job"
	"github.com/1F47E/go-timereel/pkg/storage"
	"github.com/1F47E/go-timereel/pkg/video"
	"github.com/1F47E/go-timereel/pkg/window"
)

// Report summarises one render for operators.
type Report struct {
	RunID           string    `json:"run_id"`
	Location        string    `json:"location"`
	Output          string    `json:"output,omitempty"`
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	SunriseFallback bool      `json:"sunrise_fallback"`
	FPS             int       `json:"fps"`
	Catalog         int       `json:"catalog"`
	Windowed        int       `json:"windowed"`
	GridStep        string    `json:"grid_step,omitempty"`
	Candidates      int       `json:"candidates"`
	Result          Result    `json:"result"`
	Took            string    `json:"took"`
	Error           string    `json:"error,omitempty"`
}

// Plan is what a render would work on, without touching any frame.
// Candidates equals Windowed unless grid selection is on.
type Plan struct {
	Catalog    catalog.Catalog
	Window     window.Window
	Windowed   catalog.Catalog
	Candidates catalog.Catalog
}

// Plan gathers the sources, computes the window and applies grid selection.
func (c *Core) Plan(ctx context.Context) (Plan, error) {
	log := c.log.WithField("scope", "core plan")

	cat := catalog.Gather(ctx, c.sources...)
	if err := ctx.Err(); err != nil {
		return Plan{}, err
	}
	if len(cat) == 0 {
		return Plan{}, ErrNoInput
	}
	log.Debugf("Catalog: %d images", len(cat))

	comp := &window.Computer{
		Location:     c.cfg.Location,
		LookbackDays: c.cfg.LookbackDays,
		LeadMinutes:  c.cfg.LeadMinutes,
		Provider:     c.sunrise,
	}
	win, err := comp.Compute(cat, c.now())
	if err != nil {
		return Plan{}, fmt.Errorf("compute window: %w", err)
	}
	p := Plan{Catalog: cat, Window: win, Windowed: cat.Within(win.Start, win.End)}
	p.Candidates = p.Windowed
	if sel := c.cfg.Select; sel.Enabled() {
		p.Candidates = p.Windowed.Grid(win.Start, win.End, sel.Step(), sel.Tolerance())
		log.Debugf("Grid %s +-%s: %d of %d images", sel.Step(), sel.Tolerance(), len(p.Candidates), len(p.Windowed))
	}
	return p, nil
}

// Render runs the whole pipeline and writes one video under output.dir.
// The report is filled as far as the run got, also on error.
func (c *Core) Render(ctx context.Context) (Report, error) {
	log := c.log.WithField("scope", "core render")
	started := time.Now()

	rep := Report{
		RunID:    c.runID,
		Location: c.cfg.Location.Name,
		FPS:      c.cfg.FPS,
	}
	finish := func(err error) (Report, error) {
		rep.Took = time.Since(started).Round(time.Millisecond).String()
		if err != nil {
			rep.Error = err.Error()
		}
		return rep, err
	}

	plan, err := c.Plan(ctx)
	if err != nil {
		return finish(err)
	}
	win := plan.Window
	rep.Catalog = len(plan.Catalog)
	rep.WindowStart, rep.WindowEnd = win.Start, win.End
	rep.SunriseFallback = win.SunriseFallback
	rep.Windowed = len(plan.Windowed)
	rep.Candidates = len(plan.Candidates)
	log.Infof("Window %s: %d of %d images", win, len(plan.Windowed), len(plan.Catalog))

	if len(plan.Windowed) == 0 {
		return finish(fmt.Errorf("%w: %s", ErrEmptyWindow, win))
	}
	if sel := c.cfg.Select; sel.Enabled() {
		rep.GridStep = sel.Step().String()
		log.Infof("Grid step %s, tolerance %s: %d images selected", sel.Step(), sel.Tolerance(), len(plan.Candidates))
		if len(plan.Candidates) == 0 {
			return finish(ErrNoGridMatch)
		}
	}

	factory := c.factoryFor(ctx)
	name := video.OutputName(c.cfg.LookbackDays, win.StartLocal, win.End, c.cfg.FPS, factory.Ext())
	out := filepath.Join(c.cfg.Output.Dir, name)

	rep.Result, err = c.Assemble(ctx, plan.Candidates, out)
	if err != nil {
		return finish(err)
	}
	rep.Output = out
	return finish(nil)
}

// WriteReport stores the report as JSON at path.
func (c *Core) WriteReport(path string, rep Report) error {
	if err := storage.WriteJSON(path, rep); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Check classifies the given references in order, nothing is written.
func (c *Core) Check(ctx context.Context, refs []string) ([]job.Result, error) {
	w := c.newWorker()
	out := make([]job.Result, 0, len(refs))
	for i, ref := range refs {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		out = append(out, w.Process(job.New(i, catalog.Record{Ref: ref})))
	}
	return out, nil
}
