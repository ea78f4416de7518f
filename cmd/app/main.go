package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfg "github.com/1F47E/go-timereel/pkg/config"
	"github.com/1F47E/go-timereel/pkg/core"
	"github.com/1F47E/go-timereel/pkg/logger"
	"github.com/urfave/cli"
	"golang.org/x/term"
)

var app = cli.NewApp()
var log = logger.Log

var flags = []cli.Flag{
	cli.StringFlag{Name: "config", Usage: "YAML config file (default ./" + cfg.DefaultFile + " if present)"},
	cli.IntFlag{Name: "fps", Usage: "output frame rate"},
	cli.IntFlag{Name: "days", Usage: "lookback in days"},
	cli.IntFlag{Name: "lead", Usage: "minutes before sunrise the window opens"},
	cli.StringFlag{Name: "out", Usage: "output directory"},
	cli.StringFlag{Name: "container", Usage: "avi (mjpeg, built in) or mp4 (needs ffmpeg)"},
	cli.IntFlag{Name: "workers", Usage: "decode workers"},
	cli.IntFlag{Name: "step", Usage: "keep one image per N minute clock slot (0 keeps all)"},
	cli.IntFlag{Name: "tolerance", Usage: "max seconds between an image and its slot (default half a step)"},
}

func init() {
	app.Name = "timereel"
	app.Usage = "Daily webcam timelapse builder"
	app.UsageText = "timereel [command] [options]"
	app.HideVersion = true
	app.Commands = []cli.Command{
		{
			Name:    "render",
			Aliases: []string{"r"},
			Usage:   "Render the timelapse of the last days",
			Flags:   append(flags, cli.StringFlag{Name: "report", Usage: "write a JSON run report to this path"}),
			Action: func(c *cli.Context) error {
				conf, err := loadConfig(c)
				if err != nil {
					return err
				}
				ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				cr := core.NewCore(conf, core.WithProgress(term.IsTerminal(int(os.Stderr.Fd()))))
				rep, err := cr.Render(ctx)
				if path := c.String("report"); path != "" {
					if werr := cr.WriteReport(path, rep); werr != nil {
						log.Warn(werr)
					}
				}
				if err != nil {
					return diagnose(err)
				}
				for _, line := range summary(rep) {
					log.Info(line)
				}
				return nil
			},
		},
		{
			Name:      "check",
			Aliases:   []string{"c"},
			Usage:     "Classify image files and print the verdicts",
			ArgsUsage: "image [image...]",
			Flags:     flags,
			Action: func(c *cli.Context) error {
				if c.NArg() == 0 {
					return fmt.Errorf("At least one image is required")
				}
				conf, err := loadConfig(c)
				if err != nil {
					return err
				}
				res, err := core.NewCore(conf).Check(context.Background(), c.Args())
				if err != nil {
					return err
				}
				for _, r := range res {
					fmt.Printf("%-8s %-24s %s\n", mark(r.Verdict.Accepted), r.Verdict.Detail, r.Record.Ref)
				}
				return nil
			},
		},
		{
			Name:    "window",
			Aliases: []string{"w"},
			Usage:   "Print the time window and catalog summary without rendering",
			Flags:   flags,
			Action: func(c *cli.Context) error {
				conf, err := loadConfig(c)
				if err != nil {
					return err
				}
				plan, err := core.NewCore(conf).Plan(context.Background())
				if err != nil {
					return diagnose(err)
				}
				tz := conf.TZ()
				w := plan.Window
				first, _ := plan.Catalog.Earliest()
				last, _ := plan.Catalog.Latest()
				fmt.Printf("location:   %s, %s (%.4f, %.4f)\n", conf.Location.Name, conf.Location.Region, conf.Location.Latitude, conf.Location.Longitude)
				fmt.Printf("sunrise:    %s (fallback: %t)\n", w.Sunrise.In(tz).Format(time.DateTime), w.SunriseFallback)
				fmt.Printf("start:      %s local, %s UTC\n", w.StartLocal.Format(time.DateTime), w.Start.Format(time.DateTime))
				fmt.Printf("end:        %s UTC\n", w.End.Format(time.DateTime))
				fmt.Printf("catalog:    %d images, %s .. %s UTC\n", len(plan.Catalog), first.Format(time.DateTime), last.Format(time.DateTime))
				fmt.Printf("in window:  %d images\n", len(plan.Windowed))
				if conf.Select.Enabled() {
					fmt.Printf("grid:       %s +-%s, %d images selected\n", conf.Select.Step(), conf.Select.Tolerance(), len(plan.Candidates))
				}
				return nil
			},
		},
	}
}

func loadConfig(c *cli.Context) (*cfg.Config, error) {
	conf, err := cfg.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("fps") {
		conf.FPS = c.Int("fps")
	}
	if c.IsSet("days") {
		conf.LookbackDays = c.Int("days")
	}
	if c.IsSet("lead") {
		conf.LeadMinutes = c.Int("lead")
	}
	if c.IsSet("out") {
		conf.Output.Dir = c.String("out")
	}
	if c.IsSet("container") {
		conf.Output.Container = c.String("container")
	}
	if c.IsSet("workers") {
		conf.Workers = c.Int("workers")
	}
	if c.IsSet("step") {
		conf.Select.StepMinutes = c.Int("step")
	}
	if c.IsSet("tolerance") {
		conf.Select.ToleranceSeconds = c.Int("tolerance")
	}
	return conf, conf.Validate()
}

// diagnose turns run-fatal conditions into one line for the operator.
func diagnose(err error) error {
	switch {
	case errors.Is(err, core.ErrNoInput):
		return fmt.Errorf("No input: no timestamped images in the configured sources")
	case errors.Is(err, core.ErrEmptyWindow):
		return fmt.Errorf("No images in the time window (%v)", err)
	case errors.Is(err, core.ErrNoGridMatch):
		return fmt.Errorf("No images matched the grid within tolerance")
	case errors.Is(err, core.ErrNoUsableFrames):
		return fmt.Errorf("No usable frames: every image in the window was rejected")
	}
	return err
}

// summary is what a successful render reports.
func summary(rep core.Report) []string {
	r := rep.Result
	return []string{
		fmt.Sprintf("Done in %s: %d frames used, %d skipped %v", rep.Took, r.Used, r.Skipped, r.Reasons),
		fmt.Sprintf("Frame range (UTC): %s -> %s", r.First.UTC().Format(time.RFC3339), r.Last.UTC().Format(time.RFC3339)),
	}
}

func mark(ok bool) string {
	if ok {
		return "OK"
	}
	return "SKIP"
}

func main() {
	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
