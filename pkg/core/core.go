package core

import (
	"context"
	"errors"
	"time"

	"github.com/1F47E/go-timereel/pkg/catalog"
	cfg "github.com/1F47E/go-timereel/pkg/config"
	"github.com/1F47E/go-timereel/pkg/frame"
	"github.com/1F47E/go-timereel/pkg/logger"
	"github.com/1F47E/go-timereel/pkg/quality"
	"github.com/1F47E/go-timereel/pkg/video"
	"github.com/1F47E/go-timereel/pkg/window"
	"github.com/1F47E/go-timereel/pkg/workers"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Run-fatal conditions. Everything else about individual captures is
// counted, not returned.
var (
	ErrNoInput        = errors.New("no input images found")
	ErrEmptyWindow    = errors.New("no images in the time window")
	ErrNoGridMatch    = errors.New("no images matched the grid within tolerance")
	ErrNoUsableFrames = errors.New("no usable frames in the time window")
)

type Core struct {
	cfg      *cfg.Config
	sources  []catalog.Source
	sunrise  window.SunriseProvider
	loader   frame.Loader
	factory  video.Factory
	now      func() time.Time
	progress bool
	runID    string
	log      *logrus.Entry
}

type Option func(*Core)

// WithSources replaces the directory sources built from the config.
func WithSources(s ...catalog.Source) Option {
	return func(c *Core) { c.sources = s }
}

func WithSunrise(p window.SunriseProvider) Option {
	return func(c *Core) { c.sunrise = p }
}

func WithLoader(l frame.Loader) Option {
	return func(c *Core) { c.loader = l }
}

// WithFactory overrides the container picked by output.container.
func WithFactory(f video.Factory) Option {
	return func(c *Core) { c.factory = f }
}

func WithClock(now func() time.Time) Option {
	return func(c *Core) { c.now = now }
}

func WithProgress(visible bool) Option {
	return func(c *Core) { c.progress = visible }
}

func NewCore(conf *cfg.Config, opts ...Option) *Core {
	id := uuid.NewString()
	c := &Core{
		cfg:     conf,
		sunrise: window.Astro{},
		loader:  frame.FileLoader{},
		now:     time.Now,
		runID:   id,
		log:     logger.Log.WithField("run", id),
	}
	for _, src := range conf.Sources.Archive {
		c.sources = append(c.sources, catalog.NewDirSource(src, true, conf.Sources.Extensions))
	}
	for _, src := range conf.Sources.Legacy {
		c.sources = append(c.sources, catalog.NewDirSource(src, false, conf.Sources.Extensions))
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Core) RunID() string { return c.runID }

func (c *Core) Config() *cfg.Config { return c.cfg }

func (c *Core) factoryFor(ctx context.Context) video.Factory {
	if c.factory != nil {
		return c.factory
	}
	if c.cfg.Output.Container == cfg.ContainerMP4 {
		return video.FFmpeg{Ctx: ctx, Binary: c.cfg.Output.FFmpeg, Quality: c.cfg.Output.JPEGQuality}
	}
	return video.MJPEG{Quality: c.cfg.Output.JPEGQuality}
}

func (c *Core) newWorker() *workers.Worker {
	return workers.NewWorker(c.loader, quality.NewClassifier(c.cfg.Quality))
}
