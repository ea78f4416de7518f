package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"
	// the configured timezone must resolve on hosts without a zoneinfo database
	_ "time/tzdata"

	"github.com/1F47E/go-timereel/pkg/quality"
	"github.com/1F47E/go-timereel/pkg/window"
	"gopkg.in/yaml.v3"
)

// NOTE: filenames carry UTC timestamps, the window is computed in the
// location's civil timezone
const (
	DefaultFile = "timereel.yaml"

	// location (Pradollano, Sierra Nevada)
	LocationName      = "Pradollano"
	LocationRegion    = "Spain"
	LocationLatitude  = 37.0870
	LocationLongitude = -3.3920
	LocationTimezone  = "Europe/Madrid"

	// window
	LookbackDays = 7
	LeadMinutes  = 5

	// grid selection, 0 keeps every capture in the window
	StepMinutes = 0

	// video
	FPS            = 24
	ContainerAVI   = "avi"
	ContainerMP4   = "mp4"
	JPEGQuality    = 90
	MaxWorkers     = 64
	FFmpegBinary   = "ffmpeg"
	PathArchive    = "images"
	PathLegacy     = "images_5min"
	PathTimelapses = "timelapses"
	ExtensionsCSV  = "jpg,jpeg,png,gif,webp,bmp,tif,tiff"
)

const (
	// ErrCodeNotFound means an explicitly requested config file is missing.
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid means the file could not be parsed or a value is out of range.
	ErrCodeInvalid = "config_invalid"
)

type Config struct {
	Location     window.Location    `yaml:"location"`
	LookbackDays int                `yaml:"lookback_days"`
	LeadMinutes  int                `yaml:"lead_minutes"`
	FPS          int                `yaml:"fps"`
	Workers      int                `yaml:"workers"`
	Select       Select             `yaml:"select"`
	Sources      Sources            `yaml:"sources"`
	Output       Output             `yaml:"output"`
	Quality      quality.Thresholds `yaml:"quality"`
}

// Select thins the window to one capture per clock aligned slot.
type Select struct {
	StepMinutes int `yaml:"step_minutes"`
	// ToleranceSeconds defaults to half a step when zero.
	ToleranceSeconds int `yaml:"tolerance_seconds"`
}

// Enabled reports whether grid selection is on.
func (s Select) Enabled() bool { return s.StepMinutes > 0 }

func (s Select) Step() time.Duration { return time.Duration(s.StepMinutes) * time.Minute }

func (s Select) Tolerance() time.Duration {
	if s.ToleranceSeconds > 0 {
		return time.Duration(s.ToleranceSeconds) * time.Second
	}
	return time.Duration(max(1, s.StepMinutes*30)) * time.Second
}

type Sources struct {
	// Archive roots are walked recursively.
	Archive []string `yaml:"archive"`
	// Legacy roots are flat directories, only their direct children are read.
	Legacy     []string `yaml:"legacy"`
	Extensions []string `yaml:"extensions"`
}

type Output struct {
	Dir         string `yaml:"dir"`
	Container   string `yaml:"container"`
	JPEGQuality int    `yaml:"jpeg_quality"`
	FFmpeg      string `yaml:"ffmpeg"`
}

// Error is a configuration error tagged with a stable code.
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code extracts the error code, empty if err is not a *Error.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func Default() *Config {
	return &Config{
		Location: window.Location{
			Name:      LocationName,
			Region:    LocationRegion,
			Latitude:  LocationLatitude,
			Longitude: LocationLongitude,
			Timezone:  LocationTimezone,
		},
		LookbackDays: LookbackDays,
		LeadMinutes:  LeadMinutes,
		FPS:          FPS,
		Workers:      runtime.NumCPU(),
		Select:       Select{StepMinutes: StepMinutes},
		Sources: Sources{
			Archive:    []string{PathArchive},
			Legacy:     []string{PathLegacy},
			Extensions: strings.Split(ExtensionsCSV, ","),
		},
		Output: Output{
			Dir:         PathTimelapses,
			Container:   ContainerAVI,
			JPEGQuality: JPEGQuality,
			FFmpeg:      FFmpegBinary,
		},
		Quality: quality.DefaultThresholds(),
	}
}

// Load reads a YAML file on top of the defaults, so absent keys keep their
// default value. An empty path falls back to DefaultFile in the working
// directory, which is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	required := path != ""
	if !required {
		path = DefaultFile
	}

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, cfg.Validate()
		}
		if os.IsNotExist(err) {
			return nil, &Error{Code: ErrCodeNotFound, Path: path, Err: err}
		}
		return nil, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, &Error{Code: ErrCodeInvalid, Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		var e *Error
		if errors.As(err, &e) {
			e.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with and clamps the worker count.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return &Error{Code: ErrCodeInvalid, Err: fmt.Errorf(format, args...)}
	}

	if c.FPS <= 0 {
		return invalid("fps must be positive, got %d", c.FPS)
	}
	if c.LookbackDays < 1 {
		return invalid("lookback_days must be at least 1, got %d", c.LookbackDays)
	}
	if c.LeadMinutes < 0 {
		return invalid("lead_minutes must not be negative, got %d", c.LeadMinutes)
	}
	if c.Select.StepMinutes < 0 {
		return invalid("select.step_minutes must not be negative, got %d", c.Select.StepMinutes)
	}
	if c.Select.ToleranceSeconds < 0 {
		return invalid("select.tolerance_seconds must not be negative, got %d", c.Select.ToleranceSeconds)
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return invalid("latitude out of range: %v", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return invalid("longitude out of range: %v", c.Location.Longitude)
	}
	if _, err := time.LoadLocation(c.Location.Timezone); err != nil {
		return invalid("timezone %q: %v", c.Location.Timezone, err)
	}

	switch c.Output.Container {
	case ContainerAVI, ContainerMP4:
	default:
		return invalid("container must be %s or %s, got %q", ContainerAVI, ContainerMP4, c.Output.Container)
	}
	if c.Output.JPEGQuality < 1 || c.Output.JPEGQuality > 100 {
		return invalid("jpeg_quality must be in [1, 100], got %d", c.Output.JPEGQuality)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return invalid("output dir is empty")
	}
	if c.Output.FFmpeg == "" {
		c.Output.FFmpeg = FFmpegBinary
	}

	if len(c.Sources.Extensions) == 0 {
		return invalid("no image extensions configured")
	}

	if c.Workers < 1 {
		c.Workers = 1
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}

	if err := c.Quality.Validate(); err != nil {
		return &Error{Code: ErrCodeInvalid, Err: err}
	}
	return nil
}

// TZ returns the loaded timezone of the configured location.
func (c *Config) TZ() *time.Location {
	tz, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return time.UTC
	}
	return tz
}
