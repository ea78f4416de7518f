package window

import (
	"errors"
	"fmt"
	"time"

	"github.com/1F47E/go-timereel/pkg/catalog"
	"github.com/1F47E/go-timereel/pkg/logger"
)

var ErrNoCatalog = errors.New("no images available to compute the window")

// fallback when no sunrise is available for the day
const (
	fallbackHour   = 6
	fallbackMinute = 0
)

type Location struct {
	Name      string  `yaml:"name"`
	Region    string  `yaml:"region"`
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`
	Timezone  string  `yaml:"timezone"`
}

// Window is the inclusive instant range rendered in one run, both ends UTC.
type Window struct {
	Start time.Time
	End   time.Time
	// StartLocal is Start in the location's civil time, used for naming.
	StartLocal time.Time
	// Sunrise of the earliest day, and whether it came from the provider.
	Sunrise         time.Time
	SunriseFallback bool
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s -> %s", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

type Computer struct {
	Location     Location
	LookbackDays int
	LeadMinutes  int
	Provider     SunriseProvider
}

// Compute anchors the window start to sunrise on the earliest of the
// trailing LookbackDays civil days, minus the lead-in. The end is the
// latest capture in the catalog, not now.
func (c *Computer) Compute(cat catalog.Catalog, now time.Time) (Window, error) {
	log := logger.Scope("window")

	end, ok := cat.Latest()
	if !ok {
		return Window{}, ErrNoCatalog
	}

	tz, err := time.LoadLocation(c.Location.Timezone)
	if err != nil {
		return Window{}, fmt.Errorf("timezone %q: %w", c.Location.Timezone, err)
	}

	nowLocal := now.In(tz)
	y, m, d := nowLocal.Date()
	day := time.Date(y, m, d-c.LookbackDays, 0, 0, 0, 0, tz)

	w := Window{}
	sunrise, err := c.sunrise(day)
	if err != nil {
		log.Warnf("sunrise for %s unavailable, using %02d:%02d: %v", day.Format(time.DateOnly), fallbackHour, fallbackMinute, err)
		sunrise = time.Date(day.Year(), day.Month(), day.Day(), fallbackHour, fallbackMinute, 0, 0, tz)
		w.SunriseFallback = true
	}
	w.Sunrise = sunrise.In(tz)

	w.StartLocal = w.Sunrise.Add(-time.Duration(c.LeadMinutes) * time.Minute)
	w.Start = w.StartLocal.UTC()
	w.End = end.UTC()

	// archive stopped before the window opened: keep start <= end and select nothing
	if w.End.Before(w.Start) {
		log.Warnf("latest capture %s is older than the window start %s", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
		w.End = w.Start
	}

	log.Debugf("earliest day %s, sunrise %s, window %s", day.Format(time.DateOnly), w.Sunrise.Format(time.RFC3339), w)
	return w, nil
}

func (c *Computer) sunrise(day time.Time) (time.Time, error) {
	if c.Provider == nil {
		return time.Time{}, ErrNoSunrise
	}
	return c.Provider.Sunrise(c.Location, day)
}
