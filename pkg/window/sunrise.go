package window

import (
	"errors"
	"time"

	"github.com/nathan-osman/go-sunrise"
)

// ErrNoSunrise is returned when the sun does not rise on the requested day.
var ErrNoSunrise = errors.New("no sunrise")

type SunriseProvider interface {
	// Sunrise returns the sunrise instant at loc on the civil date of day.
	Sunrise(loc Location, day time.Time) (time.Time, error)
}

// Astro computes sunrise from the NOAA solar equations.
type Astro struct{}

func (Astro) Sunrise(loc Location, day time.Time) (time.Time, error) {
	rise, _ := sunrise.SunriseSunset(loc.Latitude, loc.Longitude, day.Year(), day.Month(), day.Day())
	if rise.IsZero() {
		return time.Time{}, ErrNoSunrise
	}
	return rise, nil
}

// Fixed always reports the same local clock time, mostly for tests.
type Fixed struct {
	Hour, Minute int
}

func (f Fixed) Sunrise(_ Location, day time.Time) (time.Time, error) {
	return time.Date(day.Year(), day.Month(), day.Day(), f.Hour, f.Minute, 0, 0, day.Location()), nil
}

// Unavailable never has a sunrise, forcing the fallback.
type Unavailable struct{}

func (Unavailable) Sunrise(Location, time.Time) (time.Time, error) {
	return time.Time{}, ErrNoSunrise
}
