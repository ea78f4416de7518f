package window

import (
	"errors"
	"testing"
	"time"

	"github.com/1F47E/go-timereel/pkg/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pradollano = Location{
	Name:      "Pradollano",
	Region:    "Spain",
	Latitude:  37.0870,
	Longitude: -3.3920,
	Timezone:  "Europe/Madrid",
}

func madrid(t *testing.T) *time.Location {
	t.Helper()
	tz, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		t.Skip("tzdata not available")
	}
	return tz
}

func sample(instants ...time.Time) catalog.Catalog {
	c := make(catalog.Catalog, len(instants))
	for i, ts := range instants {
		c[i] = catalog.Record{Instant: ts, Ref: ts.Format(time.RFC3339)}
	}
	return c
}

func TestCompute_SunriseAnchor(t *testing.T) {
	tz := madrid(t)
	latest := time.Date(2025, 10, 19, 10, 0, 0, 0, time.UTC)
	cat := sample(time.Date(2025, 10, 10, 9, 0, 0, 0, time.UTC), latest)

	c := &Computer{Location: pradollano, LookbackDays: 7, LeadMinutes: 5, Provider: Fixed{Hour: 7, Minute: 30}}
	now := time.Date(2025, 10, 19, 12, 0, 0, 0, tz)

	w, err := c.Compute(cat, now)
	require.NoError(t, err)

	// Oct 12 07:30 CEST - 5m = 07:25 CEST = 05:25 UTC
	assert.Equal(t, time.Date(2025, 10, 12, 5, 25, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2025, 10, 12, 7, 25, 0, 0, tz), w.StartLocal)
	assert.Equal(t, latest, w.End)
	assert.False(t, w.SunriseFallback)
	assert.Equal(t, time.UTC, w.Start.Location())
}

func TestCompute_FallbackSixAM(t *testing.T) {
	tz := madrid(t)
	cat := sample(time.Date(2025, 10, 19, 10, 0, 0, 0, time.UTC))
	c := &Computer{Location: pradollano, LookbackDays: 7, LeadMinutes: 5, Provider: Unavailable{}}

	w, err := c.Compute(cat, time.Date(2025, 10, 19, 12, 0, 0, 0, tz))
	require.NoError(t, err)

	assert.True(t, w.SunriseFallback)
	assert.Equal(t, time.Date(2025, 10, 12, 5, 55, 0, 0, tz), w.StartLocal)
	assert.Equal(t, time.Date(2025, 10, 12, 3, 55, 0, 0, time.UTC), w.Start)
}

func TestCompute_NilProviderFallsBack(t *testing.T) {
	tz := madrid(t)
	cat := sample(time.Date(2025, 10, 19, 10, 0, 0, 0, time.UTC))
	c := &Computer{Location: pradollano, LookbackDays: 7}

	w, err := c.Compute(cat, time.Date(2025, 10, 19, 12, 0, 0, 0, tz))
	require.NoError(t, err)
	assert.True(t, w.SunriseFallback)
	assert.Equal(t, time.Date(2025, 10, 12, 6, 0, 0, 0, tz), w.StartLocal)
}

func TestCompute_AcrossDSTChange(t *testing.T) {
	tz := madrid(t)
	cat := sample(time.Date(2025, 11, 2, 10, 0, 0, 0, time.UTC))
	c := &Computer{Location: pradollano, LookbackDays: 7, LeadMinutes: 5, Provider: Fixed{Hour: 7}}

	// earliest day is Oct 26, the night clocks go back to CET
	w, err := c.Compute(cat, time.Date(2025, 11, 2, 9, 0, 0, 0, tz))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 26, 5, 55, 0, 0, time.UTC), w.Start)
}

func TestCompute_EndIgnoresNow(t *testing.T) {
	tz := madrid(t)
	latest := time.Date(2025, 10, 18, 23, 59, 59, 0, time.UTC)
	cat := sample(
		time.Date(2025, 10, 13, 9, 0, 0, 0, time.UTC),
		time.Date(2025, 10, 15, 9, 0, 0, 0, time.UTC),
		latest,
	)
	c := &Computer{Location: pradollano, LookbackDays: 7, LeadMinutes: 5, Provider: Fixed{Hour: 8}}

	for _, now := range []time.Time{
		time.Date(2025, 10, 19, 0, 30, 0, 0, tz),
		time.Date(2025, 10, 19, 23, 0, 0, 0, tz),
		time.Date(2025, 10, 20, 12, 0, 0, 0, tz),
	} {
		w, err := c.Compute(cat, now)
		require.NoError(t, err)
		assert.Equal(t, latest, w.End, "now=%s", now)
		assert.False(t, w.End.Before(w.Start), "now=%s", now)
	}
}

func TestCompute_StaleArchive(t *testing.T) {
	tz := madrid(t)
	cat := sample(time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC))
	c := &Computer{Location: pradollano, LookbackDays: 7, LeadMinutes: 5, Provider: Fixed{Hour: 8}}

	w, err := c.Compute(cat, time.Date(2025, 10, 19, 12, 0, 0, 0, tz))
	require.NoError(t, err)
	assert.Equal(t, w.Start, w.End)
	assert.Empty(t, cat.Within(w.Start, w.End))
}

func TestCompute_EmptyCatalog(t *testing.T) {
	c := &Computer{Location: pradollano, LookbackDays: 7, Provider: Fixed{Hour: 8}}
	_, err := c.Compute(nil, time.Now())
	assert.True(t, errors.Is(err, ErrNoCatalog))
}

func TestCompute_BadTimezone(t *testing.T) {
	loc := pradollano
	loc.Timezone = "Mars/Olympus_Mons"
	c := &Computer{Location: loc, LookbackDays: 7, Provider: Fixed{Hour: 8}}
	_, err := c.Compute(sample(time.Now()), time.Now())
	assert.Error(t, err)
}

func TestWindowContains(t *testing.T) {
	start := time.Date(2025, 10, 12, 5, 25, 0, 0, time.UTC)
	end := time.Date(2025, 10, 19, 10, 0, 0, 0, time.UTC)
	w := Window{Start: start, End: end}

	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(end))
	assert.False(t, w.Contains(start.Add(-time.Second)))
	assert.False(t, w.Contains(end.Add(time.Second)))
}

func TestAstro(t *testing.T) {
	day := time.Date(2025, 10, 12, 0, 0, 0, 0, time.UTC)
	rise, err := Astro{}.Sunrise(pradollano, day)
	require.NoError(t, err)

	// roughly 08:10 CEST in mid October
	assert.True(t, rise.After(time.Date(2025, 10, 12, 5, 30, 0, 0, time.UTC)), "got %s", rise)
	assert.True(t, rise.Before(time.Date(2025, 10, 12, 7, 0, 0, 0, time.UTC)), "got %s", rise)

	polar := Location{Latitude: 89, Longitude: 0, Timezone: "UTC"}
	_, err = Astro{}.Sunrise(polar, time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNoSunrise)
}
