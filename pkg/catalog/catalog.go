package catalog

import (
	"context"
	"sort"
	"time"

	"github.com/1F47E/go-timereel/pkg/logger"
)

// Record is one capture: the instant parsed from its name and an opaque
// reference the frame loader understands (a path for directory sources).
type Record struct {
	Instant time.Time
	Ref     string
}

// Catalog is ordered by instant, captures sharing an instant keep the order
// they were discovered in.
type Catalog []Record

// Source yields records from one place. A source that cannot be reached
// returns an error, the gatherer logs it and moves on.
type Source interface {
	Name() string
	Scan(ctx context.Context) ([]Record, error)
}

// Gather scans every source in order and returns the merged, stably sorted
// catalog. Unreachable sources only produce a warning, so an empty catalog is
// the caller's "no input" condition, not an error here.
func Gather(ctx context.Context, sources ...Source) Catalog {
	log := logger.Scope("gather")

	var cat Catalog
	for _, src := range sources {
		if ctx.Err() != nil {
			break
		}
		recs, err := src.Scan(ctx)
		if err != nil {
			log.Warnf("source %s skipped: %v", src.Name(), err)
			continue
		}
		log.Debugf("source %s: %d images", src.Name(), len(recs))
		cat = append(cat, recs...)
	}

	sort.SliceStable(cat, func(i, j int) bool {
		return cat[i].Instant.Before(cat[j].Instant)
	})
	return cat
}

func (c Catalog) Earliest() (time.Time, bool) {
	if len(c) == 0 {
		return time.Time{}, false
	}
	return c[0].Instant, true
}

func (c Catalog) Latest() (time.Time, bool) {
	if len(c) == 0 {
		return time.Time{}, false
	}
	return c[len(c)-1].Instant, true
}

// Within returns the records with start <= instant <= end, order preserved.
func (c Catalog) Within(start, end time.Time) Catalog {
	lo := sort.Search(len(c), func(i int) bool { return !c[i].Instant.Before(start) })
	hi := sort.Search(len(c), func(i int) bool { return c[i].Instant.After(end) })
	if lo >= hi {
		return Catalog{}
	}
	out := make(Catalog, hi-lo)
	copy(out, c[lo:hi])
	return out
}
