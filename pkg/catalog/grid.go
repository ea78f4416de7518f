package catalog

import "time"

// GridStart rounds t up to the next instant whose Unix time is a multiple of
// step, so slots land on wall clock boundaries (:00, :05, ...).
func GridStart(t time.Time, step time.Duration) time.Time {
	secs := int64(step / time.Second)
	if secs < 1 {
		secs = 1
	}
	u := t.Unix()
	rem := u % secs
	if rem < 0 {
		rem += secs
	}
	if rem == 0 && t.Nanosecond() == 0 {
		return t.UTC()
	}
	return time.Unix(u+secs-rem, 0).UTC()
}

// GridSlots lists the aligned slots from start to end inclusive.
func GridSlots(start, end time.Time, step time.Duration) []time.Time {
	if step < time.Second {
		step = time.Second
	}
	var slots []time.Time
	for t := GridStart(start, step); !t.After(end); t = t.Add(step) {
		slots = append(slots, t)
	}
	return slots
}

// Grid picks, for every slot between start and end, the record closest to
// the slot within tol. On equal distance the earlier record wins. A record
// picked by several slots is kept once, the result stays in instant order.
func (c Catalog) Grid(start, end time.Time, step, tol time.Duration) Catalog {
	out := Catalog{}
	seen := make(map[string]struct{})
	j := 0
	for _, slot := range GridSlots(start, end, step) {
		lower, upper := slot.Add(-tol), slot.Add(tol)
		for j < len(c) && c[j].Instant.Before(lower) {
			j++
		}

		best := -1
		var bestDiff time.Duration
		for k := j; k < len(c) && !c[k].Instant.After(upper); k++ {
			diff := c[k].Instant.Sub(slot)
			if diff < 0 {
				diff = -diff
			}
			// strictly closer only, so ties keep the earlier record
			if best < 0 || diff < bestDiff {
				best, bestDiff = k, diff
			}
		}
		if best < 0 {
			continue
		}
		if _, dup := seen[c[best].Ref]; dup {
			continue
		}
		seen[c[best].Ref] = struct{}{}
		out = append(out, c[best])
	}
	return out
}
