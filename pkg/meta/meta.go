// Timestamp metadata embedded in capture filenames
package meta

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Century is added to the two digit year. Names from 2100 on would wrap
// back to 2000, see DESIGN.md.
const Century = 2000

const (
	canonicalLayout = "060102_150405"
	outputLayout    = "20060102_150405"
)

var ErrNoTimestamp = errors.New("no timestamp in name")

// searched in this order, the 8 digit date wins when both could match
var (
	pat8 = regexp.MustCompile(`(\d{8}_\d{6})`) // 20251025_142015
	pat6 = regexp.MustCompile(`(\d{6}_\d{6})`) // 251025_142015
)

// Canonical returns the YYMMDD_HHMMSS token embedded in name.
func Canonical(name string) (string, error) {
	if m := pat8.FindString(name); m != "" {
		// drop the century: 20251025_142015 -> 251025_142015
		return m[2:], nil
	}
	if m := pat6.FindString(name); m != "" {
		return m, nil
	}
	return "", ErrNoTimestamp
}

// Parse extracts the capture instant from a filename. Timestamps are UTC.
func Parse(name string) (time.Time, error) {
	token, err := Canonical(name)
	if err != nil {
		return time.Time{}, err
	}
	return fromCanonical(token)
}

func fromCanonical(token string) (time.Time, error) {
	// YYMMDD_HHMMSS
	f := [6]int{}
	for i, off := range [6]int{0, 2, 4, 7, 9, 11} {
		n, err := strconv.Atoi(token[off : off+2])
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrNoTimestamp, token)
		}
		f[i] = n
	}
	year, month, day, hour, min, sec := Century+f[0], time.Month(f[1]), f[2], f[3], f[4], f[5]
	t := time.Date(year, month, day, hour, min, sec, 0, time.UTC)

	// time.Date normalises overflow (month 13, Feb 30), reject instead
	if t.Month() != month || t.Day() != day || t.Hour() != hour || t.Minute() != min || t.Second() != sec {
		return time.Time{}, fmt.Errorf("%w: invalid date %q", ErrNoTimestamp, token)
	}
	return t, nil
}

// FormatCanonical renders t back into the YYMMDD_HHMMSS form.
func FormatCanonical(t time.Time) string {
	return t.UTC().Format(canonicalLayout)
}

// Format renders t as YYYYMMDD_HHMMSS in t's own location.
func Format(t time.Time) string {
	return t.Format(outputLayout)
}
