// Package timefmt holds the expiry and display helpers for instance
// timestamps.  Epochs are whole seconds; display is in the viewer's zone.
package timefmt

import (
	"fmt"
	"strings"
	"time"
)

// Default expiry window offered by the date picker.
const (
	DefaultMinExpiry = time.Hour
	DefaultMaxExpiry = 24 * time.Hour
)

// PickerLayout is the value format of a datetime-local input.
const PickerLayout = "2006-01-02T15:04"

// Format renders epoch as "YYYY/M/D - HH:MM" in loc.  Hour and minute are
// zero-padded; year, month, and day are not.
func Format(epoch int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	t := time.Unix(epoch, 0).In(loc)
	return fmt.Sprintf("%d/%d/%d - %02d:%02d", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

// TTL is the number of seconds from now until expiry.
func TTL(expiry, now time.Time) int64 {
	return expiry.Unix() - now.Unix()
}

// Window returns the [min, max] range the picker allows, relative to now.
func Window(now time.Time, minOffset, maxOffset time.Duration) (lo, hi time.Time) {
	if minOffset <= 0 {
		minOffset = DefaultMinExpiry
	}
	if maxOffset <= 0 {
		maxOffset = DefaultMaxExpiry
	}
	return now.Add(minOffset), now.Add(maxOffset)
}

// ParseSelection reads a picker value in loc.  ok is false when nothing was
// selected or the value cannot be parsed.  Bounds are not checked; the
// picker enforces them.
func ParseSelection(value string, loc *time.Location) (t time.Time, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(PickerLayout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PickerValue formats t for a datetime-local input in loc.
func PickerValue(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(PickerLayout)
}
