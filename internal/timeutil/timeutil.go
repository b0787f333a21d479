// Package timeutil provides timestamp parsing and calendar helpers shared
// by the analytics engine.
package timeutil

import (
	"fmt"
	"time"
)

// Layouts accepted for observation timestamps, tried in order. Camera-trap
// exports are inconsistent: Wildlife Insights uses a space-separated layout,
// re-exports through other tools produce RFC3339, and some deployment
// metadata carries bare dates.
var Layouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Parse parses a timestamp string against the known layouts. All
// observation timestamps are treated as wall-clock local time at the
// deployment, so the zone is discarded.
func Parse(s string) (time.Time, error) {
	for _, layout := range Layouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// DayFloor truncates t to midnight of its calendar day.
func DayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayRange returns every calendar day from min to max inclusive. Both
// bounds are floored to midnight first. Returns nil when min is after max.
func DayRange(min, max time.Time) []time.Time {
	lo := DayFloor(min)
	hi := DayFloor(max)
	if lo.After(hi) {
		return nil
	}
	var days []time.Time
	for d := lo; !d.After(hi); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// HourOfDay returns the continuous hour-of-day value of t in [0, 24).
// Minutes and seconds contribute fractionally, so 06:30:00 maps to 6.5.
func HourOfDay(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}
