// Package units provides shared constants and validation for the
// independence-interval units used by the deduplication engine.
package units

import (
	"fmt"
	"time"
)

// Interval unit constants
const (
	Seconds = "seconds"
	Minutes = "minutes"
	Hours   = "hours"
	Days    = "days"
	Weeks   = "weeks"
)

// ValidUnits contains all valid interval unit values
var ValidUnits = []string{Seconds, Minutes, Hours, Days, Weeks}

// ConfigError reports an invalid configuration value, such as an
// unrecognised interval unit. It is fatal: callers must surface it rather
// than fall back to a default window.
type ConfigError struct {
	Field string
	Value string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: %s=%q: %s", e.Field, e.Value, e.Msg)
}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "seconds, minutes, hours, days, weeks"
}

// IntervalDuration converts an interval magnitude plus unit into a
// time.Duration. Unknown units return a ConfigError.
func IntervalDuration(magnitude float64, unit string) (time.Duration, error) {
	var per time.Duration
	switch unit {
	case Seconds:
		per = time.Second
	case Minutes:
		per = time.Minute
	case Hours:
		per = time.Hour
	case Days:
		per = 24 * time.Hour
	case Weeks:
		per = 7 * 24 * time.Hour
	default:
		return 0, &ConfigError{
			Field: "interval_unit",
			Value: unit,
			Msg:   "must be one of " + GetValidUnitsString(),
		}
	}
	return time.Duration(magnitude * float64(per)), nil
}
