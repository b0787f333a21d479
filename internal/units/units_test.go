package units

import (
	"errors"
	"testing"
	"time"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		unit  string
		valid bool
	}{
		{Seconds, true},
		{Minutes, true},
		{Hours, true},
		{Days, true},
		{Weeks, true},
		{"", false},
		{"fortnights", false},
		{"Minutes", false}, // case sensitive
	}

	for _, tt := range tests {
		if got := IsValid(tt.unit); got != tt.valid {
			t.Errorf("IsValid(%q) = %v, want %v", tt.unit, got, tt.valid)
		}
	}
}

func TestIntervalDuration(t *testing.T) {
	tests := []struct {
		magnitude float64
		unit      string
		want      time.Duration
	}{
		{30, Seconds, 30 * time.Second},
		{30, Minutes, 30 * time.Minute},
		{1.5, Hours, 90 * time.Minute},
		{2, Days, 48 * time.Hour},
		{1, Weeks, 7 * 24 * time.Hour},
		{0, Minutes, 0},
	}

	for _, tt := range tests {
		got, err := IntervalDuration(tt.magnitude, tt.unit)
		if err != nil {
			t.Fatalf("IntervalDuration(%v, %q) returned error: %v", tt.magnitude, tt.unit, err)
		}
		if got != tt.want {
			t.Errorf("IntervalDuration(%v, %q) = %v, want %v", tt.magnitude, tt.unit, got, tt.want)
		}
	}
}

func TestIntervalDurationUnknownUnit(t *testing.T) {
	_, err := IntervalDuration(10, "fortnights")
	if err == nil {
		t.Fatal("expected error for unknown unit")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	if cfgErr.Field != "interval_unit" {
		t.Errorf("ConfigError.Field = %q, want %q", cfgErr.Field, "interval_unit")
	}
}
