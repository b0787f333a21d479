package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/humboldt-data/fauna.report/internal/units"
)

func writeConfig(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadEngineConfig(t *testing.T) {
	path := writeConfig(t, "engine.json", `{
		"interval_magnitude": 60,
		"interval_unit": "seconds",
		"top_species": 5
	}`)

	cfg, err := LoadEngineConfig(path)
	if err != nil {
		t.Fatalf("LoadEngineConfig failed: %v", err)
	}
	if got := cfg.GetIntervalMagnitude(); got != 60 {
		t.Errorf("interval magnitude = %v, want 60", got)
	}
	if got := cfg.GetIntervalUnit(); got != units.Seconds {
		t.Errorf("interval unit = %q, want seconds", got)
	}
	if got := cfg.GetTopSpecies(); got != 5 {
		t.Errorf("top species = %d, want 5", got)
	}
}

func TestLoadEngineConfigPartial(t *testing.T) {
	path := writeConfig(t, "engine.json", `{}`)

	cfg, err := LoadEngineConfig(path)
	if err != nil {
		t.Fatalf("LoadEngineConfig failed: %v", err)
	}
	// Everything defaulted.
	if cfg.GetIntervalMagnitude() != 30 || cfg.GetIntervalUnit() != units.Minutes {
		t.Errorf("default interval = %v %s, want 30 minutes",
			cfg.GetIntervalMagnitude(), cfg.GetIntervalUnit())
	}
	if !cfg.GetSmoothAccumulation() || !cfg.GetIncludeConsolidated() {
		t.Error("smoothing and consolidation should default on")
	}
	if cfg.GetListen() != ":8080" {
		t.Errorf("default listen = %q, want :8080", cfg.GetListen())
	}
	if cfg.GetDBPath() != "fauna.db" {
		t.Errorf("default db path = %q, want fauna.db", cfg.GetDBPath())
	}
}

func TestLoadEngineConfigBadUnit(t *testing.T) {
	path := writeConfig(t, "engine.json", `{"interval_unit": "fortnights"}`)

	_, err := LoadEngineConfig(path)
	if err == nil {
		t.Fatal("expected error for invalid interval unit")
	}
	var cfgErr *units.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected *units.ConfigError, got %T: %v", err, err)
	}
}

func TestLoadEngineConfigRejectsNonJSON(t *testing.T) {
	path := writeConfig(t, "engine.yaml", `interval_unit: minutes`)
	if _, err := LoadEngineConfig(path); err == nil {
		t.Fatal("expected error for non-JSON extension")
	}
}

func TestValidate(t *testing.T) {
	neg := -5.0
	zero := 0
	tests := []struct {
		name    string
		cfg     EngineConfig
		wantErr bool
	}{
		{"empty", EngineConfig{}, false},
		{"negative magnitude", EngineConfig{IntervalMagnitude: &neg}, true},
		{"zero top species", EngineConfig{TopSpecies: &zero}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
