// Package config loads and validates the engine configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/humboldt-data/fauna.report/internal/units"
)

// EngineConfig holds the tunable parameters of the analytics engine. All
// fields are optional pointers so a partial JSON file only overrides what
// it names; the Get* accessors supply defaults for the rest.
type EngineConfig struct {
	// Deduplication
	IntervalMagnitude *float64 `json:"interval_magnitude,omitempty"`
	IntervalUnit      *string  `json:"interval_unit,omitempty"`

	// Report shape
	TopSpecies          *int  `json:"top_species,omitempty"`
	SmoothAccumulation  *bool `json:"smooth_accumulation,omitempty"`
	IncludeConsolidated *bool `json:"include_consolidated,omitempty"`

	// Serving
	Listen *string `json:"listen,omitempty"`
	DBPath *string `json:"db_path,omitempty"`
}

// EmptyEngineConfig returns an EngineConfig with all fields set to nil.
func EmptyEngineConfig() *EngineConfig {
	return &EngineConfig{}
}

// LoadEngineConfig loads an EngineConfig from a JSON file. The file must
// have a .json extension and stay under the max file size. Fields omitted
// from the JSON retain their defaults, so partial configs are safe.
func LoadEngineConfig(path string) (*EngineConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyEngineConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid. A bad interval
// unit is fatal per the error taxonomy: it must never silently fall back
// to a default window.
func (c *EngineConfig) Validate() error {
	if c.IntervalUnit != nil && !units.IsValid(*c.IntervalUnit) {
		return &units.ConfigError{
			Field: "interval_unit",
			Value: *c.IntervalUnit,
			Msg:   "must be one of " + units.GetValidUnitsString(),
		}
	}
	if c.IntervalMagnitude != nil && *c.IntervalMagnitude < 0 {
		return fmt.Errorf("interval_magnitude must be non-negative, got %f", *c.IntervalMagnitude)
	}
	if c.TopSpecies != nil && *c.TopSpecies < 1 {
		return fmt.Errorf("top_species must be positive, got %d", *c.TopSpecies)
	}
	return nil
}

// GetIntervalMagnitude returns the independence-interval magnitude or the default.
func (c *EngineConfig) GetIntervalMagnitude() float64 {
	if c.IntervalMagnitude == nil {
		return 30
	}
	return *c.IntervalMagnitude
}

// GetIntervalUnit returns the independence-interval unit or the default.
func (c *EngineConfig) GetIntervalUnit() string {
	if c.IntervalUnit == nil {
		return units.Minutes
	}
	return *c.IntervalUnit
}

// GetTopSpecies returns the activity-pattern top-N or the default.
func (c *EngineConfig) GetTopSpecies() int {
	if c.TopSpecies == nil {
		return 10
	}
	return *c.TopSpecies
}

// GetSmoothAccumulation returns whether accumulation curves are fitted.
func (c *EngineConfig) GetSmoothAccumulation() bool {
	if c.SmoothAccumulation == nil {
		return true
	}
	return *c.SmoothAccumulation
}

// GetIncludeConsolidated returns whether the CONSOLIDATED row is appended.
func (c *EngineConfig) GetIncludeConsolidated() bool {
	if c.IncludeConsolidated == nil {
		return true
	}
	return *c.IncludeConsolidated
}

// GetListen returns the HTTP listen address or the default.
func (c *EngineConfig) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return ":8080"
	}
	return *c.Listen
}

// GetDBPath returns the SQLite database path or the default.
func (c *EngineConfig) GetDBPath() string {
	if c.DBPath == nil || *c.DBPath == "" {
		return "fauna.db"
	}
	return *c.DBPath
}
