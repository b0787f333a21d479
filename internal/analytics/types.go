// Package analytics implements the biodiversity analytics engine: temporal
// deduplication of camera-trap detections, diversity indices, naive
// occupancy, species accumulation, circadian activity patterns and
// multi-period indicator roll-ups, all under a hierarchical
// scope-by-sampling-event filter.
package analytics

import "time"

// Taxonomic classes with dedicated indicator columns.
const (
	ClassMammal = "Mammalia"
	ClassBird   = "Aves"
)

// ObservationRecord is a single camera-trap detection as produced by the
// upstream ETL. Records are immutable: the engine only derives new
// collections from them.
type ObservationRecord struct {
	DeploymentID    string    `json:"deployment_id"`
	SpeciesBinomial string    `json:"sp_binomial"` // empty when unidentified
	TaxonClass      string    `json:"taxon_class"`
	Timestamp       time.Time `json:"timestamp"`
	Scope           string    `json:"scope"` // corporation or project
	EventID         string    `json:"event_id"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
}

// Identified reports whether the record carries a species determination.
// Unidentified records bypass temporal deduplication entirely.
func (r ObservationRecord) Identified() bool {
	return r.SpeciesBinomial != ""
}

// IndependentEvent is an observation that survived temporal deduplication:
// one detection of a species at a deployment after collapsing bursts inside
// the independence interval.
type IndependentEvent = ObservationRecord

// DeploymentSummary is one camera deployment within one sampling event,
// with the pre-aggregated per-site tallies supplied by the ETL.
type DeploymentSummary struct {
	DeploymentID  string  `json:"deployment_id"`
	Scope         string  `json:"scope"`
	EventID       string  `json:"event_id"`
	ImageCount    int     `json:"image_count"`
	CameraCount   int     `json:"camera_count"` // 1 per row pre-aggregation
	EffortDays    float64 `json:"effort_days"`
	SpeciesTotal  int     `json:"species_count_total"`
	SpeciesMammal int     `json:"species_count_mammal"`
	SpeciesBird   int     `json:"species_count_bird"`
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
}

// Dataset bundles the two read-only input tables. A Dataset may be shared
// across sessions; nothing in this package mutates it.
type Dataset struct {
	Observations []ObservationRecord
	Summaries    []DeploymentSummary
}

// TotalSites returns the number of distinct deployments in the summary
// table, the denominator for naive occupancy.
func (d Dataset) TotalSites() int {
	seen := make(map[string]struct{}, len(d.Summaries))
	for _, s := range d.Summaries {
		seen[s.DeploymentID] = struct{}{}
	}
	return len(seen)
}
