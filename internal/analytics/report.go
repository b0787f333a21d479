package analytics

import (
	"github.com/google/uuid"
)

// ReportOptions tunes the per-filter recomputation pass.
type ReportOptions struct {
	TopSpecies          int  // activity pattern top-N
	Smooth              bool // fit the accumulation curve
	IncludeConsolidated bool // append the CONSOLIDATED period row
}

// Report is the complete output of one recomputation pass for one filter
// state: every table and series the presentation layer consumes.
type Report struct {
	RunID                string               `json:"run_id"`
	Filter               FilterContext        `json:"filter"`
	Species              []RankedSpecies      `json:"species"`
	Occupancy            []SpeciesOccupancy   `json:"occupancy"`
	Accumulation         []AccumulationPoint  `json:"accumulation"`
	AccumulationSmoothed bool                 `json:"accumulation_smoothed"`
	Activity             []ActivitySeries     `json:"activity"`
	Periods              []PeriodIndicator    `json:"periods"`
	Warnings             []DataQualityWarning `json:"warnings,omitempty"`
}

// BuildReport runs the full pipeline for one filter state: resolve the
// active subset, deduplicate, then derive every output table. Occupancy
// goes through occSrc so callers can swap in the precomputed fast path;
// passing nil uses the live source for everything.
func BuildReport(live *LiveComputationSource, occSrc StatsSource, fc FilterContext, opts ReportOptions) (*Report, error) {
	if occSrc == nil {
		occSrc = live
	}

	subset := live.Resolve(fc)
	dedup, err := Dedupe(subset.Observations, fc.IntervalMagnitude, fc.IntervalUnit)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:  uuid.New().String(),
		Filter: fc,
	}
	if dedup.Warning != nil {
		report.Warnings = append(report.Warnings, *dedup.Warning)
	}

	occ, occWarning, err := occSrc.SpeciesOccupancy(fc)
	if err != nil {
		return nil, err
	}
	if occWarning != nil {
		report.Warnings = append(report.Warnings, *occWarning)
	}
	report.Occupancy = occ

	report.Species = RankSpecies(subset.Observations, dedup.Events, subset.TotalSites())
	report.Accumulation, report.AccumulationSmoothed = AccumulationCurve(dedup.Events, opts.Smooth)
	report.Activity = ActivityPatterns(dedup.Events, opts.TopSpecies)
	report.Periods = Consolidate(subset.Summaries, dedup.Events, opts.IncludeConsolidated)

	return report, nil
}
