package analytics

import "sort"

// ConsolidatedPeriod is the synthetic period id of the all-periods row.
const ConsolidatedPeriod = "CONSOLIDATED"

// PeriodIndicator is one row of the consolidated indicator table. Hill
// numbers are null when the period has no identified observations.
type PeriodIndicator struct {
	Period       string   `json:"period"`
	ImageCount   int      `json:"image_count"`
	CameraCount  int      `json:"camera_count"`
	EffortDays   float64  `json:"effort_days"`
	SpeciesCount int      `json:"species_count"`
	MammalCount  int      `json:"mammal_count"`
	BirdCount    int      `json:"bird_count"`
	Hill0        *float64 `json:"hill0"`
	Hill1        *float64 `json:"hill1"`
	Hill2        *float64 `json:"hill2"`
}

// Consolidate produces one indicator row per sampling period plus, when
// requested and more than one period qualifies, a synthetic CONSOLIDATED
// row for the union of all periods.
//
// Image counts and effort days are additive and summed straight from the
// deployment summaries. Species, mammal, bird and camera counts are
// recomputed as distinct sets over the period's observations: summing the
// per-deployment pre-aggregates would double-count anything present at
// several deployments. The CONSOLIDATED row recomputes the distinct counts
// over the union of observations for the same reason; only its image count
// and effort days are sums of the per-period rows.
//
// Periods whose summed image count is zero are dropped entirely. Callers
// normally pass the deduplicated independent-event set as observations.
func Consolidate(summaries []DeploymentSummary, observations []ObservationRecord, includeConsolidated bool) []PeriodIndicator {
	type effort struct {
		images int
		days   float64
	}
	byPeriod := make(map[string]*effort)
	for _, s := range summaries {
		e := byPeriod[s.EventID]
		if e == nil {
			e = &effort{}
			byPeriod[s.EventID] = e
		}
		e.images += s.ImageCount
		e.days += s.EffortDays
	}

	obsByPeriod := make(map[string][]ObservationRecord)
	for _, o := range observations {
		obsByPeriod[o.EventID] = append(obsByPeriod[o.EventID], o)
	}

	periods := make([]string, 0, len(byPeriod))
	for p, e := range byPeriod {
		if e.images > 0 {
			periods = append(periods, p)
		}
	}
	sort.Strings(periods)

	rows := make([]PeriodIndicator, 0, len(periods)+1)
	var unionObs []ObservationRecord
	totalImages := 0
	totalEffort := 0.0
	for _, p := range periods {
		e := byPeriod[p]
		row := indicatorRow(p, obsByPeriod[p])
		row.ImageCount = e.images
		row.EffortDays = e.days
		rows = append(rows, row)

		unionObs = append(unionObs, obsByPeriod[p]...)
		totalImages += e.images
		totalEffort += e.days
	}

	if includeConsolidated && len(rows) > 1 {
		row := indicatorRow(ConsolidatedPeriod, unionObs)
		row.ImageCount = totalImages
		row.EffortDays = totalEffort
		rows = append(rows, row)
	}

	return rows
}

// indicatorRow recomputes the distinct-set columns and Hill numbers for one
// period (or the consolidated union) from its observations.
func indicatorRow(period string, obs []ObservationRecord) PeriodIndicator {
	species := make(map[string]struct{})
	mammals := make(map[string]struct{})
	birds := make(map[string]struct{})
	cameras := make(map[string]struct{})
	for _, o := range obs {
		cameras[o.DeploymentID] = struct{}{}
		if !o.Identified() {
			continue
		}
		species[o.SpeciesBinomial] = struct{}{}
		switch o.TaxonClass {
		case ClassMammal:
			mammals[o.SpeciesBinomial] = struct{}{}
		case ClassBird:
			birds[o.SpeciesBinomial] = struct{}{}
		}
	}

	row := PeriodIndicator{
		Period:       period,
		CameraCount:  len(cameras),
		SpeciesCount: len(species),
		MammalCount:  len(mammals),
		BirdCount:    len(birds),
	}

	if h0, h1, h2, ok := HillTriplet(speciesCounts(obs)); ok {
		row.Hill0, row.Hill1, row.Hill2 = &h0, &h1, &h2
	}
	return row
}
