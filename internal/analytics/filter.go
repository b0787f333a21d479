package analytics

import "sort"

// AllSentinel tags aggregate rows in precomputed tables and marks an
// "everything" selection in a FilterContext.
const AllSentinel = "ALL"

// FilterContext is the complete filter state of one session: which
// organizational scopes and sampling events are selected, and the
// independence interval for deduplication. It is an explicit value passed
// into every computation; the engine keeps no ambient filter state.
type FilterContext struct {
	Scopes            []string `json:"scopes"` // empty or containing ALL = aggregate
	Events            []string `json:"events"`
	IntervalMagnitude float64  `json:"interval_magnitude"`
	IntervalUnit      string   `json:"interval_unit"`
}

// singleSelection reports whether the selection names exactly one concrete
// value (not empty, not the ALL sentinel, not multiple).
func singleSelection(vals []string) (string, bool) {
	if len(vals) == 1 && vals[0] != "" && vals[0] != AllSentinel {
		return vals[0], true
	}
	return "", false
}

// resolveIndices applies the two-valued selection logic shared by the
// precomputed and live paths and returns the indices of the matching rows.
//
// A dimension with exactly one concrete value selected filters on that
// value. Any other selection (none, ALL, multiple) selects the aggregate:
// rows tagged with the ALL sentinel when the table carries tagged aggregate
// rows (tagged=true, precomputed tables), or every row otherwise (raw
// tables). An empty intersection falls back to the global ALL-by-ALL
// subset instead of returning nothing.
//
// Both StatsSource implementations go through this one function so the fast
// and live paths cannot diverge for the same filter state.
func resolveIndices(n int, scopeOf, eventOf func(int) string, fc FilterContext, tagged bool) []int {
	scopeVal, scopeSingle := singleSelection(fc.Scopes)
	eventVal, eventSingle := singleSelection(fc.Events)

	match := func(i int) bool {
		switch {
		case scopeSingle:
			if scopeOf(i) != scopeVal {
				return false
			}
		case tagged:
			if scopeOf(i) != AllSentinel {
				return false
			}
		}
		switch {
		case eventSingle:
			if eventOf(i) != eventVal {
				return false
			}
		case tagged:
			if eventOf(i) != AllSentinel {
				return false
			}
		}
		return true
	}

	var idxs []int
	for i := 0; i < n; i++ {
		if match(i) {
			idxs = append(idxs, i)
		}
	}
	if len(idxs) > 0 {
		return idxs
	}

	// Global fallback: the ALL-by-ALL aggregate rows, or the whole table
	// when there is no sentinel tagging.
	for i := 0; i < n; i++ {
		if !tagged || (scopeOf(i) == AllSentinel && eventOf(i) == AllSentinel) {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

// StatsSource yields filter-resolved occupancy statistics. The precomputed
// and live implementations must be interchangeable for the same filter
// state.
type StatsSource interface {
	SpeciesOccupancy(fc FilterContext) ([]SpeciesOccupancy, *DataQualityWarning, error)
}

// LiveComputationSource computes statistics on the fly from the raw
// observation and deployment-summary tables (the slow path).
type LiveComputationSource struct {
	Data Dataset
}

// Resolve returns the subset of the dataset active under the filter.
func (s *LiveComputationSource) Resolve(fc FilterContext) Dataset {
	obsIdx := resolveIndices(len(s.Data.Observations),
		func(i int) string { return s.Data.Observations[i].Scope },
		func(i int) string { return s.Data.Observations[i].EventID },
		fc, false)
	sumIdx := resolveIndices(len(s.Data.Summaries),
		func(i int) string { return s.Data.Summaries[i].Scope },
		func(i int) string { return s.Data.Summaries[i].EventID },
		fc, false)

	out := Dataset{
		Observations: make([]ObservationRecord, 0, len(obsIdx)),
		Summaries:    make([]DeploymentSummary, 0, len(sumIdx)),
	}
	for _, i := range obsIdx {
		out.Observations = append(out.Observations, s.Data.Observations[i])
	}
	for _, i := range sumIdx {
		out.Summaries = append(out.Summaries, s.Data.Summaries[i])
	}
	return out
}

// SpeciesOccupancy deduplicates the resolved observations and derives
// occupancy live.
func (s *LiveComputationSource) SpeciesOccupancy(fc FilterContext) ([]SpeciesOccupancy, *DataQualityWarning, error) {
	subset := s.Resolve(fc)
	res, err := Dedupe(subset.Observations, fc.IntervalMagnitude, fc.IntervalUnit)
	if err != nil {
		return nil, nil, err
	}
	return Occupancy(res.Events, subset.TotalSites()), res.Warning, nil
}

// PrecomputedStat is one row of the precomputed occupancy table: one
// species within one (scope, event) cell, where either dimension may carry
// the ALL sentinel for aggregate rows.
type PrecomputedStat struct {
	Scope              string   `json:"scope"`
	Event              string   `json:"event"`
	Species            string   `json:"species"`
	TaxonClass         string   `json:"taxon_class"`
	OccupiedSites      int      `json:"occupied_sites"`
	EventCount         int      `json:"independent_events"`
	NaiveOccupancy     *float64 `json:"naive_occupancy"`
	DetectionFrequency float64  `json:"detection_frequency"`
}

// PrecomputedStatsSource serves occupancy from a precomputed table (the
// fast path). The table is built once and never mutated; rebuilds replace
// the whole source.
type PrecomputedStatsSource struct {
	Rows []PrecomputedStat
}

// SpeciesOccupancy selects the precomputed rows for the filter state. The
// output shape matches the live path exactly.
func (s *PrecomputedStatsSource) SpeciesOccupancy(fc FilterContext) ([]SpeciesOccupancy, *DataQualityWarning, error) {
	idxs := resolveIndices(len(s.Rows),
		func(i int) string { return s.Rows[i].Scope },
		func(i int) string { return s.Rows[i].Event },
		fc, true)

	rows := make([]SpeciesOccupancy, 0, len(idxs))
	for _, i := range idxs {
		r := s.Rows[i]
		rows = append(rows, SpeciesOccupancy{
			Species:            r.Species,
			TaxonClass:         r.TaxonClass,
			OccupiedSites:      r.OccupiedSites,
			EventCount:         r.EventCount,
			NaiveOccupancy:     r.NaiveOccupancy,
			DetectionFrequency: r.DetectionFrequency,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Species < rows[j].Species })
	return rows, nil, nil
}
