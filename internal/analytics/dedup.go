package analytics

import (
	"sort"
	"time"

	"github.com/humboldt-data/fauna.report/internal/monitoring"
	"github.com/humboldt-data/fauna.report/internal/units"
)

// DedupResult carries the independent-event set plus any data-quality
// warning raised while producing it. Warning is nil on a clean run.
type DedupResult struct {
	Events  []IndependentEvent
	Warning *DataQualityWarning
}

// Dedupe collapses detection bursts into independent events. Identified
// records are grouped by (deployment, species), sorted chronologically, and
// a record is kept iff it is first in its group or its gap to the previous
// record exceeds the independence interval. Unidentified records are always
// retained verbatim. The original input order is preserved in the output.
//
// An unrecognised interval unit is a fatal ConfigError. Unusable timestamps
// are not: if every identified record lacks a timestamp the input is
// returned unfiltered (fail-open) with a warning, and isolated bad
// timestamps pass the affected record through untouched.
func Dedupe(records []ObservationRecord, magnitude float64, unit string) (DedupResult, error) {
	interval, err := units.IntervalDuration(magnitude, unit)
	if err != nil {
		return DedupResult{}, err
	}

	type groupKey struct {
		deployment string
		species    string
	}

	groups := make(map[groupKey][]int)
	identified := 0
	unparsed := 0
	for i, r := range records {
		if !r.Identified() {
			continue
		}
		identified++
		if r.Timestamp.IsZero() {
			unparsed++
			continue
		}
		k := groupKey{r.DeploymentID, r.SpeciesBinomial}
		groups[k] = append(groups[k], i)
	}

	if identified > 0 && len(groups) == 0 {
		monitoring.Quality("dedup: no usable timestamps among %d identified records, returning input unfiltered", identified)
		return DedupResult{
			Events: records,
			Warning: &DataQualityWarning{
				Stage:   "dedup",
				Message: "timestamps unusable, deduplication skipped",
				Dropped: identified,
			},
		}, nil
	}

	// Everything not subject to temporal logic (unidentified records and
	// identified records without a timestamp) is kept.
	keep := make([]bool, len(records))
	for i, r := range records {
		if !r.Identified() || r.Timestamp.IsZero() {
			keep[i] = true
		}
	}

	for _, idxs := range groups {
		sort.SliceStable(idxs, func(a, b int) bool {
			return records[idxs[a]].Timestamp.Before(records[idxs[b]].Timestamp)
		})
		var prev time.Time
		for pos, i := range idxs {
			ts := records[i].Timestamp
			if pos == 0 || ts.Sub(prev) > interval {
				keep[i] = true
			}
			prev = ts
		}
	}

	events := make([]IndependentEvent, 0, len(records))
	for i, r := range records {
		if keep[i] {
			events = append(events, r)
		}
	}

	var warning *DataQualityWarning
	if unparsed > 0 {
		monitoring.Quality("dedup: %d identified records without usable timestamps passed through", unparsed)
		warning = &DataQualityWarning{
			Stage:   "dedup",
			Message: "records without usable timestamps passed through undeduplicated",
			Dropped: unparsed,
		}
	}

	return DedupResult{Events: events, Warning: warning}, nil
}
