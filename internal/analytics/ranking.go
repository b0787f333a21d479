package analytics

import "sort"

// RankedSpecies is one row of the ranked species table: raw image count,
// independent events after deduplication, and spatial spread.
type RankedSpecies struct {
	Rank              int      `json:"rank"`
	Species           string   `json:"species"`
	TaxonClass        string   `json:"taxon_class"`
	ImageCount        int      `json:"image_count"`
	IndependentEvents int      `json:"independent_events"`
	OccupancyPct      *float64 `json:"occupancy_pct"`
}

// RankSpecies builds the ranked species table from the raw observations
// (image counts) and the deduplicated independent events. Species are
// ordered by independent-event count, ties broken alphabetically.
func RankSpecies(raw []ObservationRecord, events []IndependentEvent, totalSites int) []RankedSpecies {
	images := make(map[string]int)
	classes := make(map[string]string)
	for _, r := range raw {
		if !r.Identified() {
			continue
		}
		images[r.SpeciesBinomial]++
		classes[r.SpeciesBinomial] = r.TaxonClass
	}

	occ := Occupancy(events, totalSites)
	rows := make([]RankedSpecies, 0, len(occ))
	for _, o := range occ {
		row := RankedSpecies{
			Species:           o.Species,
			TaxonClass:        classes[o.Species],
			ImageCount:        images[o.Species],
			IndependentEvents: o.EventCount,
		}
		if o.NaiveOccupancy != nil {
			pct := *o.NaiveOccupancy * 100
			row.OccupancyPct = &pct
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].IndependentEvents != rows[j].IndependentEvents {
			return rows[i].IndependentEvents > rows[j].IndependentEvents
		}
		return rows[i].Species < rows[j].Species
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
