package analytics

import "sort"

// SpeciesOccupancy reports how widely and how intensely one species was
// detected across the monitored deployments.
type SpeciesOccupancy struct {
	Species            string   `json:"species"`
	TaxonClass         string   `json:"taxon_class"`
	OccupiedSites      int      `json:"occupied_sites"`
	EventCount         int      `json:"independent_events"`
	NaiveOccupancy     *float64 `json:"naive_occupancy"`     // null when no sites are monitored
	DetectionFrequency float64  `json:"detection_frequency"` // events per occupied site
}

// Occupancy derives per-species naive occupancy and detection frequency
// from the independent-event set. totalSites is the number of monitored
// deployments; with zero sites the occupancy fraction is undefined and left
// null. Rows are ordered by species name.
func Occupancy(events []IndependentEvent, totalSites int) []SpeciesOccupancy {
	type tally struct {
		sites      map[string]struct{}
		events     int
		taxonClass string
	}

	bySpecies := make(map[string]*tally)
	for _, e := range events {
		if !e.Identified() {
			continue
		}
		t := bySpecies[e.SpeciesBinomial]
		if t == nil {
			t = &tally{sites: make(map[string]struct{}), taxonClass: e.TaxonClass}
			bySpecies[e.SpeciesBinomial] = t
		}
		t.sites[e.DeploymentID] = struct{}{}
		t.events++
	}

	rows := make([]SpeciesOccupancy, 0, len(bySpecies))
	for sp, t := range bySpecies {
		row := SpeciesOccupancy{
			Species:       sp,
			TaxonClass:    t.taxonClass,
			OccupiedSites: len(t.sites),
			EventCount:    t.events,
		}
		if totalSites > 0 {
			v := float64(len(t.sites)) / float64(totalSites)
			row.NaiveOccupancy = &v
		}
		// A species present in the event set occupies at least one site.
		row.DetectionFrequency = float64(t.events) / float64(len(t.sites))
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Species < rows[j].Species })
	return rows
}
