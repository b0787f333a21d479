package analytics

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// HillNumber computes the Hill diversity number of order q from raw species
// abundance counts. The boolean result is false when no species has a
// positive count; callers must render a placeholder, never a numeric zero.
//
// q=0 is species richness, q=1 the exponential of Shannon entropy (the
// limit form, which avoids the 0/0 singularity of the general formula), and
// any other q uses (sum p_i^q)^(1/(1-q)).
func HillNumber(counts map[string]int, q float64) (float64, bool) {
	total := 0
	for _, n := range counts {
		if n > 0 {
			total += n
		}
	}
	if total == 0 {
		return 0, false
	}

	props := make([]float64, 0, len(counts))
	for _, n := range counts {
		if n > 0 {
			props = append(props, float64(n)/float64(total))
		}
	}

	switch {
	case q == 0:
		return float64(len(props)), true
	case q == 1:
		return math.Exp(stat.Entropy(props)), true
	default:
		sum := 0.0
		for _, p := range props {
			sum += math.Pow(p, q)
		}
		return math.Pow(sum, 1/(1-q)), true
	}
}

// HillTriplet computes the standard q=0,1,2 triplet reported in the period
// indicator table. ok is false for empty input.
func HillTriplet(counts map[string]int) (h0, h1, h2 float64, ok bool) {
	h0, ok = HillNumber(counts, 0)
	if !ok {
		return 0, 0, 0, false
	}
	h1, _ = HillNumber(counts, 1)
	h2, _ = HillNumber(counts, 2)
	return h0, h1, h2, true
}

// speciesCounts tallies identified independent events per species.
func speciesCounts(events []IndependentEvent) map[string]int {
	counts := make(map[string]int)
	for _, e := range events {
		if e.Identified() {
			counts[e.SpeciesBinomial]++
		}
	}
	return counts
}
