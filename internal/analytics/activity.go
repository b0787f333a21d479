package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/humboldt-data/fauna.report/internal/monitoring"
	"github.com/humboldt-data/fauna.report/internal/timeutil"
)

// Number of samples on the [0,24] hour axis for density curves.
const activitySampleCount = 200

// Species need at least this many events for a density estimate; below it
// the bandwidth degenerates.
const minDensityEvents = 3

// ActivityPoint is one sample of a circadian activity series.
type ActivityPoint struct {
	Hour  float64 `json:"hour"`
	Value float64 `json:"value"`
}

// ActivitySeries is the circadian activity pattern of one species. Density
// reports which path produced it: a kernel density estimate (true) or the
// 24-bin count histogram fallback (false).
type ActivitySeries struct {
	Species    string          `json:"species"`
	EventCount int             `json:"independent_events"`
	Density    bool            `json:"density"`
	Points     []ActivityPoint `json:"points"`
}

// ActivityPatterns estimates per-species activity density over the hour of
// day for the topN species by independent-event count. Species with fewer
// than minDensityEvents events are excluded from the density path. If
// estimation fails for any species the whole top-N set falls back to plain
// 24-bin hour histograms rather than failing the call.
//
// The domain is treated as the bounded interval [0,24], not as circular
// time: density mass near midnight leaks past the domain edges instead of
// wrapping around. This mirrors the upstream analysis.
func ActivityPatterns(events []IndependentEvent, topN int) []ActivitySeries {
	hoursBySpecies := make(map[string][]float64)
	for _, e := range events {
		if !e.Identified() || e.Timestamp.IsZero() {
			continue
		}
		sp := e.SpeciesBinomial
		hoursBySpecies[sp] = append(hoursBySpecies[sp], timeutil.HourOfDay(e.Timestamp))
	}
	if len(hoursBySpecies) == 0 {
		return nil
	}

	ranked := make([]string, 0, len(hoursBySpecies))
	for sp := range hoursBySpecies {
		ranked = append(ranked, sp)
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if len(hoursBySpecies[a]) != len(hoursBySpecies[b]) {
			return len(hoursBySpecies[a]) > len(hoursBySpecies[b])
		}
		return a < b
	})
	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	var series []ActivitySeries
	for _, sp := range ranked {
		hours := hoursBySpecies[sp]
		if len(hours) < minDensityEvents {
			continue
		}
		points, err := kdeCurve(hours)
		if err != nil {
			monitoring.Quality("activity: density estimate failed for %s (%v), falling back to histograms", sp, err)
			return histogramFallback(ranked, hoursBySpecies)
		}
		series = append(series, ActivitySeries{
			Species:    sp,
			EventCount: len(hours),
			Density:    true,
			Points:     points,
		})
	}
	return series
}

// kdeCurve fits a Gaussian kernel density estimate over [0,24] using
// Silverman's rule-of-thumb bandwidth and returns it sampled at
// activitySampleCount points.
func kdeCurve(hours []float64) ([]ActivityPoint, error) {
	n := len(hours)
	sigma := stat.StdDev(hours, nil)
	if sigma == 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("degenerate bandwidth: stddev=%v over %d events", sigma, n)
	}
	bandwidth := 1.06 * sigma * math.Pow(float64(n), -0.2)

	kernel := distuv.Normal{Mu: 0, Sigma: bandwidth}
	points := make([]ActivityPoint, 0, activitySampleCount)
	for i := 0; i < activitySampleCount; i++ {
		x := 24 * float64(i) / float64(activitySampleCount-1)
		density := 0.0
		for _, h := range hours {
			density += kernel.Prob(x - h)
		}
		points = append(points, ActivityPoint{Hour: x, Value: density / float64(n)})
	}
	return points, nil
}

// histogramFallback bins raw event counts per hour for every ranked
// species, including the ones below the density threshold.
func histogramFallback(ranked []string, hoursBySpecies map[string][]float64) []ActivitySeries {
	series := make([]ActivitySeries, 0, len(ranked))
	for _, sp := range ranked {
		hours := hoursBySpecies[sp]
		bins := make([]int, 24)
		for _, h := range hours {
			bin := int(h)
			if bin > 23 {
				bin = 23
			}
			bins[bin]++
		}
		points := make([]ActivityPoint, 24)
		for b, count := range bins {
			points[b] = ActivityPoint{Hour: float64(b), Value: float64(count)}
		}
		series = append(series, ActivitySeries{
			Species:    sp,
			EventCount: len(hours),
			Density:    false,
			Points:     points,
		})
	}
	return series
}
