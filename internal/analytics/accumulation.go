package analytics

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/humboldt-data/fauna.report/internal/monitoring"
	"github.com/humboldt-data/fauna.report/internal/timeutil"
)

// AccumulationPoint is one sample of the species-accumulation curve.
// DayIndex counts elapsed days from the first sampling day; for the fitted
// curve it takes fractional values.
type AccumulationPoint struct {
	Date     time.Time `json:"date"`
	DayIndex float64   `json:"day_index"`
	Richness float64   `json:"richness"`
}

// Minimum number of non-zero richness days required before attempting the
// log-linear fit. Below this the OLS solution is meaningless.
const minSmoothingPoints = 4

// Fitted curves are resampled at three times the day count so the
// presentation layer can draw them smoothly.
const smoothingOversample = 3

// AccumulationCurve builds cumulative species richness over the full
// calendar-day range spanned by the independent events. The discrete series
// is a non-decreasing step function, including days without detections.
//
// With smooth set, a log-linear model richness = a*ln(day+1) + b is fitted
// by ordinary least squares over the days with positive richness and
// resampled at higher resolution, clipped at zero from below. If fewer than
// minSmoothingPoints qualify or the fit degenerates, the discrete series is
// returned instead; smoothing never fails the call. The second return value
// reports whether the fitted curve was used.
func AccumulationCurve(events []IndependentEvent, smooth bool) ([]AccumulationPoint, bool) {
	newSpecies := make(map[time.Time]map[string]struct{})
	var min, max time.Time
	for _, e := range events {
		if !e.Identified() || e.Timestamp.IsZero() {
			continue
		}
		day := timeutil.DayFloor(e.Timestamp)
		if min.IsZero() || day.Before(min) {
			min = day
		}
		if max.IsZero() || day.After(max) {
			max = day
		}
		set := newSpecies[day]
		if set == nil {
			set = make(map[string]struct{})
			newSpecies[day] = set
		}
		set[e.SpeciesBinomial] = struct{}{}
	}
	if min.IsZero() {
		return nil, false
	}

	days := timeutil.DayRange(min, max)
	seen := make(map[string]struct{})
	steps := make([]AccumulationPoint, 0, len(days))
	for i, day := range days {
		for sp := range newSpecies[day] {
			seen[sp] = struct{}{}
		}
		steps = append(steps, AccumulationPoint{
			Date:     day,
			DayIndex: float64(i),
			Richness: float64(len(seen)),
		})
	}

	if !smooth {
		return steps, false
	}

	fitted, ok := fitLogCurve(steps, min)
	if !ok {
		return steps, false
	}
	return fitted, true
}

// fitLogCurve fits richness = alpha + beta*ln(day+1) over the positive
// steps and resamples it across the full day range.
func fitLogCurve(steps []AccumulationPoint, start time.Time) ([]AccumulationPoint, bool) {
	var xs, ys []float64
	for _, p := range steps {
		if p.Richness > 0 {
			xs = append(xs, math.Log(p.DayIndex+1))
			ys = append(ys, p.Richness)
		}
	}
	if len(xs) < minSmoothingPoints {
		return nil, false
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) || math.IsInf(alpha, 0) || math.IsInf(beta, 0) {
		monitoring.Quality("accumulation: log-linear fit degenerate, using discrete series")
		return nil, false
	}

	n := len(steps)
	samples := n * smoothingOversample
	span := float64(n - 1)
	points := make([]AccumulationPoint, 0, samples)
	for k := 0; k < samples; k++ {
		t := 0.0
		if samples > 1 {
			t = span * float64(k) / float64(samples-1)
		}
		richness := alpha + beta*math.Log(t+1)
		if richness < 0 {
			richness = 0
		}
		points = append(points, AccumulationPoint{
			Date:     start.Add(time.Duration(t * 24 * float64(time.Hour))),
			DayIndex: t,
			Richness: richness,
		})
	}
	return points, true
}
