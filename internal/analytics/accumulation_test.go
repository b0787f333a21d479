package analytics

import (
	"testing"
	"time"
)

func dayObs(dep, species string, day int, hour int) ObservationRecord {
	return obs(dep, species, time.Date(2023, 4, day, hour, 0, 0, 0, time.UTC))
}

func TestAccumulationCurveStepSeries(t *testing.T) {
	events := []IndependentEvent{
		dayObs("S1", "Panthera onca", 10, 8),
		dayObs("S1", "Cuniculus paca", 12, 9),
		dayObs("S2", "Panthera onca", 12, 10), // already seen, no new richness
	}

	points, smoothed := AccumulationCurve(events, false)
	if smoothed {
		t.Fatal("smoothed=true for smooth=false call")
	}
	// Full calendar range 2023-04-10 .. 2023-04-12, including the empty 11th.
	if len(points) != 3 {
		t.Fatalf("got %d points, want 3 calendar days", len(points))
	}

	wantRichness := []float64{1, 1, 2}
	for i, want := range wantRichness {
		if points[i].Richness != want {
			t.Errorf("day %d richness = %v, want %v", i, points[i].Richness, want)
		}
	}
	if !points[1].Date.Equal(time.Date(2023, 4, 11, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("gap day date = %v, want 2023-04-11", points[1].Date)
	}
}

func TestAccumulationCurveMonotonic(t *testing.T) {
	var events []IndependentEvent
	species := []string{"a", "b", "c", "d", "e", "f"}
	for i, sp := range species {
		events = append(events, dayObs("S1", sp, 1+i*3, 12))
	}

	points, _ := AccumulationCurve(events, false)
	for i := 1; i < len(points); i++ {
		if points[i].Richness < points[i-1].Richness {
			t.Fatalf("richness decreased at %d: %v -> %v", i, points[i-1].Richness, points[i].Richness)
		}
	}
}

func TestAccumulationCurveSmoothing(t *testing.T) {
	// Six days of new species: enough positive points for the log fit.
	var events []IndependentEvent
	for i, sp := range []string{"a", "b", "c", "d", "e", "f"} {
		events = append(events, dayObs("S1", sp, 10+i, 12))
	}

	points, smoothed := AccumulationCurve(events, true)
	if !smoothed {
		t.Fatal("expected fitted curve with 6 positive days")
	}
	if len(points) != 6*smoothingOversample {
		t.Errorf("got %d fitted samples, want %d", len(points), 6*smoothingOversample)
	}
	for _, p := range points {
		if p.Richness < 0 {
			t.Errorf("fitted richness %v below zero at day %v", p.Richness, p.DayIndex)
		}
	}
	// Log-linear growth over increasing data must trend upward.
	if points[len(points)-1].Richness <= points[0].Richness {
		t.Errorf("fitted curve not increasing: first=%v last=%v",
			points[0].Richness, points[len(points)-1].Richness)
	}
}

func TestAccumulationCurveSmoothingFallback(t *testing.T) {
	// Only three calendar days: below the minimum for the fit, so the
	// discrete series must come back even though smooth was requested.
	events := []IndependentEvent{
		dayObs("S1", "a", 10, 8),
		dayObs("S1", "b", 11, 8),
		dayObs("S1", "c", 12, 8),
	}

	points, smoothed := AccumulationCurve(events, true)
	if smoothed {
		t.Fatal("expected fallback to discrete series with < 4 positive days")
	}
	if len(points) != 3 {
		t.Errorf("got %d points, want 3", len(points))
	}
}

func TestAccumulationCurveEmptyInput(t *testing.T) {
	points, smoothed := AccumulationCurve(nil, true)
	if points != nil || smoothed {
		t.Errorf("got (%v, %v) for empty input, want (nil, false)", points, smoothed)
	}

	// Unidentified-only input has no richness to accumulate either.
	events := []IndependentEvent{dayObs("S1", "", 10, 8)}
	if points, _ := AccumulationCurve(events, false); points != nil {
		t.Errorf("got %d points for unidentified-only input, want none", len(points))
	}
}
