package analytics

import (
	"math"
	"testing"
)

func TestHillNumbersUniform(t *testing.T) {
	counts := map[string]int{"A": 10, "B": 10}

	h0, h1, h2, ok := HillTriplet(counts)
	if !ok {
		t.Fatal("HillTriplet undefined for non-empty counts")
	}
	if h0 != 2 {
		t.Errorf("hill0 = %v, want 2", h0)
	}
	if math.Abs(h1-2) > 1e-9 {
		t.Errorf("hill1 = %v, want 2.0 for uniform distribution", h1)
	}
	if math.Abs(h2-2) > 1e-9 {
		t.Errorf("hill2 = %v, want 2.0 for uniform distribution", h2)
	}
}

func TestHillNumbersSkewedOrdering(t *testing.T) {
	counts := map[string]int{"A": 18, "B": 2}

	h0, h1, h2, ok := HillTriplet(counts)
	if !ok {
		t.Fatal("HillTriplet undefined for non-empty counts")
	}
	if h0 != 2 {
		t.Errorf("hill0 = %v, want 2", h0)
	}
	if !(h1 < h0) {
		t.Errorf("want hill1 < hill0 for skewed counts, got h0=%v h1=%v", h0, h1)
	}
	if !(h2 < h1) {
		t.Errorf("want hill2 < hill1 for skewed counts, got h1=%v h2=%v", h1, h2)
	}
}

func TestHillNumberSimpson(t *testing.T) {
	// q=2 has a closed form: 1 / sum(p_i^2).
	counts := map[string]int{"A": 18, "B": 2}
	p := []float64{0.9, 0.1}
	want := 1 / (p[0]*p[0] + p[1]*p[1])

	h2, ok := HillNumber(counts, 2)
	if !ok {
		t.Fatal("HillNumber undefined")
	}
	if math.Abs(h2-want) > 1e-9 {
		t.Errorf("hill2 = %v, want %v", h2, want)
	}
}

func TestHillNumberShannonLimit(t *testing.T) {
	counts := map[string]int{"A": 18, "B": 2}
	want := math.Exp(-(0.9*math.Log(0.9) + 0.1*math.Log(0.1)))

	h1, ok := HillNumber(counts, 1)
	if !ok {
		t.Fatal("HillNumber undefined")
	}
	if math.Abs(h1-want) > 1e-9 {
		t.Errorf("hill1 = %v, want %v", h1, want)
	}
}

func TestHillNumberUndefinedForEmptyInput(t *testing.T) {
	for _, counts := range []map[string]int{nil, {}, {"A": 0}} {
		if v, ok := HillNumber(counts, 1); ok {
			t.Errorf("HillNumber(%v, 1) = %v, want undefined", counts, v)
		}
	}
}

func TestHillNumberDropsZeroCounts(t *testing.T) {
	// A zero-count species must not affect richness.
	counts := map[string]int{"A": 5, "B": 5, "C": 0}

	h0, ok := HillNumber(counts, 0)
	if !ok {
		t.Fatal("HillNumber undefined")
	}
	if h0 != 2 {
		t.Errorf("hill0 = %v, want 2 (zero counts dropped)", h0)
	}
}

func TestHillNumberSingleSpecies(t *testing.T) {
	counts := map[string]int{"A": 7}

	h0, h1, h2, ok := HillTriplet(counts)
	if !ok {
		t.Fatal("HillTriplet undefined")
	}
	if h0 != 1 || math.Abs(h1-1) > 1e-9 || math.Abs(h2-1) > 1e-9 {
		t.Errorf("single species triplet = (%v, %v, %v), want (1, 1, 1)", h0, h1, h2)
	}
}
