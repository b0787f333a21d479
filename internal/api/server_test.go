package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/humboldt-data/fauna.report/internal/analytics"
	"github.com/humboldt-data/fauna.report/internal/units"
)

func obs(deployment, species, class, scope, event string, ts time.Time) analytics.ObservationRecord {
	return analytics.ObservationRecord{
		DeploymentID:    deployment,
		SpeciesBinomial: species,
		TaxonClass:      class,
		Timestamp:       ts,
		Scope:           scope,
		EventID:         event,
	}
}

// testDataset covers two corporations across two sampling events with
// enough jaguar records for a KDE activity curve.
func testDataset() analytics.Dataset {
	day1 := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	day3 := day1.AddDate(0, 0, 2)

	return analytics.Dataset{
		Observations: []analytics.ObservationRecord{
			obs("cam-01", "Panthera onca", analytics.ClassMammal, "corp-a", "2023-1", day1.Add(10*time.Hour)),
			// Burst member 10 minutes later; collapses under the default window.
			obs("cam-01", "Panthera onca", analytics.ClassMammal, "corp-a", "2023-1", day1.Add(10*time.Hour+10*time.Minute)),
			obs("cam-01", "Panthera onca", analytics.ClassMammal, "corp-a", "2023-1", day1.Add(21*time.Hour)),
			obs("cam-01", "Panthera onca", analytics.ClassMammal, "corp-a", "2023-1", day2.Add(4*time.Hour)),
			obs("cam-01", "Panthera onca", analytics.ClassMammal, "corp-a", "2023-1", day3.Add(22*time.Hour)),
			obs("cam-02", "Dasyprocta punctata", analytics.ClassMammal, "corp-a", "2023-1", day1.Add(8*time.Hour)),
			obs("cam-02", "Dasyprocta punctata", analytics.ClassMammal, "corp-a", "2023-1", day2.Add(9*time.Hour)),
			obs("cam-03", "Panthera onca", analytics.ClassMammal, "corp-a", "2023-2", day3.Add(6*time.Hour)),
			obs("cam-04", "Penelope jacquacu", analytics.ClassBird, "corp-b", "2023-1", day1.Add(7*time.Hour)),
			obs("cam-04", "Penelope jacquacu", analytics.ClassBird, "corp-b", "2023-1", day2.Add(7*time.Hour)),
			obs("cam-04", "Penelope jacquacu", analytics.ClassBird, "corp-b", "2023-1", day3.Add(18*time.Hour)),
		},
		Summaries: []analytics.DeploymentSummary{
			{DeploymentID: "cam-01", Scope: "corp-a", EventID: "2023-1", ImageCount: 120, CameraCount: 1, EffortDays: 30, SpeciesTotal: 1, SpeciesMammal: 1},
			{DeploymentID: "cam-02", Scope: "corp-a", EventID: "2023-1", ImageCount: 45, CameraCount: 1, EffortDays: 28, SpeciesTotal: 1, SpeciesMammal: 1},
			{DeploymentID: "cam-03", Scope: "corp-a", EventID: "2023-2", ImageCount: 12, CameraCount: 1, EffortDays: 25, SpeciesTotal: 1, SpeciesMammal: 1},
			{DeploymentID: "cam-04", Scope: "corp-b", EventID: "2023-1", ImageCount: 67, CameraCount: 1, EffortDays: 31, SpeciesTotal: 1, SpeciesBird: 1},
		},
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := NewServer(testDataset(), nil, analytics.ReportOptions{
		TopSpecies:          10,
		Smooth:              false,
		IncludeConsolidated: true,
	}, 30, units.Minutes)
	ts := httptest.NewServer(s.ServeMux())
	t.Cleanup(func() {
		ts.Close()
		s.Close()
	})
	return s, ts
}

func TestShowSpecies(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/species")
	if err != nil {
		t.Fatalf("GET /api/species failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var body speciesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Species) != 3 {
		t.Fatalf("got %d species, want 3", len(body.Species))
	}
	// Jaguar has the most independent events and ranks first.
	if body.Species[0].Species != "Panthera onca" || body.Species[0].Rank != 1 {
		t.Errorf("top species = %+v, want rank-1 Panthera onca", body.Species[0])
	}
}

func TestShowSpeciesFiltered(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/species?scope=corp-b")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var body speciesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Species) != 1 || body.Species[0].Species != "Penelope jacquacu" {
		t.Errorf("corp-b species = %+v, want only Penelope jacquacu", body.Species)
	}
}

func TestShowSpeciesIntervalOverride(t *testing.T) {
	_, ts := newTestServer(t)

	// A one-minute window keeps the 10-minute burst pair as two events.
	resp, err := http.Get(ts.URL + "/api/species?scope=corp-a&event=2023-1&interval=1&interval_unit=minutes")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var body speciesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, sp := range body.Species {
		if sp.Species == "Panthera onca" && sp.IndependentEvents != 5 {
			t.Errorf("jaguar events = %d with 1-minute window, want 5", sp.IndependentEvents)
		}
	}
}

func TestBadIntervalUnit(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/species?interval_unit=fortnights")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestBadIntervalMagnitude(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/species?interval=-5")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/species", "application/json", nil)
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestShowOccupancy(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/occupancy?scope=corp-a&event=2023-1")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var occ []analytics.SpeciesOccupancy
	if err := json.NewDecoder(resp.Body).Decode(&occ); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(occ) != 2 {
		t.Fatalf("got %d occupancy rows, want 2", len(occ))
	}
	// 2 sites in the subset, each species on exactly one.
	for _, o := range occ {
		if o.NaiveOccupancy == nil || *o.NaiveOccupancy != 0.5 {
			t.Errorf("%s occupancy = %v, want 0.5", o.Species, o.NaiveOccupancy)
		}
	}
}

func TestShowAccumulation(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/accumulation?scope=corp-a&event=2023-1")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var body accumulationResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// Three calendar days of sampling.
	if len(body.Points) != 3 {
		t.Errorf("got %d accumulation points, want 3", len(body.Points))
	}
	if body.Smoothed {
		t.Error("smoothing disabled in test options but response says smoothed")
	}
}

func TestShowPeriods(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/periods?scope=corp-a")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var periods []analytics.PeriodIndicator
	if err := json.NewDecoder(resp.Body).Decode(&periods); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// 2023-1, 2023-2 and the consolidated union row.
	if len(periods) != 3 {
		t.Fatalf("got %d periods, want 3", len(periods))
	}
	if periods[2].Period != analytics.ConsolidatedPeriod {
		t.Errorf("last period = %q, want %q", periods[2].Period, analytics.ConsolidatedPeriod)
	}
}

func TestShowConfig(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/config")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()

	var cfg map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if cfg["interval_unit"] != units.Minutes {
		t.Errorf("interval_unit = %v, want minutes", cfg["interval_unit"])
	}
	if cfg["precomputed_stats"] != false {
		t.Errorf("precomputed_stats = %v, want false", cfg["precomputed_stats"])
	}
}

func TestApplyFiltersAndPollReport(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/filters?scope=corp-b", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/filters failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}

	// The recompute is asynchronous; poll until the report lands.
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(ts.URL + "/api/report")
		if err != nil {
			t.Fatalf("GET /api/report failed: %v", err)
		}
		if resp.StatusCode == http.StatusOK {
			var report analytics.Report
			if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
				t.Fatalf("failed to decode report: %v", err)
			}
			resp.Body.Close()
			if len(report.Species) != 1 || report.Species[0].Species != "Penelope jacquacu" {
				t.Errorf("report species = %+v, want only Penelope jacquacu", report.Species)
			}
			return
		}
		resp.Body.Close()
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for session report")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestReportPendingBeforeFirstFilter(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/report")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202 before any filter applied", resp.StatusCode)
	}
}
