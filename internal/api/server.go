// Package api serves the biodiversity report over HTTP. Stateless endpoints
// compute a fresh report per request; the filter/report pair drives a
// cancellable background session so a dashboard can fire rapid filter
// changes and poll for the newest result.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/humboldt-data/fauna.report/internal/analytics"
	"github.com/humboldt-data/fauna.report/internal/units"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	live *analytics.LiveComputationSource
	occ  analytics.StatsSource
	opts analytics.ReportOptions

	defaultMagnitude float64
	defaultUnit      string

	session *analytics.Session

	mu        sync.RWMutex
	latest    *analytics.Report
	latestErr error
}

// NewServer builds a server over an immutable dataset. occ may be nil, in
// which case occupancy always computes live.
func NewServer(data analytics.Dataset, occ analytics.StatsSource, opts analytics.ReportOptions, magnitude float64, unit string) *Server {
	s := &Server{
		live:             &analytics.LiveComputationSource{Data: data},
		occ:              occ,
		opts:             opts,
		defaultMagnitude: magnitude,
		defaultUnit:      unit,
		session:          analytics.NewSession(data, occ, opts),
	}
	go s.consumeResults()
	return s
}

// consumeResults caches the newest session outcome for /api/report polling.
func (s *Server) consumeResults() {
	for out := range s.session.Results() {
		s.mu.Lock()
		s.latest = out.Report
		s.latestErr = out.Err
		s.mu.Unlock()
	}
}

// Close shuts down the background session.
func (s *Server) Close() {
	s.session.Close()
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/species", s.showSpecies)
	mux.HandleFunc("/api/occupancy", s.showOccupancy)
	mux.HandleFunc("/api/accumulation", s.showAccumulation)
	mux.HandleFunc("/api/activity", s.showActivity)
	mux.HandleFunc("/api/periods", s.showPeriods)
	mux.HandleFunc("/api/filters", s.applyFilters)
	mux.HandleFunc("/api/report", s.showReport)
	mux.HandleFunc("/api/config", s.showConfig)
	mux.HandleFunc("/debug/charts/activity", s.activityChart)
	mux.HandleFunc("/debug/charts/accumulation", s.accumulationChart)
	mux.HandleFunc("/debug/charts/occupancy", s.occupancyChart)
	mux.HandleFunc("/debug/charts/", s.chartsDashboard)
	return mux
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// filterFromQuery builds a FilterContext from scope/event query params.
// Repeated params select multiple values; absent params mean unfiltered.
// interval and interval_unit override the configured dedup window.
func (s *Server) filterFromQuery(r *http.Request) (analytics.FilterContext, error) {
	q := r.URL.Query()
	fc := analytics.FilterContext{
		Scopes:            q["scope"],
		Events:            q["event"],
		IntervalMagnitude: s.defaultMagnitude,
		IntervalUnit:      s.defaultUnit,
	}
	if v := q.Get("interval"); v != "" {
		mag, err := strconv.ParseFloat(v, 64)
		if err != nil || mag < 0 {
			return fc, fmt.Errorf("invalid 'interval' parameter %q", v)
		}
		fc.IntervalMagnitude = mag
	}
	if v := q.Get("interval_unit"); v != "" {
		fc.IntervalUnit = v
	}
	return fc, nil
}

// buildReport runs the full pipeline for a stateless GET endpoint.
func (s *Server) buildReport(r *http.Request) (*analytics.Report, int, error) {
	fc, err := s.filterFromQuery(r)
	if err != nil {
		return nil, http.StatusBadRequest, err
	}
	report, err := analytics.BuildReport(s.live, s.occ, fc, s.opts)
	if err != nil {
		// A bad interval unit is a client error, not a server fault.
		var cfgErr *units.ConfigError
		if errors.As(err, &cfgErr) {
			return nil, http.StatusBadRequest, err
		}
		return nil, http.StatusInternalServerError, err
	}
	return report, http.StatusOK, nil
}

func (s *Server) serveReportSection(w http.ResponseWriter, r *http.Request, section func(*analytics.Report) interface{}) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	report, status, err := s.buildReport(r)
	if err != nil {
		s.writeJSONError(w, status, err.Error())
		return
	}

	if err := json.NewEncoder(w).Encode(section(report)); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write response")
		return
	}
}

type speciesResponse struct {
	Species  []analytics.RankedSpecies      `json:"species"`
	Warnings []analytics.DataQualityWarning `json:"warnings,omitempty"`
}

func (s *Server) showSpecies(w http.ResponseWriter, r *http.Request) {
	s.serveReportSection(w, r, func(rep *analytics.Report) interface{} {
		return speciesResponse{Species: rep.Species, Warnings: rep.Warnings}
	})
}

func (s *Server) showOccupancy(w http.ResponseWriter, r *http.Request) {
	s.serveReportSection(w, r, func(rep *analytics.Report) interface{} {
		return rep.Occupancy
	})
}

type accumulationResponse struct {
	Points   []analytics.AccumulationPoint `json:"points"`
	Smoothed bool                          `json:"smoothed"`
}

func (s *Server) showAccumulation(w http.ResponseWriter, r *http.Request) {
	s.serveReportSection(w, r, func(rep *analytics.Report) interface{} {
		return accumulationResponse{Points: rep.Accumulation, Smoothed: rep.AccumulationSmoothed}
	})
}

func (s *Server) showActivity(w http.ResponseWriter, r *http.Request) {
	s.serveReportSection(w, r, func(rep *analytics.Report) interface{} {
		return rep.Activity
	})
}

func (s *Server) showPeriods(w http.ResponseWriter, r *http.Request) {
	s.serveReportSection(w, r, func(rep *analytics.Report) interface{} {
		return rep.Periods
	})
}

// applyFilters pushes a new filter state into the background session. The
// response acknowledges the request only; the recompute is asynchronous and
// a newer filter may supersede it before it finishes.
func (s *Server) applyFilters(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	fc, err := s.filterFromQuery(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.session.Apply(fc)

	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "accepted",
		"session": s.session.ID,
	})
}

// showReport returns the newest completed session report, or 202 while the
// first recompute is still in flight.
func (s *Server) showReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.mu.RLock()
	report, err := s.latest, s.latestErr
	s.mu.RUnlock()

	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Recompute failed: %v", err))
		return
	}
	if report == nil {
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "pending"})
		return
	}

	if err := json.NewEncoder(w).Encode(report); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write report")
		return
	}
}

func (s *Server) showConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		s.writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	config := map[string]interface{}{
		"interval_magnitude":   s.defaultMagnitude,
		"interval_unit":        s.defaultUnit,
		"top_species":          s.opts.TopSpecies,
		"smooth_accumulation":  s.opts.Smooth,
		"include_consolidated": s.opts.IncludeConsolidated,
		"precomputed_stats":    s.occ != nil,
	}

	if err := json.NewEncoder(w).Encode(config); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, "Failed to write config")
		return
	}
}
