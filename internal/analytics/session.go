package analytics

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/humboldt-data/fauna.report/internal/monitoring"
)

// Outcome is the terminal state of one recomputation run.
type Outcome struct {
	Report *Report
	Err    error
}

// Session owns the filter state and derived working set of one user
// session. Applying a filter starts a background recomputation; applying
// another before it finishes cancels the first and discards its result
// (last-request-wins). The underlying Dataset is read-only and may be
// shared across sessions; everything mutable lives inside the Session.
type Session struct {
	ID string

	live *LiveComputationSource
	occ  StatsSource
	opts ReportOptions

	mu      sync.Mutex
	gen     uint64
	cancel  context.CancelFunc
	results chan Outcome
}

// NewSession creates a session over a shared dataset. occ may be nil to
// compute occupancy live.
func NewSession(data Dataset, occ StatsSource, opts ReportOptions) *Session {
	return &Session{
		ID:      uuid.New().String(),
		live:    &LiveComputationSource{Data: data},
		occ:     occ,
		opts:    opts,
		results: make(chan Outcome, 1),
	}
}

// Results delivers the outcome of the newest applied filter. Stale runs
// never publish here.
func (s *Session) Results() <-chan Outcome {
	return s.results
}

// Apply submits a new filter state. Any in-flight recomputation for a
// previous state is cancelled.
func (s *Session) Apply(fc FilterContext) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	go s.run(ctx, gen, fc)
}

// Close cancels any in-flight recomputation.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) run(ctx context.Context, gen uint64, fc FilterContext) {
	report, err := BuildReport(s.live, s.occ, fc, s.opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || ctx.Err() != nil {
		monitoring.Logf("session %s: discarding stale result (generation %d)", s.ID, gen)
		return
	}

	// Replace any undelivered previous outcome so the consumer always sees
	// the newest one.
	select {
	case <-s.results:
	default:
	}
	s.results <- Outcome{Report: report, Err: err}
}
