package analytics

import "fmt"

// DataQualityWarning describes a non-fatal input defect the engine recovered
// from via a documented fallback. It travels alongside results rather than
// aborting them, so callers can decide whether to surface a banner.
type DataQualityWarning struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Dropped int    `json:"dropped"` // records excluded or passed through unfiltered
}

func (w *DataQualityWarning) Error() string {
	return fmt.Sprintf("%s: %s (%d records affected)", w.Stage, w.Message, w.Dropped)
}
