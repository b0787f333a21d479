package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/humboldt-data/fauna.report/internal/analytics"
)

// newTestDB creates a migrated on-disk database in a temp directory.
// On-disk rather than :memory: because the migrate file source and the
// store share the same single connection.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fauna_test.db")
	database, err := NewDB(path)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := database.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	if err := database.MigrateUp("migrations"); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return database
}

func testObservation(deployment, species, class, scope, event string, ts time.Time) analytics.ObservationRecord {
	return analytics.ObservationRecord{
		DeploymentID:    deployment,
		SpeciesBinomial: species,
		TaxonClass:      class,
		Timestamp:       ts,
		Scope:           scope,
		EventID:         event,
		Latitude:        -12.5,
		Longitude:       -69.1,
	}
}
