// Package db is the SQLite store for the biodiversity analytics engine. It
// holds the two read-only input tables produced by the upstream ETL
// (observations and deployment_summary) plus the optional precomputed
// occupancy statistics table, and exposes typed loaders for the analytics
// layer.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	_ "modernc.org/sqlite"

	"github.com/humboldt-data/fauna.report/internal/analytics"
	"github.com/humboldt-data/fauna.report/internal/timeutil"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the SQLite database at path. Schema management
// is migration-driven; call MigrateUp after opening.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows exactly one writer; serialising through a single
	// connection avoids SQLITE_BUSY during ETL loads.
	sqlDB.SetMaxOpenConns(1)
	return &DB{sqlDB}, nil
}

// InsertObservations bulk-loads observation records inside one transaction.
// Used by the ETL collaborator and tests; the analytics layer never writes.
func (db *DB) InsertObservations(ctx context.Context, records []analytics.ObservationRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("warning: failed to rollback transaction: %v", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observations (
			deployment_id, sp_binomial, taxon_class, timestamp,
			scope, event_id, latitude, longitude
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		ts := ""
		if !r.Timestamp.IsZero() {
			ts = r.Timestamp.UTC().Format("2006-01-02 15:04:05")
		}
		if _, err := stmt.ExecContext(ctx,
			r.DeploymentID, r.SpeciesBinomial, r.TaxonClass, ts,
			r.Scope, r.EventID, r.Latitude, r.Longitude,
		); err != nil {
			return fmt.Errorf("failed to insert observation: %w", err)
		}
	}

	return tx.Commit()
}

// Observations loads the full observation table. Unparseable timestamps
// load as zero times; the deduplication engine handles them via its
// fail-open path instead of the load aborting.
func (db *DB) Observations(ctx context.Context) ([]analytics.ObservationRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT deployment_id, sp_binomial, taxon_class, timestamp,
		       scope, event_id, latitude, longitude
		FROM observations
		ORDER BY deployment_id, timestamp
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []analytics.ObservationRecord
	for rows.Next() {
		var r analytics.ObservationRecord
		var ts string
		if err := rows.Scan(
			&r.DeploymentID, &r.SpeciesBinomial, &r.TaxonClass, &ts,
			&r.Scope, &r.EventID, &r.Latitude, &r.Longitude,
		); err != nil {
			return nil, err
		}
		if ts != "" {
			if parsed, err := timeutil.Parse(ts); err == nil {
				r.Timestamp = parsed
			}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// InsertDeploymentSummaries bulk-loads deployment summary rows.
func (db *DB) InsertDeploymentSummaries(ctx context.Context, summaries []analytics.DeploymentSummary) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("warning: failed to rollback transaction: %v", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO deployment_summary (
			deployment_id, scope, event_id, image_count, camera_count,
			effort_days, species_count_total, species_count_mammal,
			species_count_bird, latitude, longitude
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range summaries {
		// Effort from inconsistent sensor metadata can come out negative;
		// clamp rather than reject the row.
		effort := s.EffortDays
		if effort < 0 {
			effort = 0
		}
		if _, err := stmt.ExecContext(ctx,
			s.DeploymentID, s.Scope, s.EventID, s.ImageCount, s.CameraCount,
			effort, s.SpeciesTotal, s.SpeciesMammal, s.SpeciesBird,
			s.Latitude, s.Longitude,
		); err != nil {
			return fmt.Errorf("failed to insert deployment summary: %w", err)
		}
	}

	return tx.Commit()
}

// DeploymentSummaries loads the full deployment summary table.
func (db *DB) DeploymentSummaries(ctx context.Context) ([]analytics.DeploymentSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT deployment_id, scope, event_id, image_count, camera_count,
		       effort_days, species_count_total, species_count_mammal,
		       species_count_bird, latitude, longitude
		FROM deployment_summary
		ORDER BY event_id, deployment_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []analytics.DeploymentSummary
	for rows.Next() {
		var s analytics.DeploymentSummary
		if err := rows.Scan(
			&s.DeploymentID, &s.Scope, &s.EventID, &s.ImageCount, &s.CameraCount,
			&s.EffortDays, &s.SpeciesTotal, &s.SpeciesMammal, &s.SpeciesBird,
			&s.Latitude, &s.Longitude,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return summaries, nil
}

// Dataset loads both input tables as one immutable working set.
func (db *DB) Dataset(ctx context.Context) (analytics.Dataset, error) {
	obs, err := db.Observations(ctx)
	if err != nil {
		return analytics.Dataset{}, fmt.Errorf("failed to load observations: %w", err)
	}
	summaries, err := db.DeploymentSummaries(ctx)
	if err != nil {
		return analytics.Dataset{}, fmt.Errorf("failed to load deployment summaries: %w", err)
	}
	return analytics.Dataset{Observations: obs, Summaries: summaries}, nil
}

// ReplacePrecomputedStats atomically replaces the precomputed statistics
// table. Readers never observe a partially rebuilt table.
func (db *DB) ReplacePrecomputedStats(ctx context.Context, stats []analytics.PrecomputedStat) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			log.Printf("warning: failed to rollback transaction: %v", err)
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM precomputed_stats`); err != nil {
		return fmt.Errorf("failed to clear precomputed stats: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO precomputed_stats (
			scope, event_id, sp_binomial, taxon_class, occupied_sites,
			independent_events, naive_occupancy, detection_frequency
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range stats {
		if _, err := stmt.ExecContext(ctx,
			st.Scope, st.Event, st.Species, st.TaxonClass, st.OccupiedSites,
			st.EventCount, st.NaiveOccupancy, st.DetectionFrequency,
		); err != nil {
			return fmt.Errorf("failed to insert precomputed stat: %w", err)
		}
	}

	return tx.Commit()
}

// PrecomputedStats loads the precomputed statistics table. An empty result
// means no fast path is available and callers should compute live.
func (db *DB) PrecomputedStats(ctx context.Context) ([]analytics.PrecomputedStat, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT scope, event_id, sp_binomial, taxon_class, occupied_sites,
		       independent_events, naive_occupancy, detection_frequency
		FROM precomputed_stats
		ORDER BY scope, event_id, sp_binomial
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []analytics.PrecomputedStat
	for rows.Next() {
		var st analytics.PrecomputedStat
		var naive sql.NullFloat64
		if err := rows.Scan(
			&st.Scope, &st.Event, &st.Species, &st.TaxonClass, &st.OccupiedSites,
			&st.EventCount, &naive, &st.DetectionFrequency,
		); err != nil {
			return nil, err
		}
		if naive.Valid {
			v := naive.Float64
			st.NaiveOccupancy = &v
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// AttachAdminRoutes mounts the live SQL debugging console on mux.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		log.Fatalf("failed to create tailsql server: %v", err)
	}
	tsql.SetDB("sqlite://fauna.db", db.DB, &tailsql.DBOptions{
		Label: "Fauna DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())
}
