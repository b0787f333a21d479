package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/humboldt-data/fauna.report/internal/analytics"
	"github.com/humboldt-data/fauna.report/internal/api"
	"github.com/humboldt-data/fauna.report/internal/config"
	"github.com/humboldt-data/fauna.report/internal/db"
)

var (
	configPath    = flag.String("config", "", "Path to engine config JSON (optional)")
	listen        = flag.String("listen", "", "Listen address (overrides config)")
	dbPath        = flag.String("db", "", "SQLite database path (overrides config)")
	migrationsDir = flag.String("migrations", "internal/db/migrations", "Path to migration files")
)

func main() {
	flag.Parse()

	cfg := config.EmptyEngineConfig()
	if *configPath != "" {
		var err error
		cfg, err = config.LoadEngineConfig(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	addr := cfg.GetListen()
	if *listen != "" {
		addr = *listen
	}
	path := cfg.GetDBPath()
	if *dbPath != "" {
		path = *dbPath
	}

	database, err := db.NewDB(path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	// Subcommands operate on the database and exit.
	if flag.NArg() > 0 {
		if err := runCommand(database, flag.Args()); err != nil {
			log.Fatal(err)
		}
		return
	}

	if needMigrations, err := database.CheckAndPromptMigrations(*migrationsDir); needMigrations || err != nil {
		log.Fatalf("migration check failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	data, err := database.Dataset(ctx)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}
	log.Printf("loaded %d observations across %d deployments",
		len(data.Observations), len(data.Summaries))

	// Prefer the precomputed occupancy fast path when the ETL has
	// populated it; fall back to live computation otherwise.
	var occ analytics.StatsSource
	precomputed, err := database.PrecomputedStats(ctx)
	if err != nil {
		log.Fatalf("failed to load precomputed stats: %v", err)
	}
	if len(precomputed) > 0 {
		occ = &analytics.PrecomputedStatsSource{Rows: precomputed}
		log.Printf("using precomputed occupancy stats (%d rows)", len(precomputed))
	} else {
		log.Print("no precomputed stats found; computing occupancy live")
	}

	opts := analytics.ReportOptions{
		TopSpecies:          cfg.GetTopSpecies(),
		Smooth:              cfg.GetSmoothAccumulation(),
		IncludeConsolidated: cfg.GetIncludeConsolidated(),
	}
	apiServer := api.NewServer(data, occ, opts, cfg.GetIntervalMagnitude(), cfg.GetIntervalUnit())
	defer apiServer.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()

		mux := http.NewServeMux()

		// admin debugging routes (accessible only in dev mode or over Tailscale)
		database.AttachAdminRoutes(mux)

		mux.Handle("/", apiServer.ServeMux())

		server := &http.Server{
			Addr:    addr,
			Handler: api.LoggingMiddleware(mux),
		}

		go func() {
			log.Printf("listening on %s", addr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("failed to start server: %v", err)
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}

		log.Printf("HTTP server routine stopped")
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

// runCommand handles the migrate subcommands.
func runCommand(database *db.DB, args []string) error {
	if args[0] != "migrate" || len(args) < 2 {
		return fmt.Errorf("unknown command %q (supported: migrate up|down|status|force <version>)", args[0])
	}

	switch args[1] {
	case "up":
		if err := database.MigrateUp(*migrationsDir); err != nil {
			return err
		}
		log.Print("migrations applied")
	case "down":
		if err := database.MigrateDown(*migrationsDir); err != nil {
			return err
		}
		log.Print("rolled back one migration")
	case "status":
		status, err := database.GetMigrationStatus(*migrationsDir)
		if err != nil {
			return err
		}
		for k, v := range status {
			log.Printf("%s: %v", k, v)
		}
	case "force":
		if len(args) < 3 {
			return fmt.Errorf("migrate force requires a version")
		}
		version, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[2], err)
		}
		if err := database.MigrateForce(*migrationsDir, version); err != nil {
			return err
		}
		log.Printf("forced migration version to %d", version)
	default:
		return fmt.Errorf("unknown migrate subcommand %q", args[1])
	}
	return nil
}
