package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-co-op/gocron"

	"climate-coverage/internal/archive"
	"climate-coverage/internal/config"
	"climate-coverage/internal/models"
	"climate-coverage/internal/repository"
	"climate-coverage/internal/services"
	"climate-coverage/pkg/database"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
	"climate-coverage/pkg/retry"
)

func main() {
	// Parse command-line flags
	stationsFlag := flag.String("stations", "", "Comma-separated station ids (overrides configuration)")
	datasetFlag := flag.String("dataset", "", "Dataset key (overrides configuration)")
	syncStations := flag.Bool("sync-stations", false, "Refresh the station directory before ingesting")
	exportDir := flag.String("export-dir", "", "Write timeframe documents to this directory after ingesting")
	withRows := flag.Bool("export-rows", false, "Include bordering rows in exported timeframe documents")
	schedule := flag.String("schedule", "", "Cron expression for repeated runs (overrides configuration)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("climate-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()

	stationIDs, err := resolveStations(*stationsFlag, cfg.Ingestion.Stations)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Invalid stations flag", logging.Fields{
			"stations": *stationsFlag,
		}, err)
	}

	datasets, err := resolveDatasets(*datasetFlag, cfg.Ingestion.Datasets)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Invalid dataset selection", logging.Fields{
			"dataset": *datasetFlag,
		}, err)
	}

	logger.Info(ctx, "[INGESTER_START] Starting climate data ingestion", logging.Fields{
		"version":  "1.0.0",
		"stations": len(stationIDs),
		"datasets": len(datasets),
		"archive":  cfg.Archive.Host,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("climate_ingester")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	if err := os.MkdirAll(cfg.Archive.WorkDir, 0o755); err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to create work directory", logging.Fields{
			"work_dir": cfg.Archive.WorkDir,
		}, err)
	}

	// Initialize repositories and archive client
	stationRepo := repository.NewStationRepository(db, logger, metricsCollector)
	readingRepo := repository.NewReadingRepository(db, logger, metricsCollector)
	archiveClient := archive.NewClient(
		cfg.Archive.Host,
		retry.Fixed(cfg.Archive.RetryAttempts, cfg.Archive.RetryDelay),
		logger,
		metricsCollector,
	)

	// Initialize services
	ingestionService := services.NewIngestionService(archiveClient, stationRepo, readingRepo, logger, metricsCollector, cfg.Archive.WorkDir)
	syncService := services.NewStationSyncService(archiveClient, stationRepo, readingRepo, logger, metricsCollector)
	timeframeService := services.NewTimeframeService(readingRepo, logger, metricsCollector)

	if err := syncService.RefreshCalendar(ctx); err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to refresh calendar table", logging.Fields{}, err)
	}

	run := func() {
		runIngestion(ctx, logger, ingestionService, syncService, timeframeService, datasets, stationIDs, *syncStations, *exportDir, *withRows)
	}

	cronExpr := cfg.Ingestion.Schedule
	if *schedule != "" {
		cronExpr = *schedule
	}

	if cronExpr == "" {
		run()
		return
	}

	// Scheduled mode: run on the cron expression until interrupted.
	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Cron(cronExpr).Do(run); err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to schedule ingestion", logging.Fields{
			"schedule": cronExpr,
		}, err)
	}
	scheduler.StartAsync()

	logger.Info(ctx, "[INGESTER_SCHEDULED] Ingestion scheduled", logging.Fields{
		"schedule": cronExpr,
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Stop()
	logger.Info(ctx, "[INGESTER_STOPPED] Scheduler stopped", logging.Fields{})
}

func runIngestion(
	ctx context.Context,
	logger *logging.StructuredLogger,
	ingestionService *services.IngestionService,
	syncService *services.StationSyncService,
	timeframeService *services.TimeframeService,
	datasets []models.Dataset,
	stationIDs []int,
	syncStations bool,
	exportDir string,
	withRows bool,
) {
	start := time.Now()

	for _, ds := range datasets {
		if syncStations {
			count, err := syncService.Sync(ctx, ds)
			if err != nil {
				logger.Error(ctx, "[INGESTER_SYNC_ERROR] Station sync failed", logging.Fields{
					"dataset": ds.Key,
				}, err)
				continue
			}
			fmt.Printf("Synced %d stations for %s\n", count, ds.Key)
		}

		reports, err := ingestionService.IngestStations(ctx, ds, stationIDs)
		if err != nil {
			logger.Error(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
				"dataset": ds.Key,
			}, err)
			continue
		}

		printReports(ds, reports)

		if exportDir != "" {
			for _, report := range reports {
				path := fmt.Sprintf("%s/%s_%05d.json", exportDir, ds.Key, report.StationID)
				if err := timeframeService.Export(ctx, ds, report.StationID, path, withRows); err != nil {
					logger.Error(ctx, "[EXPORT_ERROR] Timeframe export failed", logging.Fields{
						"dataset": ds.Key,
						"station": report.StationID,
						"path":    path,
					}, err)
				}
			}
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion run finished", logging.Fields{
		"duration_seconds": time.Since(start).Seconds(),
	})
}

func printReports(ds models.Dataset, reports []*services.IngestReport) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("INGESTION COMPLETE: %s\n", ds.Key)
	fmt.Println(strings.Repeat("=", 80))
	for _, report := range reports {
		fmt.Printf("Station %5d: %d rows inserted, high-water mark %s\n",
			report.StationID, report.Inserted, report.HighWaterMark)
		for _, file := range report.Files {
			switch {
			case file.Error != "":
				fmt.Printf("  - %s: FAILED (%s)\n", file.Name, file.Error)
			case file.Skipped:
				fmt.Printf("  - %s: skipped, nothing new\n", file.Name)
			default:
				fmt.Printf("  - %s: %d/%d rows inserted, %d dropped\n",
					file.Name, file.Inserted, file.Rows, file.Dropped)
			}
		}
	}
}

func resolveStations(flagValue string, configured []int) ([]int, error) {
	if flagValue == "" {
		if len(configured) == 0 {
			return nil, fmt.Errorf("no stations configured: set ingestion.stations or pass -stations")
		}
		return configured, nil
	}

	var ids []int
	for _, part := range strings.Split(flagValue, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid station id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolveDatasets(flagValue string, configured []string) ([]models.Dataset, error) {
	keys := configured
	if flagValue != "" {
		keys = []string{flagValue}
	}

	var datasets []models.Dataset
	for _, key := range keys {
		ds, ok := models.DatasetByKey(key)
		if !ok {
			return nil, fmt.Errorf("unknown dataset key %q", key)
		}
		datasets = append(datasets, ds)
	}
	return datasets, nil
}
