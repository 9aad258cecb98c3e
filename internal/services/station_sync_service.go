package services

import (
	"context"
	"fmt"
	"time"

	"climate-coverage/internal/archive"
	"climate-coverage/internal/models"
	"climate-coverage/internal/repository"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// StationSyncService refreshes the local station directory from the archive's
// station description lists.
type StationSyncService struct {
	archive  ArchiveBrowser
	stations repository.StationRepository
	readings repository.ReadingRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewStationSyncService creates a new station sync service
func NewStationSyncService(archiveClient ArchiveBrowser, stations repository.StationRepository, readings repository.ReadingRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StationSyncService {
	return &StationSyncService{
		archive:  archiveClient,
		stations: stations,
		readings: readings,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Sync downloads the dataset's station list and upserts the directory.
// Returns the number of entries processed.
func (s *StationSyncService) Sync(ctx context.Context, ds models.Dataset) (int, error) {
	lines, err := s.archive.FetchLines(ctx, ds.ArchivePath, ds.StationListFile)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch station list: %w", err)
	}

	stations := archive.ParseStationList(lines)
	if len(stations) == 0 {
		return 0, fmt.Errorf("station list %s yielded no entries", ds.StationListFile)
	}

	if err := s.stations.UpsertBatch(ctx, stations); err != nil {
		return 0, err
	}

	s.logger.Info(ctx, "[STATION_SYNC] Station directory synced", logging.Fields{
		"dataset":  ds.Key,
		"stations": len(stations),
	})
	return len(stations), nil
}

// RefreshCalendar rebuilds the year helper table used by coverage queries.
// Run it once per process start; the table only changes at year boundaries
// and as the current year accrues days.
func (s *StationSyncService) RefreshCalendar(ctx context.Context) error {
	return s.readings.RefreshYears(ctx, time.Now().UTC())
}
