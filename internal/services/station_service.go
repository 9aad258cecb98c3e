package services

import (
	"context"

	"climate-coverage/internal/models"
	"climate-coverage/internal/repository"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// StationService handles station directory reads for the API
type StationService struct {
	stations repository.StationRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewStationService creates a new station service
func NewStationService(stations repository.StationRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StationService {
	return &StationService{
		stations: stations,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// GetStation retrieves one directory entry carrying the dataset's high-water
// mark. Directory misses come back as an unpopulated entity.
func (s *StationService) GetStation(ctx context.Context, stationID int, ds models.Dataset) (*models.Station, error) {
	return s.stations.Get(ctx, stationID, ds)
}

// ListStations retrieves directory entries ordered by station id, each
// carrying the dataset's high-water mark.
func (s *StationService) ListStations(ctx context.Context, ds models.Dataset, limit, offset int) ([]*models.Station, error) {
	return s.stations.List(ctx, ds, limit, offset)
}
