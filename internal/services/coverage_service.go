package services

import (
	"context"

	"climate-coverage/internal/models"
	"climate-coverage/internal/repository"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// CoverageService computes per-year completeness figures and the good-from
// year per measurement field.
type CoverageService struct {
	readings repository.ReadingRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewCoverageService creates a new coverage service
func NewCoverageService(readings repository.ReadingRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CoverageService {
	return &CoverageService{
		readings: readings,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// MissingPerYear reports per-field missing counts per calendar year across
// the station's stored range, newest year first.
func (s *CoverageService) MissingPerYear(ctx context.Context, ds models.Dataset, stationID int) ([]models.YearCoverage, error) {
	timer := s.metrics.NewTimer(s.metrics.CoverageDuration)
	defer timer.ObserveDuration()

	return s.readings.MissingPerYear(ctx, ds, stationID)
}

// GoodFrom determines, per measurement field, the oldest year from which the
// field's data is uninterruptedly usable: walking from the newest year
// backwards, every year with at most tolerance missing units extends the
// usable range, and the first year over tolerance ends the walk. Fields with
// no usable year at all are absent from the result.
func (s *CoverageService) GoodFrom(ctx context.Context, ds models.Dataset, stationID, tolerance int) (map[string]int, error) {
	years, err := s.MissingPerYear(ctx, ds, stationID)
	if err != nil {
		return nil, err
	}

	goodFrom := goodFromYears(ds, years, tolerance)

	s.logger.Debug(ctx, "[COVERAGE_GOOD_FROM] Good-from years computed", logging.Fields{
		"station":   stationID,
		"dataset":   ds.Key,
		"tolerance": tolerance,
		"fields":    len(goodFrom),
	})
	return goodFrom, nil
}

// Report bundles the year table and good-from map for one station.
func (s *CoverageService) Report(ctx context.Context, ds models.Dataset, stationID, tolerance int) (*models.CoverageReport, error) {
	years, err := s.MissingPerYear(ctx, ds, stationID)
	if err != nil {
		return nil, err
	}

	return &models.CoverageReport{
		StationID: stationID,
		Dataset:   ds.Key,
		Years:     years,
		GoodFrom:  goodFromYears(ds, years, tolerance),
	}, nil
}

// goodFromYears walks the newest-first year table once per field. years must
// be ordered descending.
func goodFromYears(ds models.Dataset, years []models.YearCoverage, tolerance int) map[string]int {
	goodFrom := make(map[string]int)
	for i, field := range ds.Fields {
		candidate := 0
		for _, yc := range years {
			if yc.Missing[i] > tolerance {
				break
			}
			candidate = yc.Year
		}
		if candidate != 0 {
			goodFrom[field] = candidate
		}
	}
	return goodFrom
}
