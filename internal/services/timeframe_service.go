package services

import (
	"context"
	"fmt"

	"climate-coverage/internal/models"
	"climate-coverage/internal/repository"
	"climate-coverage/internal/timeframes"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// TimeframeService segments a station's stored series into timeframes and
// exports the diagnostic document.
type TimeframeService struct {
	readings repository.ReadingRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewTimeframeService creates a new timeframe service
func NewTimeframeService(readings repository.ReadingRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *TimeframeService {
	return &TimeframeService{
		readings: readings,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Segmentation loads the station's indicator series and computes its
// timeframe cover. With withRows set, each frame is annotated with the stored
// rows bordering its To endpoint.
func (s *TimeframeService) Segmentation(ctx context.Context, ds models.Dataset, stationID int, withRows bool) ([]timeframes.Timeframe, error) {
	rows, err := s.readings.IndicatorRows(ctx, ds, stationID)
	if err != nil {
		return nil, err
	}

	timer := s.metrics.NewTimer(s.metrics.SegmentationDuration)
	frames, err := timeframes.Segment(rows)
	timer.ObserveDuration()
	if err != nil {
		return nil, err
	}
	s.metrics.TimeframesPerSeries.Observe(float64(len(frames)))

	if withRows {
		for i := range frames {
			bordering, err := s.readings.BorderingRows(ctx, ds, stationID, frames[i].To.Compact())
			if err != nil {
				return nil, fmt.Errorf("failed to fetch bordering rows: %w", err)
			}
			frames[i].Rows = bordering
		}
	}

	s.logger.Info(ctx, "[TIMEFRAMES] Series segmented", logging.Fields{
		"station":    stationID,
		"dataset":    ds.Key,
		"rows":       len(rows),
		"timeframes": len(frames),
	})
	return frames, nil
}

// Export segments the station's series and writes the timeframe document to
// path.
func (s *TimeframeService) Export(ctx context.Context, ds models.Dataset, stationID int, path string, withRows bool) error {
	frames, err := s.Segmentation(ctx, ds, stationID, withRows)
	if err != nil {
		return err
	}

	doc := timeframes.NewDocument(ds.Fields, frames, withRows)
	if err := timeframes.ExportFile(path, doc); err != nil {
		return err
	}

	s.logger.Info(ctx, "[TIMEFRAMES_EXPORT] Timeframe document written", logging.Fields{
		"station": stationID,
		"dataset": ds.Key,
		"path":    path,
	})
	return nil
}
