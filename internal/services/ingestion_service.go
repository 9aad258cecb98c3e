package services

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"climate-coverage/internal/archive"
	"climate-coverage/internal/models"
	"climate-coverage/internal/repository"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// ArchiveBrowser is the slice of the archive client ingestion needs.
type ArchiveBrowser interface {
	List(ctx context.Context, dir, pattern string) ([]string, error)
	FetchLines(ctx context.Context, dir, name string) ([]string, error)
	FetchFile(ctx context.Context, dir, name, destPath string) (int64, error)
}

// FileResult is the outcome of ingesting one archive file.
type FileResult struct {
	Name     string `json:"name"`
	Skipped  bool   `json:"skipped"`
	Rows     int    `json:"rows"`
	Inserted int    `json:"inserted"`
	Dropped  int    `json:"dropped"`

	// MarkAdvanced reports whether this file moved the station's high-water
	// mark for the ingested dataset.
	MarkAdvanced bool   `json:"mark_advanced"`
	Error        string `json:"error,omitempty"`
}

// IngestReport summarizes one station's ingestion run.
type IngestReport struct {
	StationID     int          `json:"station_id"`
	Dataset       string       `json:"dataset"`
	Files         []FileResult `json:"files"`
	Inserted      int          `json:"inserted"`
	HighWaterMark string       `json:"high_water_mark"`
}

// IngestionService pulls archive files for a station, parses their product
// rows and stores whatever is newer than the station's high-water mark.
type IngestionService struct {
	archive  ArchiveBrowser
	stations repository.StationRepository
	readings repository.ReadingRepository
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
	workDir  string

	now func() time.Time
}

// NewIngestionService creates a new ingestion service. Downloaded archives are
// staged under workDir and removed after processing.
func NewIngestionService(archiveClient ArchiveBrowser, stations repository.StationRepository, readings repository.ReadingRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector, workDir string) *IngestionService {
	return &IngestionService{
		archive:  archiveClient,
		stations: stations,
		readings: readings,
		logger:   logger,
		metrics:  metricsCollector,
		workDir:  workDir,
		now:      time.Now,
	}
}

// IngestStation lists the station's archive files, skips those that cannot
// contain anything newer than the high-water mark, and ingests the rest in
// name order. Per-file failures are reported in the result, not returned:
// one broken archive must not block the others.
func (s *IngestionService) IngestStation(ctx context.Context, ds models.Dataset, stationID int) (*IngestReport, error) {
	timer := s.metrics.NewTimer(s.metrics.IngestionDuration)
	defer timer.ObserveDuration()

	station, err := s.stations.Get(ctx, stationID, ds)
	if err != nil {
		return nil, fmt.Errorf("failed to load station %d: %w", stationID, err)
	}

	names, err := s.archive.List(ctx, ds.ArchivePath, archive.StationMatch(stationID))
	if err != nil {
		return nil, fmt.Errorf("failed to list archive files: %w", err)
	}
	sort.Strings(names)

	report := &IngestReport{StationID: stationID, Dataset: ds.Key}
	for _, name := range names {
		fn, err := archive.ParseFilename(name)
		if err != nil {
			s.metrics.RecordIngestionError("filename")
			s.logger.Warn(ctx, "[INGEST_FILENAME] Skipping unparseable archive filename", logging.Fields{
				"file":  name,
				"error": err.Error(),
			})
			report.Files = append(report.Files, FileResult{Name: name, Error: err.Error()})
			continue
		}

		if !station.ExpectNewData(fn.AvailableThrough(ds.Mode, s.now())) {
			s.logger.Debug(ctx, "[INGEST_SKIP] File holds nothing beyond high-water mark", logging.Fields{
				"file":            name,
				"high_water_mark": station.HighWaterMark,
			})
			report.Files = append(report.Files, FileResult{Name: name, Skipped: true})
			continue
		}

		result := s.ingestFile(ctx, ds, station, name)
		report.Files = append(report.Files, result)
		report.Inserted += result.Inserted
	}

	report.HighWaterMark = station.HighWaterMark
	s.logger.Info(ctx, "[INGEST_STATION] Station ingestion finished", logging.Fields{
		"station":         stationID,
		"dataset":         ds.Key,
		"files":           len(report.Files),
		"inserted":        report.Inserted,
		"high_water_mark": report.HighWaterMark,
	})
	return report, nil
}

// IngestStations runs IngestStation for each id. A failing station is logged
// and does not abort the run.
func (s *IngestionService) IngestStations(ctx context.Context, ds models.Dataset, stationIDs []int) ([]*IngestReport, error) {
	reports := make([]*IngestReport, 0, len(stationIDs))
	for _, id := range stationIDs {
		report, err := s.IngestStation(ctx, ds, id)
		if err != nil {
			s.metrics.RecordIngestionError("station")
			s.logger.Error(ctx, "[INGEST_STATIONS] Station ingestion failed", logging.Fields{
				"station": id,
				"dataset": ds.Key,
			}, err)
			continue
		}
		reports = append(reports, report)
	}
	if len(reports) == 0 && len(stationIDs) > 0 {
		return nil, fmt.Errorf("ingestion failed for all %d stations", len(stationIDs))
	}
	return reports, nil
}

func (s *IngestionService) ingestFile(ctx context.Context, ds models.Dataset, station *models.Station, name string) FileResult {
	result := FileResult{Name: name}

	zipPath := filepath.Join(s.workDir, name)
	if _, err := s.archive.FetchFile(ctx, ds.ArchivePath, name, zipPath); err != nil {
		s.metrics.RecordIngestionError("download")
		result.Error = err.Error()
		return result
	}
	defer os.Remove(zipPath)

	productPath, err := archive.ExtractProduct(zipPath, s.workDir)
	if err != nil {
		s.metrics.RecordIngestionError("extract")
		result.Error = err.Error()
		return result
	}
	defer os.Remove(productPath)

	readings, rows, dropped, err := s.parseProduct(ctx, productPath, ds, station)
	result.Rows = rows
	result.Dropped = dropped
	if err != nil {
		s.metrics.RecordIngestionError("parse")
		result.Error = err.Error()
		return result
	}
	if len(readings) == 0 {
		return result
	}

	inserted, err := s.readings.InsertBatch(ctx, ds, readings)
	if err != nil {
		s.metrics.RecordIngestionError("insert")
		result.Error = err.Error()
		return result
	}
	result.Inserted = inserted
	s.metrics.IngestionReadingsTotal.Add(float64(inserted))

	newest := readings[len(readings)-1].Stamp.Compact()
	if newest > station.HighWaterMark {
		advanced, err := s.stations.RecordHighWaterMark(ctx, station.ID, ds, newest)
		if err != nil {
			s.metrics.RecordIngestionError("high_water_mark")
			result.Error = err.Error()
			return result
		}
		if !advanced {
			// a concurrent run got there first; the rows are stored either way
			s.logger.Warn(ctx, "[INGEST_FILE] High-water mark already past this file", logging.Fields{
				"station": station.ID,
				"dataset": ds.Key,
				"newest":  newest,
			})
		}
		result.MarkAdvanced = advanced
		station.HighWaterMark = newest
	}
	return result
}

// parseProduct reads a semicolon-separated product file. The first line is the
// column header. Malformed rows and rows for a foreign station are dropped
// individually; rows at or below the high-water mark are skipped.
func (s *IngestionService) parseProduct(ctx context.Context, path string, ds models.Dataset, station *models.Station) ([]*models.Reading, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open product file: %w", err)
	}
	defer f.Close()

	var readings []*models.Reading
	rows, dropped := 0, 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	header := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if header {
			header = false
			continue
		}
		if line == "" {
			continue
		}
		rows++

		reading, err := models.ParseReading(strings.Split(line, ";"), ds)
		if err != nil {
			dropped++
			s.metrics.RecordIngestionError("validation")
			s.logger.Warn(ctx, "[INGEST_ROW] Dropping malformed product row", logging.Fields{
				"station": station.ID,
				"error":   err.Error(),
			})
			continue
		}

		if reading.StationID != station.ID {
			dropped++
			s.metrics.RecordIngestionError("integrity")
			integrityErr := &models.DataIntegrityError{
				Expected: station.ID,
				Found:    reading.StationID,
				Stamp:    reading.Stamp.Compact(),
			}
			s.logger.Error(ctx, "[INGEST_ROW] Dropping foreign-station row", logging.Fields{
				"station": station.ID,
			}, integrityErr)
			continue
		}

		if reading.Stamp.Compact() <= station.HighWaterMark {
			s.metrics.IngestionSkippedTotal.Inc()
			continue
		}
		readings = append(readings, reading)
	}
	if err := scanner.Err(); err != nil {
		return nil, rows, dropped, fmt.Errorf("failed reading product file: %w", err)
	}
	return readings, rows, dropped, nil
}
