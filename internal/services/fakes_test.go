package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"climate-coverage/internal/models"
	"climate-coverage/internal/timeframes"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// one collector per test binary; prometheus rejects duplicate registration
var testMetrics = metrics.NewCollector("services_test")

func testLogger() *logging.StructuredLogger {
	logger := logging.NewStructuredLogger("services-test", "0.0.0", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return logger
}

type markKey struct {
	station int
	dataset string
}

type fakeStationRepo struct {
	stations map[int]*models.Station
	marks    map[markKey]string
}

func newFakeStationRepo(stations ...*models.Station) *fakeStationRepo {
	repo := &fakeStationRepo{
		stations: make(map[int]*models.Station),
		marks:    make(map[markKey]string),
	}
	for _, s := range stations {
		s.Populated = true
		repo.stations[s.ID] = s
	}
	return repo
}

func (r *fakeStationRepo) setMark(stationID int, ds models.Dataset, mark string) {
	r.marks[markKey{stationID, ds.Key}] = mark
}

func (r *fakeStationRepo) mark(stationID int, ds models.Dataset) string {
	if mark, ok := r.marks[markKey{stationID, ds.Key}]; ok {
		return mark
	}
	return models.NeverIngested
}

func (r *fakeStationRepo) Get(ctx context.Context, stationID int, ds models.Dataset) (*models.Station, error) {
	if s, ok := r.stations[stationID]; ok {
		copied := *s
		copied.HighWaterMark = r.mark(stationID, ds)
		return &copied, nil
	}
	empty := models.EmptyStation(stationID)
	empty.HighWaterMark = r.mark(stationID, ds)
	return empty, nil
}

func (r *fakeStationRepo) List(ctx context.Context, ds models.Dataset, limit, offset int) ([]*models.Station, error) {
	var out []*models.Station
	for _, s := range r.stations {
		copied := *s
		copied.HighWaterMark = r.mark(s.ID, ds)
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeStationRepo) UpsertBatch(ctx context.Context, stations []*models.Station) error {
	for _, s := range stations {
		s.Populated = true
		r.stations[s.ID] = s
	}
	return nil
}

func (r *fakeStationRepo) RecordHighWaterMark(ctx context.Context, stationID int, ds models.Dataset, timestamp string) (bool, error) {
	if r.mark(stationID, ds) >= timestamp {
		return false, nil
	}
	r.setMark(stationID, ds, timestamp)
	return true, nil
}

type fakeReadingRepo struct {
	indicators []timeframes.IndicatorRow
	bordering  [][]string
	years      []models.YearCoverage
	inserted   []*models.Reading
	insertErr  error
}

func (r *fakeReadingRepo) InsertBatch(ctx context.Context, ds models.Dataset, readings []*models.Reading) (int, error) {
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	r.inserted = append(r.inserted, readings...)
	return len(readings), nil
}

func (r *fakeReadingRepo) IndicatorRows(ctx context.Context, ds models.Dataset, stationID int) ([]timeframes.IndicatorRow, error) {
	return r.indicators, nil
}

func (r *fakeReadingRepo) BorderingRows(ctx context.Context, ds models.Dataset, stationID int, timestamp string) ([][]string, error) {
	return r.bordering, nil
}

func (r *fakeReadingRepo) MissingPerYear(ctx context.Context, ds models.Dataset, stationID int) ([]models.YearCoverage, error) {
	return r.years, nil
}

func (r *fakeReadingRepo) RefreshYears(ctx context.Context, now time.Time) error {
	return nil
}

// fakeArchive serves listings and zipped product files from memory. FetchFile
// writes a real zip so extraction runs against actual bytes.
type fakeArchive struct {
	files map[string]string // archive name -> product file content
	lists map[string][]string
}

func (a *fakeArchive) List(ctx context.Context, dir, pattern string) ([]string, error) {
	if names, ok := a.lists[pattern]; ok {
		return names, nil
	}
	var names []string
	for name := range a.files {
		names = append(names, name)
	}
	return names, nil
}

func (a *fakeArchive) FetchLines(ctx context.Context, dir, name string) ([]string, error) {
	content, ok := a.files[name]
	if !ok {
		return nil, fmt.Errorf("no such file %s", name)
	}
	return strings.Split(strings.TrimRight(content, "\n"), "\n"), nil
}

func (a *fakeArchive) FetchFile(ctx context.Context, dir, name, destPath string) (int64, error) {
	content, ok := a.files[name]
	if !ok {
		return 0, fmt.Errorf("no such file %s", name)
	}
	if err := writeProductZip(destPath, content); err != nil {
		return 0, err
	}
	info, err := os.Stat(destPath)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
