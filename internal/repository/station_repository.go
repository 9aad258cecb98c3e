package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"climate-coverage/internal/models"
	"climate-coverage/pkg/database"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// StationRepository provides access to the station directory and the
// per-dataset high-water marks
type StationRepository interface {
	// Get fetches one directory entry with the high-water mark of the given
	// dataset. A miss is not an error: callers receive an unpopulated entity
	// and decide policy themselves.
	Get(ctx context.Context, stationID int, ds models.Dataset) (*models.Station, error)

	// List returns directory entries ordered by station id, each carrying
	// the given dataset's high-water mark.
	List(ctx context.Context, ds models.Dataset, limit, offset int) ([]*models.Station, error)

	// UpsertBatch refreshes directory entries from a parsed station list.
	// High-water marks are untouched; they live with the readings, not the
	// directory.
	UpsertBatch(ctx context.Context, stations []*models.Station) error

	// RecordHighWaterMark advances a station's high-water mark for one
	// dataset, creating the mark row on first ingestion. The mark is
	// monotonic: an attempt to lower it is ignored and reported as false.
	RecordHighWaterMark(ctx context.Context, stationID int, ds models.Dataset, timestamp string) (bool, error)
}

// stationRepository implements StationRepository
type stationRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStationRepository creates a new station repository
func NewStationRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) StationRepository {
	return &stationRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

func (r *stationRepository) Get(ctx context.Context, stationID int, ds models.Dataset) (*models.Station, error) {
	query := `
		SELECT s.station, s.name, s.region, s.region_short, s.elevation,
		       s.latitude, s.longitude, s.valid_from, s.valid_to, s.description,
		       COALESCE(m.mark, '1699') AS high_water_mark
		FROM stations s
		LEFT JOIN station_marks m ON m.station = s.station AND m.dataset = $2
		WHERE s.station = $1
	`

	var station models.Station
	err := r.db.GetContext(ctx, "get_station", &station, query, stationID, ds.Key)

	if err == sql.ErrNoRows {
		r.logger.Debug(ctx, "[REPO_GET_STATION] Station not in directory", logging.Fields{
			"station": stationID,
			"dataset": ds.Key,
		})
		// a never-synced station may still have been ingested; its mark row
		// must not be lost just because the directory entry is missing
		empty := models.EmptyStation(stationID)
		var mark string
		err := r.db.GetContext(ctx, "get_station_mark", &mark,
			`SELECT mark FROM station_marks WHERE station = $1 AND dataset = $2`,
			stationID, ds.Key)
		switch {
		case err == sql.ErrNoRows:
		case err != nil:
			return nil, fmt.Errorf("failed to get station mark: %w", err)
		default:
			empty.HighWaterMark = mark
		}
		return empty, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	station.Populated = true
	return &station, nil
}

func (r *stationRepository) List(ctx context.Context, ds models.Dataset, limit, offset int) ([]*models.Station, error) {
	query := `
		SELECT s.station, s.name, s.region, s.region_short, s.elevation,
		       s.latitude, s.longitude, s.valid_from, s.valid_to, s.description,
		       COALESCE(m.mark, '1699') AS high_water_mark
		FROM stations s
		LEFT JOIN station_marks m ON m.station = s.station AND m.dataset = $1
		ORDER BY s.station
		LIMIT $2 OFFSET $3
	`

	var stations []*models.Station
	err := r.db.SelectContext(ctx, "list_stations", &stations, query, ds.Key, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}

	for _, s := range stations {
		s.Populated = true
	}
	return stations, nil
}

func (r *stationRepository) UpsertBatch(ctx context.Context, stations []*models.Station) error {
	if len(stations) == 0 {
		return nil
	}

	timer := time.Now()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations (
			station, name, region, region_short, elevation, latitude, longitude,
			valid_from, valid_to, description, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (station) DO UPDATE SET
			name = EXCLUDED.name,
			region = EXCLUDED.region,
			region_short = EXCLUDED.region_short,
			elevation = EXCLUDED.elevation,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			valid_from = EXCLUDED.valid_from,
			valid_to = EXCLUDED.valid_to,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, s := range stations {
		_, err := stmt.ExecContext(ctx,
			s.ID,
			s.Name,
			s.Region,
			s.RegionShort,
			s.Elevation,
			s.Latitude,
			s.Longitude,
			s.ValidFrom,
			s.ValidTo,
			s.Description,
			now,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert station %d: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info(ctx, "[REPO_UPSERT_STATIONS] Station directory refreshed", logging.Fields{
		"count":       len(stations),
		"duration_ms": time.Since(timer).Milliseconds(),
	})
	return nil
}

func (r *stationRepository) RecordHighWaterMark(ctx context.Context, stationID int, ds models.Dataset, timestamp string) (bool, error) {
	// upsert so the first ingestion persists a mark even before the station
	// is synced into the directory; the WHERE clause keeps it monotonic
	query := `
		INSERT INTO station_marks (station, dataset, mark)
		VALUES ($1, $2, $3)
		ON CONFLICT (station, dataset) DO UPDATE SET mark = EXCLUDED.mark
		WHERE station_marks.mark < EXCLUDED.mark
	`

	result, err := r.db.ExecContext(ctx, "record_high_water_mark", query, stationID, ds.Key, timestamp)
	if err != nil {
		return false, fmt.Errorf("failed to record high-water mark: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read update result: %w", err)
	}

	if affected == 0 {
		r.logger.Warn(ctx, "[REPO_HIGH_WATER_MARK] Mark not advanced, stored mark is newer", logging.Fields{
			"station":   stationID,
			"dataset":   ds.Key,
			"timestamp": timestamp,
		})
		return false, nil
	}

	r.logger.Debug(ctx, "[REPO_HIGH_WATER_MARK] High-water mark advanced", logging.Fields{
		"station":   stationID,
		"dataset":   ds.Key,
		"timestamp": timestamp,
	})
	return true, nil
}
