package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"climate-coverage/internal/models"
	"climate-coverage/internal/timeframes"
	"climate-coverage/internal/timepoint"
	"climate-coverage/pkg/database"
	"climate-coverage/pkg/logging"
	"climate-coverage/pkg/metrics"
)

// ReadingRepository provides access to stored measurement rows
type ReadingRepository interface {
	// InsertBatch stores parsed readings inside one transaction. Rows whose
	// key already exists are skipped, making re-ingestion of overlapping
	// archive files safe. Returns the number of rows actually inserted.
	InsertBatch(ctx context.Context, ds models.Dataset, readings []*models.Reading) (int, error)

	// IndicatorRows returns one row per stored timestamp with a per-field
	// presence pattern ('x' present, '-' NULL), ordered by timestamp.
	IndicatorRows(ctx context.Context, ds models.Dataset, stationID int) ([]timeframes.IndicatorRow, error)

	// BorderingRows returns up to two stored rows at or after the given
	// timestamp, formatted for export.
	BorderingRows(ctx context.Context, ds models.Dataset, stationID int, timestamp string) ([][]string, error)

	// MissingPerYear reports per-field missing counts per calendar year,
	// newest year first, covering the station's full stored range.
	MissingPerYear(ctx context.Context, ds models.Dataset, stationID int) ([]models.YearCoverage, error)

	// RefreshYears rebuilds the calendar helper table. The current year is
	// entered with its elapsed day count only.
	RefreshYears(ctx context.Context, now time.Time) error
}

// readingRepository implements ReadingRepository
type readingRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu        sync.RWMutex
	insertSQL map[string]string
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ReadingRepository {
	return &readingRepository{
		db:        db,
		logger:    logger,
		metrics:   metricsCollector,
		insertSQL: make(map[string]string),
	}
}

// keyColumns returns the non-measurement columns of a dataset's table, in
// insert order.
func keyColumns(ds models.Dataset) []string {
	if ds.Mode == timepoint.Hourly {
		return []string{"station", "ts", "y", "m", "d", "h", "q"}
	}
	return []string{"station", "ts", "y", "m", "d", "q"}
}

func (r *readingRepository) insertStatement(ds models.Dataset) string {
	r.mu.RLock()
	stmt, ok := r.insertSQL[ds.Key]
	r.mu.RUnlock()
	if ok {
		return stmt
	}

	columns := append(keyColumns(ds), ds.Fields...)
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}

	stmt = fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (station, ts) DO NOTHING",
		ds.Table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	r.mu.Lock()
	r.insertSQL[ds.Key] = stmt
	r.mu.Unlock()
	return stmt
}

func (r *readingRepository) InsertBatch(ctx context.Context, ds models.Dataset, readings []*models.Reading) (int, error) {
	if len(readings) == 0 {
		return 0, nil
	}

	timer := time.Now()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.insertStatement(ds))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, reading := range readings {
		args := make([]interface{}, 0, 7+len(ds.Fields))
		args = append(args, reading.StationID, reading.Stamp.Compact(),
			reading.Year(), reading.Month(), reading.Day())
		if ds.Mode == timepoint.Hourly {
			args = append(args, reading.Hour())
		}
		args = append(args, reading.Quality)
		for _, v := range reading.Values {
			if v == nil {
				args = append(args, nil)
			} else {
				args = append(args, *v)
			}
		}

		result, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return 0, fmt.Errorf("failed to insert reading %s: %w", reading.Stamp.Compact(), err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to read insert result: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionBatchSize.Observe(float64(len(readings)))
	r.logger.Info(ctx, "[REPO_INSERT_BATCH] Readings batch stored", logging.Fields{
		"dataset":     ds.Key,
		"rows":        len(readings),
		"inserted":    inserted,
		"skipped":     len(readings) - inserted,
		"duration_ms": time.Since(timer).Milliseconds(),
	})
	return inserted, nil
}

func (r *readingRepository) IndicatorRows(ctx context.Context, ds models.Dataset, stationID int) ([]timeframes.IndicatorRow, error) {
	patterns := make([]string, len(ds.Fields))
	for i, field := range ds.Fields {
		patterns[i] = fmt.Sprintf("CASE WHEN %s IS NULL THEN '-' ELSE 'x' END", field)
	}

	query := fmt.Sprintf(
		"SELECT ts, %s AS pattern FROM %s WHERE station = $1 ORDER BY ts",
		strings.Join(patterns, " || "),
		ds.Table,
	)

	rows, err := r.db.QueryContext(ctx, "indicator_rows", query, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query indicator rows: %w", err)
	}
	defer rows.Close()

	var result []timeframes.IndicatorRow
	for rows.Next() {
		var ts, pattern string
		if err := rows.Scan(&ts, &pattern); err != nil {
			return nil, fmt.Errorf("failed to scan indicator row: %w", err)
		}
		stamp, err := timepoint.ParseMode(ts, ds.Mode)
		if err != nil {
			return nil, fmt.Errorf("stored timestamp invalid: %w", err)
		}
		result = append(result, timeframes.IndicatorRow{Stamp: stamp, Pattern: pattern})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate indicator rows: %w", err)
	}
	return result, nil
}

func (r *readingRepository) BorderingRows(ctx context.Context, ds models.Dataset, stationID int, timestamp string) ([][]string, error) {
	columns := append([]string{"ts", "q"}, ds.Fields...)
	query := fmt.Sprintf(
		"SELECT %s FROM %s WHERE station = $1 AND ts >= $2 ORDER BY ts LIMIT 2",
		strings.Join(columns, ", "),
		ds.Table,
	)

	rows, err := r.db.QueryContext(ctx, "bordering_rows", query, stationID, timestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to query bordering rows: %w", err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var ts string
		var quality int
		values := make([]sql.NullFloat64, len(ds.Fields))

		dest := make([]interface{}, 0, len(columns))
		dest = append(dest, &ts, &quality)
		for i := range values {
			dest = append(dest, &values[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan bordering row: %w", err)
		}

		row := make([]string, 0, len(columns))
		row = append(row, ts, strconv.Itoa(quality))
		for _, v := range values {
			if v.Valid {
				row = append(row, strconv.FormatFloat(v.Float64, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bordering rows: %w", err)
	}
	return result, nil
}

func (r *readingRepository) MissingPerYear(ctx context.Context, ds models.Dataset, stationID int) ([]models.YearCoverage, error) {
	unitsPerDay := 1
	if ds.Mode == timepoint.Hourly {
		unitsPerDay = 24
	}

	missing := make([]string, len(ds.Fields))
	for i, field := range ds.Fields {
		missing[i] = fmt.Sprintf("y.days * %d - COUNT(r.%s) AS missing_%s", unitsPerDay, field, field)
	}

	// years between the station's oldest and newest stored rows, including
	// fully empty ones in the middle
	query := fmt.Sprintf(`
		WITH bounds AS (
			SELECT MIN(y) AS lo, MAX(y) AS hi FROM %[1]s WHERE station = $1
		)
		SELECT y.year, y.days * %[2]d AS units, %[3]s
		FROM years y
		CROSS JOIN bounds b
		LEFT JOIN %[1]s r ON r.station = $1 AND r.y = y.year
		WHERE y.year BETWEEN b.lo AND b.hi
		GROUP BY y.year, y.days
		ORDER BY y.year DESC
	`, ds.Table, unitsPerDay, strings.Join(missing, ", "))

	rows, err := r.db.QueryContext(ctx, "missing_per_year", query, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing per year: %w", err)
	}
	defer rows.Close()

	var result []models.YearCoverage
	for rows.Next() {
		cov := models.YearCoverage{Missing: make([]int, len(ds.Fields))}
		dest := make([]interface{}, 0, 2+len(ds.Fields))
		dest = append(dest, &cov.Year, &cov.Units)
		for i := range cov.Missing {
			dest = append(dest, &cov.Missing[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan year coverage: %w", err)
		}
		result = append(result, cov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate year coverage: %w", err)
	}
	return result, nil
}

func (r *readingRepository) RefreshYears(ctx context.Context, now time.Time) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO years (year, days)
		VALUES ($1, $2)
		ON CONFLICT (year) DO UPDATE SET days = EXCLUDED.days
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for year := 1700; year <= 2050; year++ {
		if _, err := stmt.ExecContext(ctx, year, yearDays(year, now)); err != nil {
			return fmt.Errorf("failed to upsert year %d: %w", year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.logger.Info(ctx, "[REPO_REFRESH_YEARS] Calendar table rebuilt", logging.Fields{
		"current_year": now.Year(),
	})
	return nil
}

// yearDays returns the day count the calendar table records for a year.
// Completed years carry their full length. The running year counts only days
// whose data can already be published, which with the archive's daily upload
// cadence means days through yesterday. Years still entirely in the future
// hold zero days.
func yearDays(year int, now time.Time) int {
	yesterday := now.AddDate(0, 0, -1)
	switch {
	case year < yesterday.Year():
		if isLeapYear(year) {
			return 366
		}
		return 365
	case year == yesterday.Year():
		return yesterday.YearDay()
	default:
		return 0
	}
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
