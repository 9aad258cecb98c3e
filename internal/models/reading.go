package models

import (
	"strconv"
	"strings"

	"climate-coverage/internal/timepoint"
)

// missingValue is the archive's sentinel for "no reading". It maps to NULL,
// never to a literal number.
const missingValue = "-999"

// Reading is one stored measurement row. Values are aligned with the
// dataset's field list; nil means the archive published the sentinel.
type Reading struct {
	StationID int
	Stamp     timepoint.PointInTime
	Quality   int
	Values    []*float64
}

// Year, Month, Day, Hour return the decomposed timestamp fields persisted
// alongside the compact text. Hour is meaningful for hourly datasets only.
func (r *Reading) Year() int  { return r.Stamp.Time().Year() }
func (r *Reading) Month() int { return int(r.Stamp.Time().Month()) }
func (r *Reading) Day() int   { return r.Stamp.Time().Day() }
func (r *Reading) Hour() int  { return r.Stamp.Time().Hour() }

// ParseReading converts one semicolon-split product file record into a
// Reading. Record layout is station id, timestamp, quality code, then the
// dataset's measurement fields; a trailing end-of-record marker is
// tolerated.
func ParseReading(record []string, ds Dataset) (*Reading, error) {
	if n := len(record); n > 0 && strings.TrimSpace(record[n-1]) == "eor" {
		record = record[:n-1]
	}
	want := 3 + len(ds.Fields)
	if len(record) != want {
		return nil, &ValidationError{
			Field:   "record",
			Value:   strings.Join(record, ";"),
			Message: "wrong field count: expected " + strconv.Itoa(want) + ", got " + strconv.Itoa(len(record)),
		}
	}

	stationID, err := strconv.Atoi(strings.TrimSpace(record[0]))
	if err != nil {
		return nil, &ValidationError{Field: "station", Value: record[0], Message: "non-numeric station id"}
	}

	stamp, err := timepoint.ParseMode(strings.TrimSpace(record[1]), ds.Mode)
	if err != nil {
		return nil, err
	}

	quality, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil {
		return nil, &ValidationError{Field: "quality", Value: record[2], Message: "non-numeric quality code"}
	}

	values := make([]*float64, len(ds.Fields))
	for i, raw := range record[3:] {
		raw = strings.TrimSpace(raw)
		if raw == missingValue || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &ValidationError{Field: ds.Fields[i], Value: raw, Message: "non-numeric measurement value"}
		}
		values[i] = &v
	}

	return &Reading{
		StationID: stationID,
		Stamp:     stamp,
		Quality:   quality,
		Values:    values,
	}, nil
}

// ValidationError reports a malformed input row. Such rows fail individually;
// the batch continues.
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) IsTransient() bool {
	return false
}
