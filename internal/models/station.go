package models

import "fmt"

// NeverIngested is the high-water mark of a station and dataset no readings
// were ever stored for. It sorts before every real compact timestamp, daily
// or hourly.
const NeverIngested = "1699"

// Station is a directory entry for one measurement station. Validity window
// and metadata come from the archive's station description list. The
// high-water mark tracks the newest reading already ingested and is scoped
// to one dataset: an entity always carries the mark of the dataset it was
// loaded for, never a mark shared across series.
type Station struct {
	ID            int     `json:"id" db:"station"`
	Name          string  `json:"name" db:"name"`
	Region        string  `json:"region" db:"region"`
	RegionShort   string  `json:"region_short" db:"region_short"`
	Elevation     int     `json:"elevation" db:"elevation"`
	Latitude      float64 `json:"latitude" db:"latitude"`
	Longitude     float64 `json:"longitude" db:"longitude"`
	ValidFrom     string  `json:"valid_from" db:"valid_from"`
	ValidTo       string  `json:"valid_to" db:"valid_to"`
	Description   string  `json:"description" db:"description"`
	HighWaterMark string  `json:"high_water_mark" db:"high_water_mark"`

	// Populated distinguishes a directory hit from the empty entity returned
	// on lookup miss, so callers can decide policy instead of handling an
	// error.
	Populated bool `json:"populated" db:"-"`
}

// EmptyStation returns the unpopulated entity for a directory miss.
func EmptyStation(id int) *Station {
	return &Station{ID: id, HighWaterMark: NeverIngested}
}

// ExpectNewData decides whether an archive file said to contain data through
// impliedThrough can hold anything newer than what is already stored.
// A never-ingested station always expects new data.
func (s *Station) ExpectNewData(impliedThrough string) bool {
	if s.HighWaterMark < "1700" {
		return true
	}
	return s.HighWaterMark < impliedThrough
}

// DataIntegrityError reports a reading whose station id disagrees with the
// station the file was published for. The row is dropped, the batch
// continues.
type DataIntegrityError struct {
	Expected int
	Found    int
	Stamp    string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("reading for station %d found in file for station %d (timestamp %s)", e.Found, e.Expected, e.Stamp)
}

func (e *DataIntegrityError) IsTransient() bool {
	return false
}
