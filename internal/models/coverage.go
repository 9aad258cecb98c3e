package models

// YearCoverage reports, for one calendar year, how many rows each
// measurement column is missing. Missing counts line up with the
// owning dataset's Fields slice.
type YearCoverage struct {
	Year    int   `json:"year"`
	Units   int   `json:"units"`
	Missing []int `json:"missing"`
}

// CoverageReport is the per-station result of a coverage analysis.
type CoverageReport struct {
	StationID int            `json:"station_id"`
	Dataset   string         `json:"dataset"`
	Years     []YearCoverage `json:"years,omitempty"`
	GoodFrom  map[string]int `json:"good_from,omitempty"`
}
