package models

import (
	"climate-coverage/internal/timepoint"
)

// Dataset describes one published product line of the archive: where it
// lives, which table its readings land in, and which measurement columns it
// carries. The schema is static, so the field list doubles as the column
// cache for query building.
type Dataset struct {
	Key   string
	Table string
	Mode  timepoint.Mode

	// Fields are the nullable measurement columns, in file order.
	Fields []string

	// ArchivePath is the directory on the archive server holding the zip
	// files, StationListFile the fixed-layout station description list.
	ArchivePath     string
	StationListFile string
}

// The two product lines this system ingests. The model is deliberately
// bimodal; further granularities would need their own temporal arithmetic.
var (
	DailyClimate = Dataset{
		Key:             "kl-daily",
		Table:           "readings_daily",
		Mode:            timepoint.Daily,
		Fields:          []string{"temp_max", "temp_avg", "temp_min", "precip"},
		ArchivePath:     "climate_environment/CDC/observations_germany/climate/daily/kl/recent",
		StationListFile: "KL_Tageswerte_Beschreibung_Stationen.txt",
	}

	HourlyAirTemperature = Dataset{
		Key:             "tu-hourly",
		Table:           "readings_hourly",
		Mode:            timepoint.Hourly,
		Fields:          []string{"temp", "humidity"},
		ArchivePath:     "climate_environment/CDC/observations_germany/climate/hourly/air_temperature/historical",
		StationListFile: "TU_Stundenwerte_Beschreibung_Stationen.txt",
	}
)

// DatasetByKey resolves a configured dataset key.
func DatasetByKey(key string) (Dataset, bool) {
	switch key {
	case DailyClimate.Key:
		return DailyClimate, true
	case HourlyAirTemperature.Key:
		return HourlyAirTemperature, true
	}
	return Dataset{}, false
}
