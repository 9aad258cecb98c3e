// Package archive is the collaborator for the remote climate archive: file
// name conventions, anonymous FTP retrieval with bounded retries, and the
// fixed layouts of station lists and zipped product files.
package archive

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"climate-coverage/internal/timepoint"
)

// Filename carries the metadata embedded in an archive file name. Historical
// archives name the covered range, incremental ("akt") archives imply data
// through yesterday:
//
//	tageswerte_KL_00001_19370101_19860630_hist.zip
//	stundenwerte_TU_00003_19500401_20110331_hist.zip
//	tageswerte_KL_00001_akt.zip
type Filename struct {
	Name       string
	StationID  int
	Historical bool

	endDate string // compact date, historical archives only
}

// ParseFilename extracts station id and coverage metadata from an archive
// file name.
func ParseFilename(name string) (Filename, error) {
	base := strings.TrimSuffix(name, ".zip")
	if base == name {
		return Filename{}, fmt.Errorf("unrecognized archive filename %q: not a zip file", name)
	}
	parts := strings.Split(base, "_")
	if len(parts) < 4 {
		return Filename{}, fmt.Errorf("unrecognized archive filename %q: too few segments", name)
	}

	id, err := strconv.Atoi(parts[2])
	if err != nil {
		return Filename{}, fmt.Errorf("unrecognized archive filename %q: station segment %q is not numeric", name, parts[2])
	}

	f := Filename{Name: name, StationID: id}
	switch parts[len(parts)-1] {
	case "hist":
		if len(parts) < 6 {
			return Filename{}, fmt.Errorf("unrecognized archive filename %q: historical name lacks date range", name)
		}
		f.Historical = true
		f.endDate = parts[4]
	case "akt":
		// incremental archive, no explicit end date
	default:
		return Filename{}, fmt.Errorf("unrecognized archive filename %q: neither historical nor incremental", name)
	}
	return f, nil
}

// AvailableThrough returns the compact timestamp this file is expected to
// contain data through. Historical archives carry it in the name;
// incremental archives run through yesterday, given the publisher's daily
// upload cadence.
func (f Filename) AvailableThrough(mode timepoint.Mode, now time.Time) string {
	if f.Historical {
		if mode == timepoint.Hourly {
			return f.endDate + "23"
		}
		return f.endDate
	}
	yesterday := now.AddDate(0, 0, -1).Format("20060102")
	if mode == timepoint.Hourly {
		return yesterday + "23"
	}
	return yesterday
}

// StationMatch returns the listing glob for one station's archive files, or
// for all stations when id is 0.
func StationMatch(id int) string {
	if id == 0 {
		return "*.zip"
	}
	return fmt.Sprintf("*_%05d_*.zip", id)
}
