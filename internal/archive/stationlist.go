package archive

import (
	"strconv"
	"strings"

	"climate-coverage/internal/models"
	"climate-coverage/internal/timepoint"
)

// regionShort maps the federal state names used by the publisher to the
// usual short codes.
var regionShort = map[string]string{
	"Baden-Württemberg":      "BaWü",
	"Bayern":                 "BY",
	"Berlin":                 "BER",
	"Brandenburg":            "BB",
	"Bremen":                 "HB",
	"Hamburg":                "HH",
	"Hessen":                 "HE",
	"Mecklenburg-Vorpommern": "MV",
	"Niedersachsen":          "NDS",
	"Nordrhein-Westfalen":    "NRW",
	"Rheinland-Pfalz":        "RLP",
	"Saarland":               "SL",
	"Sachsen":                "SN",
	"Sachsen-Anhalt":         "ST",
	"Schleswig-Holstein":     "SH",
	"Thüringen":              "TH",
}

// RegionShort returns the short code for a federal state name, "?" when the
// publisher surprises us.
func RegionShort(region string) string {
	if short, ok := regionShort[region]; ok {
		return short
	}
	return "?"
}

// ParseStationList parses the fixed-layout station description list. Layout
// per line, whitespace separated, with a two-line header:
//
//	04692 20080301 20181130 229 50.8534 7.9966 Siegen (Kläranlage) Nordrhein-Westfalen
//
// Malformed lines are skipped; the caller gets every station the file
// legibly describes.
func ParseStationList(lines []string) []*models.Station {
	stations := make([]*models.Station, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(line, "Stations_id") || strings.HasPrefix(line, "-----------") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 8 {
			continue
		}

		id, err := strconv.Atoi(parts[0])
		if err != nil {
			continue
		}
		elevation, err := strconv.Atoi(parts[3])
		if err != nil {
			continue
		}
		lat, err := strconv.ParseFloat(parts[4], 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(parts[5], 64)
		if err != nil {
			continue
		}
		from, err := timepoint.ParseMode(parts[1], timepoint.Daily)
		if err != nil {
			continue
		}
		to, err := timepoint.ParseMode(parts[2], timepoint.Daily)
		if err != nil {
			continue
		}

		name := strings.Join(parts[6:len(parts)-1], " ")
		region := parts[len(parts)-1]
		short := RegionShort(region)

		stations = append(stations, &models.Station{
			ID:          id,
			Name:        name,
			Region:      region,
			RegionShort: short,
			Elevation:   elevation,
			Latitude:    lat,
			Longitude:   lon,
			ValidFrom:   from.Human(),
			ValidTo:     to.Human(),
			Description: strconv.Itoa(id) + ": " + name + " [" + short + "]",
		})
	}
	return stations
}
