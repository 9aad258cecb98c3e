package archive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStationList(t *testing.T) {
	lines := []string{
		"Stations_id von_datum bis_datum Stationshoehe geoBreite geoLaenge Stationsname Bundesland",
		"----------- --------- --------- ------------- --------- --------- ----------------------------------------- ----------",
		"04692 20080301 20181130            229     50.8534    7.9966 Siegen (Kläranlage)                      Nordrhein-Westfalen",
		"00722 18950101 20240131           1134     51.7986   10.6183 Brocken                                  Sachsen-Anhalt",
	}

	stations := ParseStationList(lines)
	require.Len(t, stations, 2)

	s := stations[0]
	assert.Equal(t, 4692, s.ID)
	assert.Equal(t, "Siegen (Kläranlage)", s.Name)
	assert.Equal(t, "Nordrhein-Westfalen", s.Region)
	assert.Equal(t, "NRW", s.RegionShort)
	assert.Equal(t, 229, s.Elevation)
	assert.InDelta(t, 50.8534, s.Latitude, 1e-9)
	assert.InDelta(t, 7.9966, s.Longitude, 1e-9)
	assert.Equal(t, "2008-03-01", s.ValidFrom)
	assert.Equal(t, "2018-11-30", s.ValidTo)
	assert.Equal(t, "4692: Siegen (Kläranlage) [NRW]", s.Description)

	assert.Equal(t, "ST", stations[1].RegionShort)
}

func TestParseStationListSkipsMalformedLines(t *testing.T) {
	lines := []string{
		"garbage",
		"xxxxx 20080301 20181130 229 50.8534 7.9966 Somewhere Hessen",
		"00722 18950101 20240131 1134 51.7986 10.6183 Brocken Sachsen-Anhalt",
	}
	stations := ParseStationList(lines)
	require.Len(t, stations, 1)
	assert.Equal(t, 722, stations[0].ID)
}

func TestRegionShortUnknown(t *testing.T) {
	assert.Equal(t, "?", RegionShort("Atlantis"))
}
