package archive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-coverage/internal/timepoint"
)

func TestParseFilenameHistorical(t *testing.T) {
	f, err := ParseFilename("tageswerte_KL_00001_19370101_19860630_hist.zip")
	require.NoError(t, err)
	assert.Equal(t, 1, f.StationID)
	assert.True(t, f.Historical)
	assert.Equal(t, "19860630", f.AvailableThrough(timepoint.Daily, time.Now()))
}

func TestParseFilenameHistoricalHourly(t *testing.T) {
	f, err := ParseFilename("stundenwerte_TU_00003_19500401_20110331_hist.zip")
	require.NoError(t, err)
	assert.Equal(t, 3, f.StationID)
	assert.Equal(t, "2011033123", f.AvailableThrough(timepoint.Hourly, time.Now()))
}

func TestParseFilenameIncremental(t *testing.T) {
	f, err := ParseFilename("tageswerte_KL_02290_akt.zip")
	require.NoError(t, err)
	assert.Equal(t, 2290, f.StationID)
	assert.False(t, f.Historical)

	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "20240314", f.AvailableThrough(timepoint.Daily, now))
	assert.Equal(t, "2024031423", f.AvailableThrough(timepoint.Hourly, now))
}

func TestParseFilenameErrors(t *testing.T) {
	for _, name := range []string{
		"tageswerte_KL_00001_akt.txt",
		"readme.zip",
		"tageswerte_KL_abcde_akt.zip",
		"tageswerte_KL_00001_19370101_hist.zip",
		"tageswerte_KL_00001_profil.zip",
	} {
		_, err := ParseFilename(name)
		assert.Error(t, err, name)
	}
}

func TestStationMatch(t *testing.T) {
	assert.Equal(t, "*_00042_*.zip", StationMatch(42))
	assert.Equal(t, "*.zip", StationMatch(0))
}
