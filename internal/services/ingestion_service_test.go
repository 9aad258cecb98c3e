package services

import (
	"archive/zip"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-coverage/internal/models"
)

func writeProductZip(destPath, content string) error {
	f, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	meta, err := zw.Create("Metadaten_Stationsname.html")
	if err != nil {
		return err
	}
	if _, err := meta.Write([]byte("<html></html>")); err != nil {
		return err
	}
	product, err := zw.Create("produkt_klima_tag.txt")
	if err != nil {
		return err
	}
	if _, err := product.Write([]byte(content)); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return f.Close()
}

const histProduct = `STATIONS_ID;MESS_DATUM;QN_3;TXK;TMK;TNK;RSK;eor
  44;20231229;   3;  5.1;  2.0; -1.2;  0.0;eor
  44;20231230;   3;  4.8;  1.9; -0.8; -999;eor
  44;20231231;   3;  6.0;  3.1;  0.4;  1.2;eor
`

const aktProduct = `STATIONS_ID;MESS_DATUM;QN_3;TXK;TMK;TNK;RSK;eor
  44;20231231;   3;  6.0;  3.1;  0.4;  1.2;eor
  44;20240101;   3;  7.2;  4.0;  1.1;  0.3;eor
  99;20240102;   3;  3.0;  1.0; -2.0;  0.0;eor
  44;broken-timestamp;   3;  3.0;  1.0; -2.0;  0.0;eor
  44;20240103;   3;  2.5;  0.2; -3.4;  5.6;eor
`

func newTestIngestion(t *testing.T, files map[string]string, stations *fakeStationRepo, readings *fakeReadingRepo) *IngestionService {
	t.Helper()
	svc := NewIngestionService(
		&fakeArchive{files: files},
		stations,
		readings,
		testLogger(),
		testMetrics,
		t.TempDir(),
	)
	svc.now = func() time.Time {
		return time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	}
	return svc
}

func TestIngestStationFullRun(t *testing.T) {
	stations := newFakeStationRepo()
	readings := &fakeReadingRepo{}
	svc := newTestIngestion(t, map[string]string{
		"tageswerte_KL_00044_19370101_20231231_hist.zip": histProduct,
		"tageswerte_KL_00044_akt.zip":                    aktProduct,
	}, stations, readings)

	report, err := svc.IngestStation(context.Background(), models.DailyClimate, 44)
	require.NoError(t, err)

	require.Len(t, report.Files, 2)
	hist, akt := report.Files[0], report.Files[1]

	assert.Equal(t, 3, hist.Rows)
	assert.Equal(t, 3, hist.Inserted)
	assert.Equal(t, 0, hist.Dropped)

	// duplicate of the hist boundary row is skipped, the foreign-station and
	// malformed rows are dropped, two genuinely new rows land
	assert.Equal(t, 5, akt.Rows)
	assert.Equal(t, 2, akt.Inserted)
	assert.Equal(t, 2, akt.Dropped)

	assert.Equal(t, 5, report.Inserted)
	assert.Equal(t, "20240103", report.HighWaterMark)
	assert.Len(t, readings.inserted, 5)

	// each file pushed the mark forward, even though station 44 had never
	// been synced into the repository before this run
	assert.True(t, hist.MarkAdvanced)
	assert.True(t, akt.MarkAdvanced)

	// the missing-value sentinel became a NULL, not a number
	second := readings.inserted[1]
	assert.Equal(t, "20231230", second.Stamp.Compact())
	assert.Nil(t, second.Values[3])

	stored, err := stations.Get(context.Background(), 44, models.DailyClimate)
	require.NoError(t, err)
	assert.Equal(t, "20240103", stored.HighWaterMark)
}

func TestIngestStationSkipsFilesBelowHighWaterMark(t *testing.T) {
	stations := newFakeStationRepo(models.EmptyStation(44))
	stations.setMark(44, models.DailyClimate, "20231231")
	readings := &fakeReadingRepo{}
	svc := newTestIngestion(t, map[string]string{
		"tageswerte_KL_00044_19370101_20231231_hist.zip": histProduct,
		"tageswerte_KL_00044_akt.zip":                    aktProduct,
	}, stations, readings)

	report, err := svc.IngestStation(context.Background(), models.DailyClimate, 44)
	require.NoError(t, err)

	require.Len(t, report.Files, 2)
	assert.True(t, report.Files[0].Skipped, "historical file holds nothing new")
	assert.False(t, report.Files[1].Skipped, "incremental file implies data through yesterday")

	// only the rows beyond the mark were kept
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, "20240103", report.HighWaterMark)
}

const hourlyAktProduct = `STATIONS_ID;MESS_DATUM;QN_9;TT_TU;RF_TU;eor
  44;2024010121;   3;  4.1;  81;eor
  44;2024010122;   3;  3.8;  84;eor
  44;2024010123;   3;  3.5;  87;eor
`

func TestIngestStationMarksAreScopedPerDataset(t *testing.T) {
	stations := newFakeStationRepo()

	hourlyReadings := &fakeReadingRepo{}
	hourlySvc := newTestIngestion(t, map[string]string{
		"stundenwerte_TU_00044_akt.zip": hourlyAktProduct,
	}, stations, hourlyReadings)

	hourlyReport, err := hourlySvc.IngestStation(context.Background(), models.HourlyAirTemperature, 44)
	require.NoError(t, err)
	require.Equal(t, 3, hourlyReport.Inserted)
	require.Equal(t, "2024010123", hourlyReport.HighWaterMark)

	// the hourly run advanced its own mark past January 1st; the daily file
	// covering that same day must still come through untouched
	dailyReadings := &fakeReadingRepo{}
	dailySvc := newTestIngestion(t, map[string]string{
		"tageswerte_KL_00044_akt.zip": aktProduct,
	}, stations, dailyReadings)

	dailyReport, err := dailySvc.IngestStation(context.Background(), models.DailyClimate, 44)
	require.NoError(t, err)
	require.Len(t, dailyReport.Files, 1)
	assert.False(t, dailyReport.Files[0].Skipped)
	assert.Equal(t, 3, dailyReport.Inserted)
	assert.Equal(t, "20240103", dailyReport.HighWaterMark)

	daily, err := stations.Get(context.Background(), 44, models.DailyClimate)
	require.NoError(t, err)
	hourly, err := stations.Get(context.Background(), 44, models.HourlyAirTemperature)
	require.NoError(t, err)
	assert.Equal(t, "20240103", daily.HighWaterMark)
	assert.Equal(t, "2024010123", hourly.HighWaterMark)
}

func TestIngestStationUnparseableFilename(t *testing.T) {
	stations := newFakeStationRepo()
	readings := &fakeReadingRepo{}
	svc := newTestIngestion(t, map[string]string{
		"readme.zip": "not a product",
	}, stations, readings)

	report, err := svc.IngestStation(context.Background(), models.DailyClimate, 44)
	require.NoError(t, err)

	require.Len(t, report.Files, 1)
	assert.NotEmpty(t, report.Files[0].Error)
	assert.Equal(t, 0, report.Inserted)
}

func TestIngestStationsContinuesAfterFailure(t *testing.T) {
	stations := newFakeStationRepo()
	readings := &fakeReadingRepo{}
	svc := newTestIngestion(t, map[string]string{
		"tageswerte_KL_00044_19370101_20231231_hist.zip": histProduct,
	}, stations, readings)
	// station 7 has no files listed under its pattern, which is a valid
	// empty run, so point its listing at a missing archive instead
	svc.archive.(*fakeArchive).lists = map[string][]string{
		"*_00007_*.zip": {"tageswerte_KL_00007_gone_hist.zip"},
		"*_00044_*.zip": {"tageswerte_KL_00044_19370101_20231231_hist.zip"},
	}

	reports, err := svc.IngestStations(context.Background(), models.DailyClimate, []int{7, 44})
	require.NoError(t, err)

	// both stations produce reports; station 7's file failed individually
	require.Len(t, reports, 2)
	require.Len(t, reports[0].Files, 1)
	assert.NotEmpty(t, reports[0].Files[0].Error)
	assert.Equal(t, 3, reports[1].Inserted)
}
