package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-coverage/internal/models"
)

// yc builds a daily-climate year entry; missing values line up with
// temp_max, temp_avg, temp_min, precip.
func yc(year, units int, missing ...int) models.YearCoverage {
	return models.YearCoverage{Year: year, Units: units, Missing: missing}
}

func newTestCoverage(years []models.YearCoverage) *CoverageService {
	return NewCoverageService(&fakeReadingRepo{years: years}, testLogger(), testMetrics)
}

func TestGoodFromWalksBackUntilFirstBadYear(t *testing.T) {
	svc := newTestCoverage([]models.YearCoverage{
		yc(1998, 365, 0, 0, 0, 2),
		yc(1997, 365, 0, 3, 0, 12),
		yc(1996, 366, 0, 0, 40, 0),
		yc(1995, 365, 0, 0, 0, 0),
		yc(1994, 365, 80, 80, 80, 80),
		yc(1993, 365, 0, 0, 0, 0),
	})

	goodFrom, err := svc.GoodFrom(context.Background(), models.DailyClimate, 44, 5)
	require.NoError(t, err)

	// temp_max and temp_avg stop at the 1994 interruption; temp_min stops
	// earlier at 1996, precip at 1997. Good years before an interruption
	// (1993) never count.
	assert.Equal(t, map[string]int{
		"temp_max": 1995,
		"temp_avg": 1995,
		"temp_min": 1997,
		"precip":   1998,
	}, goodFrom)
}

func TestGoodFromFieldNeverUsable(t *testing.T) {
	svc := newTestCoverage([]models.YearCoverage{
		yc(1996, 366, 0, 0, 0, 300),
		yc(1995, 365, 0, 0, 0, 365),
	})

	goodFrom, err := svc.GoodFrom(context.Background(), models.DailyClimate, 44, 0)
	require.NoError(t, err)

	assert.Equal(t, 1995, goodFrom["temp_max"])
	_, ok := goodFrom["precip"]
	assert.False(t, ok, "a field with no usable year is absent, not zero")
}

func TestGoodFromAllYearsUsable(t *testing.T) {
	svc := newTestCoverage([]models.YearCoverage{
		yc(1996, 366, 0, 0, 0, 0),
		yc(1995, 365, 0, 0, 0, 0),
	})

	goodFrom, err := svc.GoodFrom(context.Background(), models.DailyClimate, 44, 0)
	require.NoError(t, err)

	for _, field := range models.DailyClimate.Fields {
		assert.Equal(t, 1995, goodFrom[field])
	}
}

func TestGoodFromToleranceBoundary(t *testing.T) {
	svc := newTestCoverage([]models.YearCoverage{
		yc(1996, 366, 5, 0, 0, 0),
		yc(1995, 365, 6, 0, 0, 0),
	})

	goodFrom, err := svc.GoodFrom(context.Background(), models.DailyClimate, 44, 5)
	require.NoError(t, err)

	// exactly tolerance missing still counts as usable, one more does not
	assert.Equal(t, 1996, goodFrom["temp_max"])
	assert.Equal(t, 1995, goodFrom["temp_avg"])
}

func TestGoodFromEmptyStation(t *testing.T) {
	svc := newTestCoverage(nil)

	goodFrom, err := svc.GoodFrom(context.Background(), models.DailyClimate, 44, 0)
	require.NoError(t, err)
	assert.Empty(t, goodFrom)
}

func TestCoverageReport(t *testing.T) {
	years := []models.YearCoverage{
		yc(1996, 366, 0, 0, 0, 0),
		yc(1995, 365, 0, 0, 0, 400),
	}
	svc := newTestCoverage(years)

	report, err := svc.Report(context.Background(), models.DailyClimate, 44, 0)
	require.NoError(t, err)

	assert.Equal(t, 44, report.StationID)
	assert.Equal(t, "kl-daily", report.Dataset)
	assert.Equal(t, years, report.Years)
	assert.Equal(t, 1995, report.GoodFrom["temp_max"])
	assert.Equal(t, 1996, report.GoodFrom["precip"])
}
