package timeframes

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-coverage/internal/timepoint"
)

func row(t *testing.T, stamp, pattern string) IndicatorRow {
	t.Helper()
	p, err := timepoint.Parse(stamp)
	require.NoError(t, err)
	return IndicatorRow{Stamp: p, Pattern: pattern}
}

func TestSegmentEmptySeries(t *testing.T) {
	_, err := Segment(nil)
	assert.IsType(t, &EmptySeriesError{}, err)

	_, err = Segment([]IndicatorRow{})
	assert.IsType(t, &EmptySeriesError{}, err)
}

func TestSegmentSingleRow(t *testing.T) {
	frames, err := Segment([]IndicatorRow{row(t, "20200101", "xx")})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, "2020-01-01", frames[0].From.Human())
	assert.Equal(t, "2020-01-01", frames[0].To.Human())
	assert.Equal(t, "xx", frames[0].Indicators)
	assert.Equal(t, 1, frames[0].Units)
}

func TestSegmentUniformRun(t *testing.T) {
	frames, err := Segment([]IndicatorRow{
		row(t, "20200101", "x-"),
		row(t, "20200102", "x-"),
		row(t, "20200103", "x-"),
	})
	require.NoError(t, err)
	require.Len(t, frames, 1)
	assert.Equal(t, 3, frames[0].Units)
	assert.Equal(t, "x-", frames[0].Indicators)
}

func TestSegmentGapInsertion(t *testing.T) {
	frames, err := Segment([]IndicatorRow{
		row(t, "20200101", "xx"),
		row(t, "20200105", "xx"),
	})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, "2020-01-01", frames[0].From.Human())
	assert.Equal(t, "2020-01-01", frames[0].To.Human())
	assert.Equal(t, "xx", frames[0].Indicators)
	assert.Equal(t, 1, frames[0].Units)

	assert.Equal(t, "2020-01-02", frames[1].From.Human())
	assert.Equal(t, "2020-01-04", frames[1].To.Human())
	assert.Equal(t, NoDataIndicator, frames[1].Indicators)
	assert.Equal(t, 3, frames[1].Units)
	assert.True(t, frames[1].IsGap())

	assert.Equal(t, "2020-01-05", frames[2].From.Human())
	assert.Equal(t, "2020-01-05", frames[2].To.Human())
	assert.Equal(t, "xx", frames[2].Indicators)
	assert.Equal(t, 1, frames[2].Units)
}

func TestSegmentPatternChangeWithoutGap(t *testing.T) {
	frames, err := Segment([]IndicatorRow{
		row(t, "20200101", "x-"),
		row(t, "20200102", "-x"),
	})
	require.NoError(t, err)
	require.Len(t, frames, 2)

	assert.Equal(t, "x-", frames[0].Indicators)
	assert.Equal(t, 1, frames[0].Units)
	assert.Equal(t, "-x", frames[1].Indicators)
	assert.Equal(t, 1, frames[1].Units)
	for _, tf := range frames {
		assert.False(t, tf.IsGap())
	}
}

func TestSegmentGapTakesPrecedenceOverPatternChange(t *testing.T) {
	// pattern changes across a gap: the frame after the gap must open with
	// the new pattern, no extra pattern-change frame
	frames, err := Segment([]IndicatorRow{
		row(t, "20200101", "x-"),
		row(t, "20200110", "-x"),
	})
	require.NoError(t, err)
	require.Len(t, frames, 3)
	assert.Equal(t, "x-", frames[0].Indicators)
	assert.Equal(t, NoDataIndicator, frames[1].Indicators)
	assert.Equal(t, "-x", frames[2].Indicators)
}

func TestSegmentHourlySeries(t *testing.T) {
	frames, err := Segment([]IndicatorRow{
		row(t, "2020010122", "x"),
		row(t, "2020010123", "x"),
		row(t, "2020010202", "x"),
	})
	require.NoError(t, err)
	require.Len(t, frames, 3)

	assert.Equal(t, "2020-01-02 00", frames[1].From.Human())
	assert.Equal(t, "2020-01-02 01", frames[1].To.Human())
	assert.Equal(t, NoDataIndicator, frames[1].Indicators)
	assert.Equal(t, 2, frames[1].Units)
}

// The union of emitted frames must exactly cover [first, last]: adjacent
// frames touch with no missing sampling unit, and unit counts add up.
func TestSegmentCoverIsGaplessAndComplete(t *testing.T) {
	rows := []IndicatorRow{
		row(t, "20200101", "xx-"),
		row(t, "20200102", "xx-"),
		row(t, "20200103", "x--"),
		row(t, "20200108", "x--"),
		row(t, "20200109", "xxx"),
		row(t, "20200112", "xxx"),
	}
	frames, err := Segment(rows)
	require.NoError(t, err)

	assert.True(t, frames[0].From.Equal(rows[0].Stamp))
	assert.True(t, frames[len(frames)-1].To.Equal(rows[len(rows)-1].Stamp))

	total := 0
	for i, tf := range frames {
		assert.False(t, tf.To.Before(tf.From))

		units, err := tf.From.Difference(tf.To)
		require.NoError(t, err)
		assert.Equal(t, units, tf.Units)
		total += tf.Units

		if i > 0 {
			assert.True(t, frames[i-1].To.Next().Equal(tf.From),
				"frame %d does not touch its predecessor", i)
		}
	}

	span, err := rows[0].Stamp.Difference(rows[len(rows)-1].Stamp)
	require.NoError(t, err)
	assert.Equal(t, span, total)
}

func TestSegmentModeMixRejected(t *testing.T) {
	_, err := Segment([]IndicatorRow{
		row(t, "20200101", "x"),
		row(t, "2020010123", "x"),
	})
	assert.IsType(t, &timepoint.ModeMismatchError{}, err)
}

func TestExportDocument(t *testing.T) {
	frames, err := Segment([]IndicatorRow{
		row(t, "20200101", "xx"),
		row(t, "20200105", "xx"),
	})
	require.NoError(t, err)
	frames[0].Rows = [][]string{{"20200101", "3.2", "1.1"}}

	doc := NewDocument([]string{"temp_max", "temp_min"}, frames, true)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, doc))

	var decoded struct {
		Fields     []string `json:"fields"`
		Timeframes []struct {
			From       string     `json:"from"`
			To         string     `json:"to"`
			Indicators string     `json:"indicators"`
			Days       int        `json:"days"`
			Rows       [][]string `json:"rows"`
		} `json:"timeframes"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	assert.Equal(t, []string{"temp_max", "temp_min"}, decoded.Fields)
	require.Len(t, decoded.Timeframes, 3)
	assert.Equal(t, "2020-01-01", decoded.Timeframes[0].From)
	assert.Equal(t, NoDataIndicator, decoded.Timeframes[1].Indicators)
	assert.Equal(t, 3, decoded.Timeframes[1].Days)
	assert.Len(t, decoded.Timeframes[0].Rows, 1)
	assert.Empty(t, decoded.Timeframes[1].Rows)
}
