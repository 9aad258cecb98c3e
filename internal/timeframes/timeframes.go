// Package timeframes partitions an ordered, irregularly sampled series into
// maximal runs of identical data-availability patterns. The archive omits
// days (or hours) without any readings instead of publishing empty rows, so
// the series must be segmented with explicit "no data" frames wherever one or
// more sampling units were skipped.
package timeframes

import (
	"climate-coverage/internal/timepoint"
)

// NoDataIndicator tags a gap frame: one or more sampling units for which the
// archive published nothing at all.
const NoDataIndicator = "no data"

// IndicatorRow is one sampling unit of the input series: a timestamp plus a
// presence pattern with one character per tracked field ('x' present,
// '-' absent). How presence was computed is the caller's business.
type IndicatorRow struct {
	Stamp   timepoint.PointInTime
	Pattern string
}

// Timeframe is a maximal contiguous run of sampling units sharing one
// indicator pattern, or a gap run tagged NoDataIndicator. Both endpoints are
// inclusive. Units is the inclusive span, so Units == Difference(From, To).
type Timeframe struct {
	From       timepoint.PointInTime
	To         timepoint.PointInTime
	Indicators string
	Units      int

	// Rows optionally carries up to two raw readings bordering To, fetched
	// separately for diagnostic display.
	Rows [][]string
}

// IsGap reports whether the frame covers units without any published data.
func (tf Timeframe) IsGap() bool {
	return tf.Indicators == NoDataIndicator
}

// EmptySeriesError reports a segmentation request over zero rows. An empty
// series is a usage error, not a data-quality condition.
type EmptySeriesError struct{}

func (e *EmptySeriesError) Error() string {
	return "cannot segment an empty series"
}

func (e *EmptySeriesError) IsTransient() bool {
	return false
}

// Segment walks the series once and emits its timeframe cover. Rows must be
// strictly ascending by timestamp and share one mode. The emitted frames form
// a gapless, non-overlapping, chronologically ordered cover of
// [rows[0].Stamp, rows[last].Stamp].
//
// The gap test runs strictly before the pattern test: after a gap the new
// frame always opens with the current row's pattern, it is never compared
// against the pattern from before the gap.
func Segment(rows []IndicatorRow) ([]Timeframe, error) {
	if len(rows) == 0 {
		return nil, &EmptySeriesError{}
	}

	frames := make([]Timeframe, 0, 16)
	prev := rows[0]
	open := Timeframe{From: prev.Stamp, Indicators: prev.Pattern}

	for _, row := range rows[1:] {
		span, err := row.Stamp.Difference(prev.Stamp)
		if err != nil {
			return nil, err
		}
		steps := span - 1 // exclusive step count between the two rows
		if steps > 1 {
			// one or more sampling units skipped: close the open frame at the
			// previous row, insert the gap, reopen at the current row
			open.To = prev.Stamp
			frames = append(frames, open)
			frames = append(frames, Timeframe{
				From:       prev.Stamp.Next(),
				To:         row.Stamp.Prev(),
				Indicators: NoDataIndicator,
			})
			open = Timeframe{From: row.Stamp, Indicators: row.Pattern}
		} else if row.Pattern != prev.Pattern {
			open.To = prev.Stamp
			frames = append(frames, open)
			open = Timeframe{From: row.Stamp, Indicators: row.Pattern}
		}
		prev = row
	}
	open.To = prev.Stamp
	frames = append(frames, open)

	for i := range frames {
		units, err := frames[i].From.Difference(frames[i].To)
		if err != nil {
			return nil, err
		}
		frames[i].Units = units
	}
	return frames, nil
}
