// Package timepoint models the archive's two-speed notion of time. Published
// timestamps look like "20211216" (daily products) or "2019032600" (hourly
// products); reports and diagnostics prefer the readable forms "2021-12-16"
// and "2019-03-26 00". A PointInTime carries its sampling mode and converts
// between both encodings without loss.
package timepoint

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Mode is the sampling granularity of a PointInTime. The archive publishes
// daily and hourly products only; there is no general calendar arithmetic
// here.
type Mode int

const (
	Daily Mode = iota
	Hourly
)

func (m Mode) String() string {
	if m == Hourly {
		return "hourly"
	}
	return "daily"
}

func (m Mode) layoutCompact() string {
	if m == Hourly {
		return "2006010215"
	}
	return "20060102"
}

func (m Mode) layoutHuman() string {
	if m == Hourly {
		return "2006-01-02 15"
	}
	return "2006-01-02"
}

// Unit is one sampling step: a day or an hour.
func (m Mode) Unit() time.Duration {
	if m == Hourly {
		return time.Hour
	}
	return 24 * time.Hour
}

// The patterns shall not test "too well", so that range errors get reported
// as such instead of as shape errors.
var (
	rexCompactDaily  = regexp.MustCompile(`^[0-9]{8}$`)
	rexCompactHourly = regexp.MustCompile(`^[0-9]{10}$`)
	rexHumanDaily    = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2}$`)
	rexHumanHourly   = regexp.MustCompile(`^[0-9]{4}-[0-9]{2}-[0-9]{2} [0-9]{2}$`)
)

// PointInTime is a validated, mode-tagged instant. The zero value is not
// meaningful; construct via Parse, ParseMode, FromTime, FromDate or FromHour.
type PointInTime struct {
	t    time.Time
	mode Mode
}

// Parse constructs a PointInTime from either textual encoding, inferring the
// mode from the shape of the input: a dash or space means human encoding
// (10 or 13 chars), otherwise compact (8 or 10 chars).
func Parse(value string) (PointInTime, error) {
	human := strings.ContainsAny(value, "- ")
	switch {
	case human && len(value) == 10:
		return parseHuman(value, Daily)
	case human && len(value) == 13:
		return parseHuman(value, Hourly)
	case human:
		return PointInTime{}, &FormatError{Value: value, Expected: "YYYY-MM-DD or YYYY-MM-DD HH"}
	case len(value) == 8:
		return parseCompact(value, Daily)
	case len(value) == 10:
		return parseCompact(value, Hourly)
	default:
		return PointInTime{}, &FormatError{Value: value, Expected: "YYYYMMDD or YYYYMMDDHH"}
	}
}

// ParseMode is Parse with the mode fixed up front. Input whose shape implies
// the other mode is rejected as a format error.
func ParseMode(value string, mode Mode) (PointInTime, error) {
	p, err := Parse(value)
	if err != nil {
		return PointInTime{}, err
	}
	if p.mode != mode {
		return PointInTime{}, &FormatError{Value: value, Expected: expectedShapes(mode)}
	}
	return p, nil
}

func expectedShapes(mode Mode) string {
	if mode == Hourly {
		return "YYYYMMDDHH or YYYY-MM-DD HH"
	}
	return "YYYYMMDD or YYYY-MM-DD"
}

func parseCompact(value string, mode Mode) (PointInTime, error) {
	rex := rexCompactDaily
	if mode == Hourly {
		rex = rexCompactHourly
	}
	if !rex.MatchString(value) {
		return PointInTime{}, &FormatError{Value: value, Expected: expectedShapes(mode)}
	}
	hour := "00"
	if mode == Hourly {
		hour = value[8:10]
	}
	return build(value, mode, value[0:4], value[4:6], value[6:8], hour)
}

func parseHuman(value string, mode Mode) (PointInTime, error) {
	rex := rexHumanDaily
	if mode == Hourly {
		rex = rexHumanHourly
	}
	if !rex.MatchString(value) {
		return PointInTime{}, &FormatError{Value: value, Expected: expectedShapes(mode)}
	}
	hour := "00"
	if mode == Hourly {
		hour = value[11:13]
	}
	return build(value, mode, value[0:4], value[5:7], value[8:10], hour)
}

// build range-checks the decomposed fields, then lets the calendar have the
// final word on day-of-month validity.
func build(value string, mode Mode, y, m, d, h string) (PointInTime, error) {
	if y < "1700" || y > "2100" {
		return PointInTime{}, &RangeError{Value: value, Field: "year"}
	}
	if m < "01" || m > "12" {
		return PointInTime{}, &RangeError{Value: value, Field: "month"}
	}
	if d < "01" || d > "31" {
		return PointInTime{}, &RangeError{Value: value, Field: "day"}
	}
	if h < "00" || h > "23" {
		return PointInTime{}, &RangeError{Value: value, Field: "hour"}
	}
	t, err := time.Parse("2006010215", y+m+d+h)
	if err != nil {
		return PointInTime{}, &CalendarError{Value: value, Cause: err}
	}
	return PointInTime{t: t.UTC(), mode: mode}, nil
}

// FromTime constructs a PointInTime from a native time value, truncated to
// the mode's sampling unit. Location is discarded; the archive publishes
// wall-clock timestamps.
func FromTime(t time.Time, mode Mode) PointInTime {
	t = t.UTC()
	if mode == Hourly {
		return PointInTime{t: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC), mode: Hourly}
	}
	return PointInTime{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), mode: Daily}
}

// FromDate constructs a daily PointInTime from decomposed fields.
func FromDate(year, month, day int) (PointInTime, error) {
	return fromFields(year, month, day, 0, Daily)
}

// FromHour constructs an hourly PointInTime from decomposed fields.
func FromHour(year, month, day, hour int) (PointInTime, error) {
	return fromFields(year, month, day, hour, Hourly)
}

func fromFields(year, month, day, hour int, mode Mode) (PointInTime, error) {
	value := fmt.Sprintf("%04d%02d%02d", year, month, day)
	if mode == Hourly {
		value += fmt.Sprintf("%02d", hour)
	}
	switch {
	case year < 1700 || year > 2100:
		return PointInTime{}, &RangeError{Value: value, Field: "year"}
	case month < 1 || month > 12:
		return PointInTime{}, &RangeError{Value: value, Field: "month"}
	case day < 1 || day > 31:
		return PointInTime{}, &RangeError{Value: value, Field: "day"}
	case hour < 0 || hour > 23:
		return PointInTime{}, &RangeError{Value: value, Field: "hour"}
	}
	// time.Date normalizes Feb 30 to Mar 2; round-trip to catch it
	t := time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		return PointInTime{}, &CalendarError{Value: value, Cause: &RangeError{Value: value, Field: "day"}}
	}
	return PointInTime{t: t, mode: mode}, nil
}

// Mode returns the sampling granularity.
func (p PointInTime) Mode() Mode {
	return p.mode
}

// Time returns the native calendar value.
func (p PointInTime) Time() time.Time {
	return p.t
}

// Year returns the calendar year.
func (p PointInTime) Year() int {
	return p.t.Year()
}

// Compact renders the archive encoding, "20211216" or "2021121614".
func (p PointInTime) Compact() string {
	return p.t.Format(p.mode.layoutCompact())
}

// Human renders the readable encoding, "2021-12-16" or "2021-12-16 14".
func (p PointInTime) Human() string {
	return p.t.Format(p.mode.layoutHuman())
}

func (p PointInTime) String() string {
	return p.Human()
}

// Difference returns the inclusive span between two instants in sampling
// units, i.e. the number of units in [a, b] counting both endpoints:
// Difference("2019-12-23", "2019-12-24") == 2. Symmetric in its operands.
func (p PointInTime) Difference(other PointInTime) (int, error) {
	if p.mode != other.mode {
		return 0, &ModeMismatchError{Left: p.Human() + " (" + p.mode.String() + ")", Right: other.Human() + " (" + other.mode.String() + ")"}
	}
	d := p.t.Sub(other.t)
	if d < 0 {
		d = -d
	}
	return int(d/p.mode.Unit()) + 1, nil
}

// DifferenceString is Difference with the other operand given in either
// textual encoding. Parsing may fail before modes are even compared.
func (p PointInTime) DifferenceString(other string) (int, error) {
	o, err := Parse(other)
	if err != nil {
		return 0, err
	}
	return p.Difference(o)
}

// Next returns the adjacent following instant, one day or one hour later.
func (p PointInTime) Next() PointInTime {
	return PointInTime{t: p.t.Add(p.mode.Unit()), mode: p.mode}
}

// Prev returns the adjacent preceding instant.
func (p PointInTime) Prev() PointInTime {
	return PointInTime{t: p.t.Add(-p.mode.Unit()), mode: p.mode}
}

// Before reports whether p is strictly earlier than other. Unlike Equal and
// Difference, ordering compares the underlying instants and does not check
// modes: a day and the hours inside it interleave on one timeline, and the
// segmentation pass relies on ordering mixed values this way.
func (p PointInTime) Before(other PointInTime) bool {
	return p.t.Before(other.t)
}

// After reports whether p is strictly later than other. Mode is ignored, see
// Before.
func (p PointInTime) After(other PointInTime) bool {
	return p.t.After(other.t)
}

// Equal reports same instant and same mode.
func (p PointInTime) Equal(other PointInTime) bool {
	return p.mode == other.mode && p.t.Equal(other.t)
}
