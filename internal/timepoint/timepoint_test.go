package timepoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCompactDaily(t *testing.T) {
	p, err := Parse("20211216")
	require.NoError(t, err)
	assert.Equal(t, Daily, p.Mode())
	assert.Equal(t, "20211216", p.Compact())
	assert.Equal(t, "2021-12-16", p.Human())
	assert.Equal(t, time.Date(2021, 12, 16, 0, 0, 0, 0, time.UTC), p.Time())
}

func TestParseCompactHourly(t *testing.T) {
	p, err := Parse("2021121614")
	require.NoError(t, err)
	assert.Equal(t, Hourly, p.Mode())
	assert.Equal(t, "2021121614", p.Compact())
	assert.Equal(t, "2021-12-16 14", p.Human())
	assert.Equal(t, time.Date(2021, 12, 16, 14, 0, 0, 0, time.UTC), p.Time())
}

func TestParseHuman(t *testing.T) {
	d, err := Parse("2021-12-16")
	require.NoError(t, err)
	assert.Equal(t, Daily, d.Mode())
	assert.Equal(t, "20211216", d.Compact())

	h, err := Parse("2021-12-16 14")
	require.NoError(t, err)
	assert.Equal(t, Hourly, h.Mode())
	assert.Equal(t, "2021121614", h.Compact())
}

func TestRoundTrip(t *testing.T) {
	for _, s := range []string{"17000101", "20200229", "21001231", "2019032600", "2021121623"} {
		p, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, p.Compact(), s)

		q, err := Parse(p.Human())
		require.NoError(t, err, s)
		assert.True(t, p.Equal(q), s)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  error
	}{
		{"compact too short", "2021120", &FormatError{}},
		{"compact too long", "202112011400", &FormatError{}},
		{"human too short", "2021-12-0", &FormatError{}},
		{"human too long", "2021-12-014", &FormatError{}},
		{"non numeric", "202112AB", &FormatError{}},
		{"year below bound", "16991231", &RangeError{}},
		{"year above bound", "21010101", &RangeError{}},
		{"bad month compact", "20219916", &RangeError{}},
		{"bad day compact", "20211200", &RangeError{}},
		{"bad month human", "2021-99-16", &RangeError{}},
		{"bad hour", "2021121624", &RangeError{}},
		{"non leap year feb 29", "20210229", &CalendarError{}},
		{"feb 30", "2021-02-30", &CalendarError{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.value)
			require.Error(t, err)
			switch tt.want.(type) {
			case *FormatError:
				assert.IsType(t, &FormatError{}, err)
			case *RangeError:
				assert.IsType(t, &RangeError{}, err)
			case *CalendarError:
				assert.IsType(t, &CalendarError{}, err)
			}
		})
	}
}

func TestLeapYear(t *testing.T) {
	_, err := Parse("20200229")
	assert.NoError(t, err)

	_, err = Parse("20210229")
	assert.IsType(t, &CalendarError{}, err)
}

func TestParseMode(t *testing.T) {
	_, err := ParseMode("20211216", Daily)
	assert.NoError(t, err)

	// shape implies the other mode
	_, err = ParseMode("20211216", Hourly)
	assert.IsType(t, &FormatError{}, err)

	_, err = ParseMode("2021121614", Daily)
	assert.IsType(t, &FormatError{}, err)
}

func TestFromFields(t *testing.T) {
	p, err := FromDate(2021, 12, 16)
	require.NoError(t, err)
	assert.Equal(t, "20211216", p.Compact())

	h, err := FromHour(2021, 12, 16, 14)
	require.NoError(t, err)
	assert.Equal(t, "2021121614", h.Compact())

	_, err = FromDate(2021, 2, 30)
	assert.IsType(t, &CalendarError{}, err)

	_, err = FromDate(1600, 1, 1)
	assert.IsType(t, &RangeError{}, err)

	_, err = FromHour(2021, 12, 16, 24)
	assert.IsType(t, &RangeError{}, err)
}

func TestFromTimeTruncates(t *testing.T) {
	raw := time.Date(2021, 12, 16, 14, 35, 12, 99, time.UTC)

	d := FromTime(raw, Daily)
	assert.Equal(t, "20211216", d.Compact())

	h := FromTime(raw, Hourly)
	assert.Equal(t, "2021121614", h.Compact())
}

func TestDifferenceInclusive(t *testing.T) {
	a, _ := Parse("20191223")
	b, _ := Parse("20191224")

	n, err := a.Difference(b)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = a.Difference(a)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	x, _ := Parse("2019122414")
	y, _ := Parse("2019122415")
	n, err = x.Difference(y)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDifferenceSymmetric(t *testing.T) {
	a, _ := Parse("20200101")
	b, _ := Parse("20200229")

	ab, err := a.Difference(b)
	require.NoError(t, err)
	ba, err := b.Difference(a)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
	assert.Equal(t, 60, ab) // leap year February
}

func TestDifferenceModeMismatch(t *testing.T) {
	d, _ := Parse("20211216")
	h, _ := Parse("2021121614")

	_, err := d.Difference(h)
	assert.IsType(t, &ModeMismatchError{}, err)

	_, err = h.Difference(d)
	assert.IsType(t, &ModeMismatchError{}, err)
}

func TestDifferenceString(t *testing.T) {
	d, _ := Parse("20211216")

	n, err := d.DifferenceString("2021-12-18")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, err = d.DifferenceString("garbage")
	assert.IsType(t, &FormatError{}, err)

	_, err = d.DifferenceString("2021121614")
	assert.IsType(t, &ModeMismatchError{}, err)
}

func TestNextPrev(t *testing.T) {
	d, _ := Parse("20211231")
	assert.Equal(t, "20220101", d.Next().Compact())
	assert.Equal(t, "20211230", d.Prev().Compact())

	h, _ := Parse("2021123123")
	assert.Equal(t, "2022010100", h.Next().Compact())
	assert.Equal(t, "2021123122", h.Prev().Compact())
}

func TestNextPrevInverse(t *testing.T) {
	for _, s := range []string{"20200228", "20200301", "17000101", "2021121600", "2021121623"} {
		p, err := Parse(s)
		require.NoError(t, err)
		assert.True(t, p.Next().Prev().Equal(p), s)
		assert.True(t, p.Prev().Next().Equal(p), s)
	}
}

func TestOrdering(t *testing.T) {
	a, _ := Parse("20211215")
	b, _ := Parse("20211216")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
}

func TestOrderingIgnoresMode(t *testing.T) {
	day, err := Parse("20211215")
	require.NoError(t, err)
	hour, err := Parse("2021121512")
	require.NoError(t, err)

	// ordering runs on the shared timeline even across modes
	assert.True(t, day.Before(hour))
	assert.True(t, hour.After(day))

	// equality stays mode-aware: midnight of the day and hour zero coincide
	// as instants yet are distinct values
	midnight, err := Parse("2021121500")
	require.NoError(t, err)
	assert.False(t, day.Equal(midnight))
	assert.False(t, day.Before(midnight))
	assert.False(t, day.After(midnight))
}
