package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlexibleDate(t *testing.T) {
	cases := []struct {
		input string
		want  time.Time
	}{
		{"2015-04-28", time.Date(2015, time.April, 28, 0, 0, 0, 0, time.UTC)},
		{"04/28/2015", time.Date(2015, time.April, 28, 0, 0, 0, 0, time.UTC)},
		{"2015-04-28 15:10:00", time.Date(2015, time.April, 28, 15, 10, 0, 0, time.UTC)},
		{"2015-04-28 15:10", time.Date(2015, time.April, 28, 15, 10, 0, 0, time.UTC)},
		{" 2015-04-28 ", time.Date(2015, time.April, 28, 0, 0, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		got, err := ParseFlexibleDate(tc.input)
		require.NoError(t, err, "input %q", tc.input)
		assert.Equal(t, tc.want, got, "input %q", tc.input)
	}

	_, err := ParseFlexibleDate("")
	assert.Error(t, err)
	_, err = ParseFlexibleDate("tomorrow")
	assert.Error(t, err)
}

func TestFormatDateTime(t *testing.T) {
	assert.Equal(t, "2015-04-28", FormatDateTime(time.Date(2015, time.April, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2015-04-28 15:10", FormatDateTime(time.Date(2015, time.April, 28, 15, 10, 0, 0, time.UTC)))
}

func TestRoundFloat(t *testing.T) {
	assert.Equal(t, 8.97, RoundFloat(8.9703, 2))
	assert.Equal(t, 1.94, RoundFloat(30-28.06, 2))
	assert.Equal(t, 730.5, RoundFloat(536.5+194.004, 2))
	assert.Equal(t, 0.0, RoundFloat(0.00004, 4))
}
