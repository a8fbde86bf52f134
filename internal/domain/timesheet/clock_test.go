package timesheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "08:00", FormatClock(480))
	assert.Equal(t, "176:00", FormatClock(10560))
	assert.Equal(t, "01:30", FormatClock(-90))
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "+00:00", FormatBalance(0))
	assert.Equal(t, "-01:30", FormatBalance(-90))
	assert.Equal(t, "+08:05", FormatBalance(485))
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"08:00", 480},
		{"08:00:00", 480},
		{"06:00:59", 360},
		{"176:00", 10560},
		{"+01:15", 75},
		{"-01:30", -90},
		{" 00:05 ", 5},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseClock(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "abc", "8:61", "08:00:60", "08h00"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestFormatParseClockRoundTrip(t *testing.T) {
	for m := 0; m < 100000; m++ {
		got, err := ParseClock(FormatClock(m))
		if err != nil || got != m {
			require.Failf(t, "round trip mismatch", "minutes=%d formatted=%q got=%d err=%v", m, FormatClock(m), got, err)
		}
	}
}

func TestFormatParseBalanceRoundTrip(t *testing.T) {
	for _, m := range []int{0, 1, -1, 59, -61, 10560, -4380} {
		got, err := ParseClock(FormatBalance(m))
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestParseTimeOfDay(t *testing.T) {
	m, ok := ParseTimeOfDay("8:05")
	assert.True(t, ok)
	assert.Equal(t, 485, m)

	m, ok = ParseTimeOfDay("23:59")
	assert.True(t, ok)
	assert.Equal(t, 1439, m)

	for _, bad := range []string{"24:00", "12:60", "FERIADO", "", "08:00:00"} {
		_, ok := ParseTimeOfDay(bad)
		assert.False(t, ok, bad)
	}
}
