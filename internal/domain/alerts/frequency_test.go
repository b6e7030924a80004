package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFrequency_NextEmailDate(t *testing.T) {
	tests := []struct {
		name      string
		frequency Frequency
		reference time.Time
		want      time.Time
	}{
		{"daily adds one day", FrequencyDaily, date(2024, time.March, 14), date(2024, time.March, 15)},
		{"daily across month boundary", FrequencyDaily, date(2024, time.January, 31), date(2024, time.February, 1)},
		{"weekly adds seven days", FrequencyWeekly, date(2024, time.January, 1), date(2024, time.January, 8)},
		{"weekly across year boundary", FrequencyWeekly, date(2023, time.December, 28), date(2024, time.January, 4)},
		{"monthly same day", FrequencyMonthly, date(2024, time.March, 15), date(2024, time.April, 15)},
		{"monthly clamps to leap february", FrequencyMonthly, date(2024, time.January, 31), date(2024, time.February, 29)},
		{"monthly clamps to non-leap february", FrequencyMonthly, date(2023, time.January, 31), date(2023, time.February, 28)},
		{"monthly clamps 31st to 30-day month", FrequencyMonthly, date(2024, time.March, 31), date(2024, time.April, 30)},
		{"monthly across year boundary", FrequencyMonthly, date(2023, time.December, 31), date(2024, time.January, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.frequency.NextEmailDate(tt.reference)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFrequency_NextEmailDate_LeapYearNotTruncated(t *testing.T) {
	// Jan 31 2024 + 1 month must land on Feb 29, not Feb 28.
	got, err := FrequencyMonthly.NextEmailDate(date(2024, time.January, 31))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.February, 29), got)
	assert.NotEqual(t, date(2024, time.February, 28), got)
}

func TestFrequency_NextEmailDate_Unknown(t *testing.T) {
	_, err := Frequency("FORTNIGHTLY").NextEmailDate(date(2024, time.January, 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownFrequency)
	assert.Contains(t, err.Error(), "FORTNIGHTLY")
}

func TestFrequency_Known(t *testing.T) {
	assert.True(t, FrequencyDaily.Known())
	assert.True(t, FrequencyWeekly.Known())
	assert.True(t, FrequencyMonthly.Known())
	assert.False(t, Frequency("").Known())
	assert.False(t, Frequency("daily").Known())
}
