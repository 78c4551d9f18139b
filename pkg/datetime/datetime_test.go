package datetime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate_KeepsUTCDay(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC+2", 2*60*60),
		time.FixedZone("UTC-8", -8*60*60),
		time.FixedZone("UTC+14", 14*60*60),
	}

	instant := time.Date(2025, time.November, 12, 23, 0, 0, 0, time.UTC)
	for _, loc := range zones {
		t.Run(loc.String(), func(t *testing.T) {
			assert.Equal(t, "12-11-25 | 12:00 AM", FormatDate(instant.In(loc)))
		})
	}
}

func TestFormatDateString(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{name: "late UTC evening", value: "2025-11-12T23:00:00.000Z", expected: "12-11-25 | 12:00 AM"},
		{name: "midnight UTC", value: "2025-11-12T00:00:00.000Z", expected: "12-11-25 | 12:00 AM"},
		{name: "plain date", value: "2025-11-12", expected: "12-11-25 | 12:00 AM"},
		{name: "offset normalised to UTC day", value: "2025-11-13T01:00:00+02:00", expected: "12-11-25 | 12:00 AM"},
		{name: "garbage", value: "not a date", expected: InvalidDate},
		{name: "empty", value: "", expected: InvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDateString(tt.value))
		})
	}
}

func TestFormatTimestamp_ConvertsToLocation(t *testing.T) {
	value := "2025-11-12T23:00:00.000Z"

	assert.Equal(t, "12-11-25 | 11:00 PM", FormatTimestampString(value, time.UTC))
	assert.Equal(t, "13-11-25 | 01:00 AM", FormatTimestampString(value, time.FixedZone("UTC+2", 2*60*60)))
	assert.Equal(t, "12-11-25 | 03:00 PM", FormatTimestampString(value, time.FixedZone("UTC-8", -8*60*60)))

	// Date formatting is unaffected by the same offset.
	assert.Equal(t, "12-11-25 | 12:00 AM", FormatDateString(value))
}

func TestFormatTimestamp_Invalid(t *testing.T) {
	assert.Equal(t, InvalidDate, FormatTimestampString("31/31/2025", time.UTC))
	assert.Equal(t, InvalidDate, FormatTimestamp(time.Time{}, time.UTC))
	assert.Equal(t, InvalidDate, FormatDate(time.Time{}))
}

func TestParseDate(t *testing.T) {
	expected := time.Date(2025, time.November, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
	}{
		{name: "iso date", value: "2025-11-12"},
		{name: "rfc3339", value: "2025-11-12T23:00:00Z"},
		{name: "rfc3339 nano", value: "2025-11-12T08:09:54.138Z"},
		{name: "display layout", value: "12-11-25 | 12:00 AM"},
		{name: "surrounding spaces", value: "  2025-11-12 "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.value)
			require.NoError(t, err)
			assert.True(t, expected.Equal(got), "expected %s, got %s", expected, got)
		})
	}

	_, err := ParseDate("yesterday")
	assert.Error(t, err)
}

func TestParseDate_RoundTripsFormatDate(t *testing.T) {
	day := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)

	parsed, err := ParseDate(FormatDate(day))
	require.NoError(t, err)
	assert.True(t, day.Equal(parsed))
}

func TestISODate(t *testing.T) {
	late := time.Date(2025, time.November, 12, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-11-12", ISODate(late))
	assert.Equal(t, "2025-11-12", ISODate(late.In(time.FixedZone("UTC+2", 2*3600))))
}

func TestInDisplayRange_SurvivesFormatAndParse(t *testing.T) {
	for _, day := range []time.Time{MinDisplayDay, MaxDisplayDay} {
		assert.True(t, InDisplayRange(day))
		parsed, err := ParseDate(FormatDate(day))
		require.NoError(t, err)
		assert.True(t, day.Equal(parsed), "day %s came back as %s", day, parsed)
	}

	outside := time.Date(2070, time.January, 15, 0, 0, 0, 0, time.UTC)
	assert.False(t, InDisplayRange(outside))
	assert.False(t, InDisplayRange(MinDisplayDay.Add(-time.Second)))
}
