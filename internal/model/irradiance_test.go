package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDayOfYear_Boundaries(t *testing.T) {
	assert.Equal(t, 1, DayOfYear(1, 1))
	assert.Equal(t, 365, DayOfYear(12, 31))
	assert.Equal(t, 32, DayOfYear(2, 1))
	assert.Equal(t, 60, DayOfYear(3, 1), "no leap day")
	assert.Equal(t, 172, DayOfYear(6, 21))
}

func TestTimestamp_DayOfYearMatchesNonLeapCalendar(t *testing.T) {
	day := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
	for day.Year() == 2023 {
		ts := TimestampFromTime(day)
		require.Equal(t, day.YearDay(), ts.DayOfYear(), day.Format("2006-01-02"))
		day = day.AddDate(0, 0, 1)
	}
}

func TestTimestamp_FractionalHour(t *testing.T) {
	assert.Equal(t, 12.0, Timestamp{Month: 6, Day: 21, Hour: 12}.FractionalHour())
	assert.Equal(t, 13.5, Timestamp{Month: 6, Day: 21, Hour: 13, Minute: 30}.FractionalHour())
}

func TestTimestamp_Validate(t *testing.T) {
	assert.NoError(t, Timestamp{Month: 2, Day: 28, Hour: 23, Minute: 30}.Validate())

	for _, ts := range []Timestamp{
		{Month: 0, Day: 1},
		{Month: 13, Day: 1},
		{Month: 2, Day: 29},
		{Month: 4, Day: 0},
		{Month: 4, Day: 1, Hour: 24},
		{Month: 4, Day: 1, Minute: 60},
	} {
		assert.ErrorIs(t, ts.Validate(), ErrInvalidTimestamp, "%+v", ts)
	}
}

func TestTimestamp_TimeRoundTrip(t *testing.T) {
	ts := Timestamp{Year: 2005, Month: 7, Day: 4, Hour: 9, Minute: 30}
	assert.Equal(t, time.Date(2005, time.July, 4, 9, 30, 0, 0, time.UTC), ts.Time())
	assert.Equal(t, ts, TimestampFromTime(ts.Time()))
}

func TestLocation_Validate(t *testing.T) {
	assert.NoError(t, Location{Latitude: 34.05, Longitude: -118.24, UTCOffset: -8}.Validate())
	assert.NoError(t, Location{Latitude: -90}.Validate())
	assert.ErrorIs(t, Location{Latitude: 90.5}.Validate(), ErrInvalidLatitude)
	assert.ErrorIs(t, Location{Latitude: -91}.Validate(), ErrInvalidLatitude)
}

func TestCellParameters_Validate(t *testing.T) {
	require.NoError(t, ReferenceCell().Validate())

	c := ReferenceCell()
	c.Ideality = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidIdeality)

	c = ReferenceCell()
	c.NSeries = 0
	assert.ErrorIs(t, c.Validate(), ErrInvalidCellCount)

	c = ReferenceCell()
	c.OCVoltage = -1
	assert.ErrorIs(t, c.Validate(), ErrInvalidCellParameters)
}

func TestColumnCatalog(t *testing.T) {
	assert.Equal(t, "W/m²", ColumnCatalog[ColumnDHI].Unit)
	assert.Equal(t, "W", ColumnCatalog[ColumnPowerOut].Unit)
}
