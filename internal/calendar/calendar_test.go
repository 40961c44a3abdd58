package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBookableDateWeekRange(t *testing.T) {
	// Sweep two full weeks: every Saturday and Sunday rejected, every
	// weekday on or after "now" accepted.
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC) // a Monday
	weekdays := 0
	for i := 0; i < 14; i++ {
		date := now.AddDate(0, 0, i)
		bookable := IsBookableDate(now, date)
		if IsWeekend(date) {
			assert.False(t, bookable, date.Format(DayFormat))
			continue
		}
		assert.True(t, bookable, date.Format(DayFormat))
		weekdays++
	}
	assert.Equal(t, 10, weekdays)
}

func TestIsBookableDateRejectsPast(t *testing.T) {
	now := time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC) // a Wednesday

	assert.False(t, IsBookableDate(now, now.AddDate(0, 0, -1)), "yesterday")
	assert.False(t, IsBookableDate(now, now.AddDate(0, -1, 0)), "last month")
	assert.True(t, IsBookableDate(now, now), "same day stays bookable")
	// Earlier clock time on the same day is still the same day.
	assert.True(t, IsBookableDate(now, time.Date(2024, 3, 6, 7, 0, 0, 0, time.UTC)))
}

func TestSameDay(t *testing.T) {
	a := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)
	b := time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC)
	c := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.True(t, SameDay(a, b))
	assert.False(t, SameDay(a, c))
}

func TestSlotTime(t *testing.T) {
	day := time.Date(2024, 3, 4, 23, 59, 0, 0, time.UTC)
	got, err := SlotTime(day, "09:30")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC), got)

	_, err = SlotTime(day, "9.30")
	require.Error(t, err)
}

func TestParseDayRoundTrip(t *testing.T) {
	day, err := ParseDay("2024-03-01")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", DayString(day))
	assert.Equal(t, "01.03.2024", day.Format(DisplayDayFormat))
}
