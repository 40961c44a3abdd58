// Package calendar holds the clinic's date rules: visits happen on weekdays
// only, and every component formats and compares days the same way.
package calendar

import "time"

const (
	// DayFormat is the wire format for calendar days.
	DayFormat = "2006-01-02"
	// DisplayDayFormat is what the front desk shows and searches by.
	DisplayDayFormat = "02.01.2006"
	// SlotFormat is the clock-time format of a booking slot.
	SlotFormat = "15:04"
)

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsBookableDate reports whether date may take a new booking as of now:
// weekends never, days before today never, today and later weekdays yes.
// The weekend rule is a fixed business rule, not a locale setting.
func IsBookableDate(now, date time.Time) bool {
	if IsWeekend(date) {
		return false
	}
	return !Day(date).Before(Day(now))
}

// Day truncates t to midnight UTC, keeping only the calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

// DayString renders t as a wire-format day.
func DayString(t time.Time) string {
	return t.Format(DayFormat)
}

// ParseDay parses a wire-format day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DayFormat, s)
}

// SlotTime combines a calendar day with an "HH:MM" slot start.
func SlotTime(day time.Time, slot string) (time.Time, error) {
	clock, err := time.Parse(SlotFormat, slot)
	if err != nil {
		return time.Time{}, err
	}
	d := Day(day)
	return d.Add(time.Duration(clock.Hour())*time.Hour + time.Duration(clock.Minute())*time.Minute), nil
}
