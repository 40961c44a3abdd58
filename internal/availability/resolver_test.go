package availability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/store"
)

type fakeSource struct {
	doctors  []store.Doctor
	schedule []appointment.Appointment
	err      error
}

func (f *fakeSource) GetDoctorSchedule(_ context.Context, _ string, _ time.Time) ([]appointment.Appointment, error) {
	return f.schedule, f.err
}

func (f *fakeSource) ListDoctors(_ context.Context) ([]store.Doctor, error) {
	return f.doctors, f.err
}

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func drKowalski() store.Doctor {
	return store.Doctor{
		ID:        "1038",
		FirstName: "Jan",
		LastName:  "Kowalski",
		Hours: map[time.Weekday][]string{
			time.Monday: {"09:00", "09:30", "10:00", "10:30"},
			time.Friday: {"14:00"},
		},
	}
}

func TestSlotsForSubtractsBookings(t *testing.T) {
	at := func(slot string) time.Time {
		tm, err := time.Parse("15:04", slot)
		require.NoError(t, err)
		return monday.Add(time.Duration(tm.Hour())*time.Hour + time.Duration(tm.Minute())*time.Minute)
	}

	src := &fakeSource{
		doctors: []store.Doctor{drKowalski()},
		schedule: []appointment.Appointment{
			{ID: "1", DoctorID: "1038", Date: at("09:30"), Status: appointment.StatusApproved},
			{ID: "2", DoctorID: "1038", Date: at("10:00"), Status: appointment.StatusNew},
			// Canceled bookings give the slot back.
			{ID: "3", DoctorID: "1038", Date: at("09:00"), Status: appointment.StatusCanceled},
		},
	}
	r := NewResolver(src, clock(monday.Add(-48*time.Hour)), nil)

	slots, err := r.SlotsFor(context.Background(), "1038", monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:30"}, slots)
}

func TestSlotsForNonBookableDateIsEmptyNotError(t *testing.T) {
	src := &fakeSource{doctors: []store.Doctor{drKowalski()}}
	r := NewResolver(src, clock(monday), nil)

	saturday := monday.AddDate(0, 0, 5)
	slots, err := r.SlotsFor(context.Background(), "1038", saturday)
	require.NoError(t, err)
	assert.Empty(t, slots)

	past := monday.AddDate(0, 0, -7)
	slots, err = r.SlotsFor(context.Background(), "1038", past)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotsForNoTemplateWeekday(t *testing.T) {
	src := &fakeSource{doctors: []store.Doctor{drKowalski()}}
	r := NewResolver(src, clock(monday), nil)

	// Dr Kowalski has no Wednesday template entry.
	wednesday := monday.AddDate(0, 0, 2)
	slots, err := r.SlotsFor(context.Background(), "1038", wednesday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestSlotsForFullTemplateWhenNothingBooked(t *testing.T) {
	src := &fakeSource{doctors: []store.Doctor{drKowalski()}}
	r := NewResolver(src, clock(monday), nil)

	slots, err := r.SlotsFor(context.Background(), "1038", monday)
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "09:30", "10:00", "10:30"}, slots)
}

func TestSlotsForUnknownDoctor(t *testing.T) {
	src := &fakeSource{doctors: []store.Doctor{drKowalski()}}
	r := NewResolver(src, clock(monday), nil)

	_, err := r.SlotsFor(context.Background(), "9999", monday)
	require.Error(t, err)
}

func TestSlotsForPropagatesTransportFailure(t *testing.T) {
	src := &fakeSource{err: &store.TransportError{Op: "list doctors", StatusCode: 502}}
	r := NewResolver(src, clock(monday), nil)

	_, err := r.SlotsFor(context.Background(), "1038", monday)
	var te *store.TransportError
	assert.True(t, errors.As(err, &te))
}
