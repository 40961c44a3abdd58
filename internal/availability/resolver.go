// Package availability decides which dates and times are legal for booking:
// weekdays only, no past dates, and one booking per doctor slot.
package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/calendar"
	"github.com/clinicdesk/frontdesk/internal/store"
	"github.com/clinicdesk/frontdesk/pkg/logging"
)

// scheduleSource is the slice of the remote store the resolver needs.
type scheduleSource interface {
	GetDoctorSchedule(ctx context.Context, doctorID string, day time.Time) ([]appointment.Appointment, error)
	ListDoctors(ctx context.Context) ([]store.Doctor, error)
}

// Resolver computes bookable slots from a doctor's weekly template minus the
// bookings already taken.
type Resolver struct {
	src    scheduleSource
	now    func() time.Time
	logger *logging.Logger
}

// NewResolver constructs a resolver. A nil clock falls back to time.Now.
func NewResolver(src scheduleSource, now func() time.Time, logger *logging.Logger) *Resolver {
	if src == nil {
		panic("availability: schedule source required")
	}
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{src: src, now: now, logger: logger}
}

// IsBookableDate reports whether date may take a new booking as of the
// resolver's clock.
func (r *Resolver) IsBookableDate(date time.Time) bool {
	return calendar.IsBookableDate(r.now(), date)
}

// SlotsFor returns the open "HH:MM" slot starts for a doctor on a date, in
// template order. A non-bookable date and a weekday without a template entry
// both yield an empty result with no error; those are business facts, not
// failures.
func (r *Resolver) SlotsFor(ctx context.Context, doctorID string, date time.Time) ([]string, error) {
	if !r.IsBookableDate(date) {
		return nil, nil
	}

	template, err := r.template(ctx, doctorID, date.Weekday())
	if err != nil {
		return nil, err
	}
	if len(template) == 0 {
		return nil, nil
	}

	booked, err := r.bookedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}

	open := make([]string, 0, len(template))
	for _, slot := range template {
		if !booked[slot] {
			open = append(open, slot)
		}
	}
	return open, nil
}

func (r *Resolver) template(ctx context.Context, doctorID string, weekday time.Weekday) ([]string, error) {
	doctors, err := r.src.ListDoctors(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range doctors {
		if d.ID == doctorID {
			return d.Hours[weekday], nil
		}
	}
	return nil, fmt.Errorf("availability: unknown doctor %s", doctorID)
}

// bookedTimes collects the occupied slot starts for the doctor's day.
// Canceled bookings free their slot.
func (r *Resolver) bookedTimes(ctx context.Context, doctorID string, date time.Time) (map[string]bool, error) {
	appts, err := r.src.GetDoctorSchedule(ctx, doctorID, date)
	if err != nil {
		return nil, err
	}
	booked := make(map[string]bool, len(appts))
	for _, appt := range appts {
		if appt.Status == appointment.StatusCanceled {
			continue
		}
		if !calendar.SameDay(appt.Date, date) {
			continue
		}
		booked[appt.Date.Format(calendar.SlotFormat)] = true
	}
	return booked, nil
}
