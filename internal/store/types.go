// Package store is the HTTP client for the remote appointment store. The
// store owns the appointment collection and is the final arbiter for every
// transition; this client only shapes requests and classifies failures.
package store

import (
	"time"

	"github.com/clinicdesk/frontdesk/internal/appointment"
)

// Doctor is a bookable practitioner. Hours is the standing weekly template:
// slot start times per weekday. A weekday absent from the map means the
// doctor does not see patients that day.
type Doctor struct {
	ID             string                    `json:"doctorId"`
	FirstName      string                    `json:"firstName"`
	LastName       string                    `json:"lastName"`
	Specialization string                    `json:"specialization"`
	Hours          map[time.Weekday][]string `json:"-"`
	RawHours       map[string][]string       `json:"hours"`
}

// FullName renders the display name the way the front desk shows it.
func (d Doctor) FullName() string {
	return d.FirstName + " " + d.LastName
}

// Filter narrows a ListAppointments call. Zero values mean "no constraint".
type Filter struct {
	DoctorID string               `json:"doctorId,omitempty"`
	Day      *time.Time           `json:"appointmentDate,omitempty"`
	Statuses []appointment.Status `json:"statuses,omitempty"`
}

// Matches reports whether appt would be returned by a query with this
// filter. The reconciliation engine uses it to decide which views a
// confirmed mutation may have touched.
func (f Filter) Matches(appt appointment.Appointment) bool {
	if f.DoctorID != "" && appt.DoctorID != f.DoctorID {
		return false
	}
	if f.Day != nil {
		fd, ad := f.Day.UTC(), appt.Date.UTC()
		if fd.Year() != ad.Year() || fd.YearDay() != ad.YearDay() {
			return false
		}
	}
	return f.MatchesStatus(appt.Status)
}

// MatchesStatus reports whether the filter admits the given status.
func (f Filter) MatchesStatus(s appointment.Status) bool {
	if len(f.Statuses) == 0 {
		return true
	}
	for _, st := range f.Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// TransitionRequest is the single mutation shape accepted by the store.
// Payload is required for the DONE transition and ignored otherwise.
type TransitionRequest struct {
	AppointmentID string                    `json:"appointmentId"`
	RequesterID   string                    `json:"requesterId"`
	Target        appointment.Status        `json:"newStatus"`
	Payload       *appointment.ClosePayload `json:"payload,omitempty"`
}
