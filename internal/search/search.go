// Package search filters view snapshots. Matching is a pure function over
// records already in hand; it never reaches the remote store.
package search

import (
	"strings"
	"time"

	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/calendar"
)

// AnyDoctor is the doctor-name sentinel that matches every doctor.
const AnyDoctor = ""

// Criteria is a conjunctive predicate: a record matches only if every set
// field matches. Zero values relax their clause.
type Criteria struct {
	// DoctorName matches exactly, or everything when AnyDoctor.
	DoctorName string
	// PatientPrefix matches the start of the patient name, case-sensitive
	// as supplied.
	PatientPrefix string
	// Day matches the appointment's calendar day exactly.
	Day *time.Time
	// Statuses is a membership test; empty admits every status.
	Statuses []appointment.Status
}

// Matches reports whether appt satisfies every clause of the criteria.
func (c Criteria) Matches(appt appointment.Appointment) bool {
	if c.DoctorName != AnyDoctor && appt.DoctorName != c.DoctorName {
		return false
	}
	if c.PatientPrefix != "" && !strings.HasPrefix(appt.PatientName, c.PatientPrefix) {
		return false
	}
	if c.Day != nil && !calendar.SameDay(appt.Date, *c.Day) {
		return false
	}
	if len(c.Statuses) == 0 {
		return true
	}
	for _, s := range c.Statuses {
		if appt.Status == s {
			return true
		}
	}
	return false
}

// Apply returns the records matching the criteria, preserving input order.
// An empty input yields an empty result, never an error.
func Apply(records []appointment.Appointment, c Criteria) []appointment.Appointment {
	out := make([]appointment.Appointment, 0, len(records))
	for _, r := range records {
		if c.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Archive builds the archive-search criteria: closed and canceled visits for
// a doctor (or all doctors), a patient-name prefix, and one calendar day.
func Archive(doctorName, patientPrefix string, day time.Time) Criteria {
	return Criteria{
		DoctorName:    doctorName,
		PatientPrefix: patientPrefix,
		Day:           &day,
		Statuses:      []appointment.Status{appointment.StatusDone, appointment.StatusCanceled},
	}
}

// ApprovedOn builds the daily-schedule criteria: approved visits on one day.
func ApprovedOn(day time.Time) Criteria {
	return Criteria{
		Day:      &day,
		Statuses: []appointment.Status{appointment.StatusApproved},
	}
}
