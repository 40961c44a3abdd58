// Package appointment defines the appointment record and the state machine
// governing its lifecycle. Every status change in the system goes through
// Machine.Transition so the rules live in exactly one place.
package appointment

import "time"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusNew      Status = "NEW"
	StatusApproved Status = "APPROVED"
	StatusDone     Status = "DONE"
	StatusCanceled Status = "CANCELED"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusApproved, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusCanceled
}

// Appointment is the central record. Identity is by ID; doctor and patient
// display names are denormalized copies owned by the remote store. Date is
// fixed at booking time and never changes afterwards.
type Appointment struct {
	ID              string    `json:"appointmentId"`
	DoctorID        string    `json:"doctorId"`
	DoctorName      string    `json:"doctorName"`
	PatientID       string    `json:"patientId"`
	PatientName     string    `json:"patientName"`
	Date            time.Time `json:"appointmentDate"`
	Symptoms        string    `json:"patientSymptoms"`
	Medicines       string    `json:"medicinesTaken"`
	Diagnosis       string    `json:"diagnosis,omitempty"`
	Recommendations string    `json:"recommendations,omitempty"`
	Status          Status    `json:"status"`

	// Revision counts accepted mutations server-side. It only ever grows;
	// the reconciliation engine compares revisions to detect stale views.
	Revision int64 `json:"revision"`
}

// Closed reports whether the clinical payload has been written.
func (a Appointment) Closed() bool {
	return a.Status == StatusDone
}
