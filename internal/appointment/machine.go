package appointment

import (
	"strings"
	"time"
)

// CancellationWindow is how close to the visit an approved appointment can no
// longer be canceled. Strictly less than the window blocks; exactly at the
// window still cancels.
const CancellationWindow = 24 * time.Hour

// ClosePayload carries the clinical fields written when a visit is closed.
// Both fields are mandatory for the DONE transition.
type ClosePayload struct {
	Diagnosis       string
	Recommendations string
}

// edges is the guard table: every legal transition appears here, nothing
// transitions out of DONE or CANCELED.
var edges = map[Status][]Status{
	StatusNew:      {StatusApproved, StatusCanceled},
	StatusApproved: {StatusDone, StatusCanceled},
}

// Machine evaluates transitions against an injected clock. The clock matters
// only for the cancellation window guard.
type Machine struct {
	now func() time.Time
}

// NewMachine constructs a state machine. A nil clock falls back to time.Now.
func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

// CanReach reports whether the guard table has an edge from -> to. It does
// not evaluate guards, only reachability.
func CanReach(from, to Status) bool {
	for _, t := range edges[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Transition applies target to a copy of appt and returns it. On any guard
// violation the returned appointment is the unmodified input and the error is
// a *TransitionError wrapping ErrInvalidTransition. The clinical payload is
// written in the same step as the status change, never separately.
func (m *Machine) Transition(appt Appointment, target Status, payload *ClosePayload) (Appointment, error) {
	if !target.Valid() || !CanReach(appt.Status, target) {
		return appt, &TransitionError{From: appt.Status, To: target, Reason: ReasonWrongSourceState}
	}

	switch {
	case appt.Status == StatusApproved && target == StatusCanceled:
		if appt.Date.Sub(m.now()) < CancellationWindow {
			return appt, &TransitionError{From: appt.Status, To: target, Reason: ReasonCancellationWindow}
		}
	case target == StatusDone:
		if payload == nil ||
			strings.TrimSpace(payload.Diagnosis) == "" ||
			strings.TrimSpace(payload.Recommendations) == "" {
			return appt, &TransitionError{From: appt.Status, To: target, Reason: ReasonIncompletePayload}
		}
		appt.Diagnosis = payload.Diagnosis
		appt.Recommendations = payload.Recommendations
	}

	appt.Status = target
	return appt, nil
}
