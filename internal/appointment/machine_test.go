package appointment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTransitionGuardTable(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	visit := now.Add(72 * time.Hour)
	m := NewMachine(fixedClock(now))
	payload := &ClosePayload{Diagnosis: "flu", Recommendations: "rest 3 days"}

	tests := []struct {
		name    string
		from    Status
		to      Status
		payload *ClosePayload
		wantErr bool
	}{
		{"new to approved", StatusNew, StatusApproved, nil, false},
		{"new to canceled", StatusNew, StatusCanceled, nil, false},
		{"approved to done", StatusApproved, StatusDone, payload, false},
		{"approved to canceled", StatusApproved, StatusCanceled, nil, false},
		{"new to done skips approval", StatusNew, StatusDone, payload, true},
		{"done is terminal", StatusDone, StatusCanceled, nil, true},
		{"canceled is terminal", StatusCanceled, StatusApproved, nil, true},
		{"done cannot reopen", StatusDone, StatusApproved, nil, true},
		{"unknown target", StatusNew, Status("PENDING"), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Transition(Appointment{Status: tt.from, Date: visit}, tt.to, tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, tt.from, got.Status, "rejected transition must not mutate")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, got.Status)
		})
	}
}

func TestTransitionDoneRequiresClinicalPayload(t *testing.T) {
	m := NewMachine(nil)
	appt := Appointment{Status: StatusApproved}

	tests := []struct {
		name    string
		payload *ClosePayload
	}{
		{"nil payload", nil},
		{"empty diagnosis", &ClosePayload{Diagnosis: "", Recommendations: "rest"}},
		{"empty recommendations", &ClosePayload{Diagnosis: "flu", Recommendations: ""}},
		{"whitespace only", &ClosePayload{Diagnosis: "  ", Recommendations: "\t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Transition(appt, StatusDone, tt.payload)
			require.Error(t, err)

			var terr *TransitionError
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, ReasonIncompletePayload, terr.Reason)
			assert.Equal(t, StatusApproved, got.Status)
			assert.Empty(t, got.Diagnosis)
			assert.Empty(t, got.Recommendations)
		})
	}
}

func TestTransitionDoneWritesPayloadAtomically(t *testing.T) {
	m := NewMachine(nil)
	got, err := m.Transition(
		Appointment{Status: StatusApproved},
		StatusDone,
		&ClosePayload{Diagnosis: "flu", Recommendations: "rest 3 days"},
	)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
	assert.Equal(t, "flu", got.Diagnosis)
	assert.Equal(t, "rest 3 days", got.Recommendations)
}

func TestCancellationWindowBoundary(t *testing.T) {
	visit := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		now     time.Time
		wantErr bool
	}{
		{"well before the window", visit.Add(-72 * time.Hour), false},
		{"24h and one minute before", visit.Add(-CancellationWindow - time.Minute), false},
		{"exactly 24h before", visit.Add(-CancellationWindow), false},
		{"24h minus one minute before", visit.Add(-CancellationWindow + time.Minute), true},
		{"one hour before", visit.Add(-time.Hour), true},
		{"after the visit", visit.Add(time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(fixedClock(tt.now))
			appt := Appointment{Status: StatusApproved, Date: visit}
			got, err := m.Transition(appt, StatusCanceled, nil)
			if tt.wantErr {
				var terr *TransitionError
				require.True(t, errors.As(err, &terr))
				assert.Equal(t, ReasonCancellationWindow, terr.Reason)
				assert.Equal(t, StatusApproved, got.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusCanceled, got.Status)
		})
	}
}

func TestCancellationWindowDoesNotGateNewAppointments(t *testing.T) {
	// Reception may decline a NEW request at any point, even last minute.
	visit := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	m := NewMachine(fixedClock(visit.Add(-time.Minute)))
	got, err := m.Transition(Appointment{Status: StatusNew, Date: visit}, StatusCanceled, nil)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, got.Status)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, StatusDone.Terminal())
	assert.True(t, StatusCanceled.Terminal())
	assert.False(t, StatusNew.Terminal())
	assert.False(t, StatusApproved.Terminal())

	for _, s := range []Status{StatusNew, StatusApproved, StatusDone, StatusCanceled} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("REJECTED").Valid())
}
