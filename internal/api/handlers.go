// Package api is the HTTP facade the front-desk UI talks to: view snapshots,
// the transition entry point, availability lookups, and archive search.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/availability"
	"github.com/clinicdesk/frontdesk/internal/calendar"
	"github.com/clinicdesk/frontdesk/internal/search"
	"github.com/clinicdesk/frontdesk/internal/stats"
	"github.com/clinicdesk/frontdesk/internal/store"
	"github.com/clinicdesk/frontdesk/internal/views"
	"github.com/clinicdesk/frontdesk/pkg/logging"
)

// Canonical view names registered at startup.
const (
	ViewNewAppointments = "new-appointments"
	ViewTodayApproved   = "today-approved"
	ViewArchive         = "archive"
)

type doctorSource interface {
	ListDoctors(ctx context.Context) ([]store.Doctor, error)
}

// Handler exposes the coordination core over HTTP.
type Handler struct {
	registry *views.Registry
	resolver *availability.Resolver
	doctors  doctorSource
	logger   *logging.Logger
}

// NewHandler constructs the facade handler.
func NewHandler(registry *views.Registry, resolver *availability.Resolver, doctors doctorSource, logger *logging.Logger) *Handler {
	if registry == nil {
		panic("api: view registry required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		registry: registry,
		resolver: resolver,
		doctors:  doctors,
		logger:   logger,
	}
}

type snapshotResponse struct {
	Name    string                    `json:"name"`
	Records []appointment.Appointment `json:"records"`
	Version uint64                    `json:"version"`
	TakenAt time.Time                 `json:"takenAt"`
	Loaded  bool                      `json:"loaded"`
	Stale   bool                      `json:"stale"`
}

// GetView returns a view's current snapshot without touching the store.
// GET /api/views/{name}
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok := h.registry.View(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown view", "")
		return
	}
	writeSnapshot(w, v)
}

// RefreshView refreshes a view now and returns the result. This is the
// explicit-action path archive views rely on.
// POST /api/views/{name}/refresh
func (h *Handler) RefreshView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	v, ok := h.registry.View(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown view", "")
		return
	}
	if err := v.Refresh(r.Context()); err != nil {
		h.logger.Warn("manual refresh failed", "view", name, "error", err)
		writeError(w, http.StatusBadGateway, "appointment store unreachable", "")
		return
	}
	writeSnapshot(w, v)
}

type transitionBody struct {
	RequesterID     string             `json:"requesterId"`
	NewStatus       appointment.Status `json:"newStatus"`
	Diagnosis       string             `json:"diagnosis,omitempty"`
	Recommendations string             `json:"recommendations,omitempty"`
}

// Transition is the single mutation endpoint.
// POST /api/appointments/{appointmentID}/transition
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "appointmentID")

	var body transitionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if !body.NewStatus.Valid() {
		writeError(w, http.StatusBadRequest, "unknown target status", "")
		return
	}

	req := store.TransitionRequest{
		AppointmentID: appointmentID,
		RequesterID:   body.RequesterID,
		Target:        body.NewStatus,
	}
	if body.NewStatus == appointment.StatusDone {
		req.Payload = &appointment.ClosePayload{
			Diagnosis:       body.Diagnosis,
			Recommendations: body.Recommendations,
		}
	}

	updated, err := h.registry.RequestTransition(r.Context(), req)
	if err != nil {
		h.writeTransitionError(w, appointmentID, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) writeTransitionError(w http.ResponseWriter, appointmentID string, err error) {
	var terr *appointment.TransitionError
	switch {
	case errors.As(err, &terr):
		writeError(w, http.StatusUnprocessableEntity, terr.Error(), string(terr.Reason))
	case errors.Is(err, store.ErrStaleView):
		writeError(w, http.StatusConflict, "appointment changed since last refresh, re-confirm", "stale_view")
	case store.IsTransport(err):
		writeError(w, http.StatusBadGateway, "appointment store unreachable", "")
	default:
		h.logger.Error("transition failed", "appointment_id", appointmentID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", "")
	}
}

// ListDoctors feeds the doctor-selection filter.
// GET /api/doctors
func (h *Handler) ListDoctors(w http.ResponseWriter, r *http.Request) {
	doctors, err := h.doctors.ListDoctors(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "appointment store unreachable", "")
		return
	}
	writeJSON(w, http.StatusOK, doctors)
}

type slotsResponse struct {
	DoctorID string   `json:"doctorId"`
	Date     string   `json:"date"`
	Slots    []string `json:"slots"`
}

// GetSlots returns the open booking slots for a doctor and date.
// GET /api/doctors/{doctorID}/slots?date=2024-03-04
func (h *Handler) GetSlots(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	date, err := calendar.ParseDay(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "")
		return
	}

	slots, err := h.resolver.SlotsFor(r.Context(), doctorID, date)
	if err != nil {
		if store.IsTransport(err) {
			writeError(w, http.StatusBadGateway, "appointment store unreachable", "")
			return
		}
		writeError(w, http.StatusNotFound, err.Error(), "")
		return
	}
	if slots == nil {
		slots = []string{}
	}
	writeJSON(w, http.StatusOK, slotsResponse{DoctorID: doctorID, Date: calendar.DayString(date), Slots: slots})
}

// Search runs the archive search: refreshes the archive view (searching is
// the explicit user action that ages it) and filters the snapshot.
// GET /api/search?doctor=Jan+Kowalski&patient=Kowa&date=2024-03-01
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	v, ok := h.registry.View(ViewArchive)
	if !ok {
		writeError(w, http.StatusNotFound, "archive view not registered", "")
		return
	}
	if err := v.Refresh(r.Context()); err != nil && !v.Snapshot().Loaded {
		writeError(w, http.StatusBadGateway, "appointment store unreachable", "")
		return
	}

	q := r.URL.Query()
	criteria := search.Criteria{
		DoctorName:    q.Get("doctor"),
		PatientPrefix: q.Get("patient"),
		Statuses:      []appointment.Status{appointment.StatusDone, appointment.StatusCanceled},
	}
	if raw := q.Get("date"); raw != "" {
		day, err := calendar.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "")
			return
		}
		criteria.Day = &day
	}

	writeJSON(w, http.StatusOK, search.Apply(v.Snapshot().Records, criteria))
}

// GetStats aggregates the archive snapshot into clinic counters.
// GET /api/stats?start=2024-03-01&end=2024-03-31
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	v, ok := h.registry.View(ViewArchive)
	if !ok {
		writeError(w, http.StatusNotFound, "archive view not registered", "")
		return
	}
	if err := v.Refresh(r.Context()); err != nil && !v.Snapshot().Loaded {
		writeError(w, http.StatusBadGateway, "appointment store unreachable", "")
		return
	}

	var from, to *time.Time
	if raw := r.URL.Query().Get("start"); raw != "" {
		day, err := calendar.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD", "")
			return
		}
		from = &day
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		day, err := calendar.ParseDay(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "end must be YYYY-MM-DD", "")
			return
		}
		to = &day
	}
	if (from == nil) != (to == nil) {
		writeError(w, http.StatusBadRequest, "both start and end must be provided, or neither", "")
		return
	}

	writeJSON(w, http.StatusOK, stats.Aggregate(v.Snapshot().Records, from, to))
}

// HealthCheck reports liveness.
// GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeSnapshot(w http.ResponseWriter, v *views.View) {
	snap := v.Snapshot()
	records := snap.Records
	if records == nil {
		records = []appointment.Appointment{}
	}
	writeJSON(w, http.StatusOK, snapshotResponse{
		Name:    v.Name(),
		Records: records,
		Version: snap.Version,
		TakenAt: snap.TakenAt,
		Loaded:  snap.Loaded,
		Stale:   snap.Stale,
	})
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, errorResponse{Error: msg, Reason: reason})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
