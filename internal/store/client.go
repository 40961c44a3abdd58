package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/calendar"
	"github.com/clinicdesk/frontdesk/pkg/logging"
)

const defaultTimeout = 15 * time.Second

// Client talks to the remote appointment store over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewClient creates a store client for the given base URL.
func NewClient(baseURL string, timeout time.Duration, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListAppointments fetches appointments matching the filter. Every view
// refresh tick lands here.
func (c *Client) ListAppointments(ctx context.Context, filter Filter) ([]appointment.Appointment, error) {
	q := url.Values{}
	if filter.DoctorID != "" {
		q.Set("doctorId", filter.DoctorID)
	}
	if filter.Day != nil {
		q.Set("appointmentDate", calendar.DayString(*filter.Day))
	}
	if len(filter.Statuses) > 0 {
		parts := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			parts = append(parts, string(s))
		}
		q.Set("status", strings.Join(parts, ","))
	}

	endpoint := c.baseURL + "/api/appointments"
	if enc := q.Encode(); enc != "" {
		endpoint += "?" + enc
	}

	var out []appointment.Appointment
	if err := c.get(ctx, "list appointments", endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetDoctorSchedule fetches a doctor's appointments for one calendar day.
func (c *Client) GetDoctorSchedule(ctx context.Context, doctorID string, day time.Time) ([]appointment.Appointment, error) {
	endpoint := fmt.Sprintf("%s/api/doctors/%s/appointments?appointmentDate=%s",
		c.baseURL, url.PathEscape(doctorID), calendar.DayString(day))

	var out []appointment.Appointment
	if err := c.get(ctx, "doctor schedule", endpoint, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListDoctors fetches the practitioners and their weekly slot templates.
func (c *Client) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var out []Doctor
	if err := c.get(ctx, "list doctors", c.baseURL+"/api/doctors", &out); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Hours = parseHours(out[i].RawHours)
	}
	return out, nil
}

// SubmitTransition asks the store to apply a status change. The store
// evaluates the guards; a 422 comes back as *appointment.TransitionError, a
// 409 as ErrStaleView, anything else non-2xx as *TransportError.
func (c *Client) SubmitTransition(ctx context.Context, req TransitionRequest) (*appointment.Appointment, error) {
	const op = "submit transition"

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.baseURL+"/api/appointments", bytes.NewReader(body))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, decodeGuardError(resp.Body, req.Target)
	case resp.StatusCode == http.StatusConflict:
		return nil, ErrStaleView
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		io.Copy(io.Discard, resp.Body)
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	var appt appointment.Appointment
	if err := json.NewDecoder(resp.Body).Decode(&appt); err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	c.logger.Info("transition accepted",
		"appointment_id", appt.ID, "status", appt.Status, "revision", appt.Revision)
	return &appt, nil
}

func (c *Client) get(ctx context.Context, op, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return &TransportError{Op: op, StatusCode: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// guardResponse is the store's 422 body.
type guardResponse struct {
	Reason        string             `json:"reason"`
	CurrentStatus appointment.Status `json:"currentStatus"`
	Message       string             `json:"message"`
}

func decodeGuardError(r io.Reader, target appointment.Status) error {
	var body guardResponse
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		// A 422 with an unreadable body is still a guard rejection.
		return &appointment.TransitionError{To: target, Reason: appointment.ReasonWrongSourceState}
	}
	reason := appointment.Reason(body.Reason)
	switch reason {
	case appointment.ReasonWrongSourceState, appointment.ReasonCancellationWindow, appointment.ReasonIncompletePayload:
	default:
		reason = appointment.ReasonWrongSourceState
	}
	return &appointment.TransitionError{From: body.CurrentStatus, To: target, Reason: reason}
}

func parseHours(raw map[string][]string) map[time.Weekday][]string {
	if len(raw) == 0 {
		return nil
	}
	names := map[string]time.Weekday{
		"Monday":    time.Monday,
		"Tuesday":   time.Tuesday,
		"Wednesday": time.Wednesday,
		"Thursday":  time.Thursday,
		"Friday":    time.Friday,
	}
	hours := make(map[time.Weekday][]string, len(raw))
	for name, slots := range raw {
		wd, ok := names[name]
		if !ok {
			continue
		}
		hours[wd] = slots
	}
	return hours
}
