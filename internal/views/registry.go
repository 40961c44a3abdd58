package views

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/observability/metrics"
	"github.com/clinicdesk/frontdesk/internal/store"
	"github.com/clinicdesk/frontdesk/pkg/logging"
)

var viewsTracer = otel.Tracer("frontdesk.internal.views")

// remoteStore is the slice of the store client the engine consumes.
type remoteStore interface {
	ListAppointments(ctx context.Context, filter store.Filter) ([]appointment.Appointment, error)
	SubmitTransition(ctx context.Context, req store.TransitionRequest) (*appointment.Appointment, error)
}

// Config wires a Registry.
type Config struct {
	Store     remoteStore
	Revisions RevisionRegistry
	Clock     func() time.Time
	Logger    *logging.Logger
	Metrics   *metrics.EngineMetrics
}

// Registry owns the named views and the single mutation entry point. Views
// poll independently; mutations always go to the store first and reach local
// snapshots only through the refresh they trigger.
type Registry struct {
	store     remoteStore
	revisions RevisionRegistry
	clock     func() time.Time
	machine   *appointment.Machine
	logger    *logging.Logger
	metrics   *metrics.EngineMetrics

	mu    sync.Mutex
	views map[string]*View
}

// NewRegistry constructs an engine. Revisions defaults to the in-memory
// registry, the clock to time.Now.
func NewRegistry(cfg Config) *Registry {
	if cfg.Store == nil {
		panic("views: remote store required")
	}
	if cfg.Revisions == nil {
		cfg.Revisions = NewMemoryRevisions()
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Registry{
		store:     cfg.Store,
		revisions: cfg.Revisions,
		clock:     cfg.Clock,
		machine:   appointment.NewMachine(cfg.Clock),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		views:     make(map[string]*View),
	}
}

// ViewConfig describes one view to register. Interval <= 0 with a nil Tick
// makes the view manual-only: it refreshes on nudges and explicit Refresh
// calls, never on a timer. Tick and Stop exist so tests can drive the loop.
type ViewConfig struct {
	Name     string
	Query    Query
	Interval time.Duration

	Tick <-chan time.Time
	Stop func()
}

// Register creates a view and starts its polling loop. The loop stops when
// ctx is canceled or the view is closed.
func (r *Registry) Register(ctx context.Context, cfg ViewConfig) (*View, error) {
	if cfg.Name == "" {
		return nil, errors.New("views: view name required")
	}

	tick := cfg.Tick
	stop := cfg.Stop
	if tick == nil && cfg.Interval > 0 {
		ticker := time.NewTicker(cfg.Interval)
		tick = ticker.C
		stop = ticker.Stop
	}

	v := &View{
		name:  cfg.Name,
		query: cfg.Query,
		clock: r.clock,
		fetch: func(ctx context.Context) ([]appointment.Appointment, error) {
			return r.store.ListAppointments(ctx, cfg.Query.Filter)
		},
		logger: r.logger,
		tick:   tick,
		stop:   stop,
		nudge:  make(chan struct{}, 1),
	}
	name := cfg.Name
	v.observe = func(outcome string, seconds float64) {
		r.metrics.ObserveRefresh(name, outcome)
		if outcome == "ok" {
			r.metrics.ObserveRefreshLatency(name, seconds)
		}
	}

	r.mu.Lock()
	if _, exists := r.views[cfg.Name]; exists {
		r.mu.Unlock()
		return nil, fmt.Errorf("views: view %q already registered", cfg.Name)
	}
	r.views[cfg.Name] = v
	r.mu.Unlock()

	go v.run(ctx)
	return v, nil
}

// View looks up a registered view by name.
func (r *Registry) View(name string) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[name]
	return v, ok
}

// Close tears down every view.
func (r *Registry) Close() {
	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	r.mu.Unlock()
	for _, v := range views {
		v.Close()
	}
}

// RequestTransition is the single mutation entry point. The state machine
// gates the request against the freshest local copy of the record, the store
// re-evaluates authoritatively, and on success every view the change could
// touch is nudged for an immediate refresh. No snapshot is altered before
// the store confirms; a guard rejection comes back typed so the caller can
// explain it.
func (r *Registry) RequestTransition(ctx context.Context, req store.TransitionRequest) (*appointment.Appointment, error) {
	ctx, span := viewsTracer.Start(ctx, "views.request_transition")
	defer span.End()
	mutationID := uuid.NewString()
	span.SetAttributes(
		attribute.String("frontdesk.mutation_id", mutationID),
		attribute.String("frontdesk.appointment_id", req.AppointmentID),
		attribute.String("frontdesk.target_status", string(req.Target)),
	)

	local, owner, found := r.findRecord(req.AppointmentID)
	if found {
		last, err := r.revisions.LastAccepted(ctx, req.AppointmentID)
		if err != nil {
			r.logger.Warn("revision lookup failed, proceeding unchecked",
				"mutation_id", mutationID, "appointment_id", req.AppointmentID, "error", err)
		} else if last > local.Revision {
			r.metrics.ObserveStale()
			owner.Nudge()
			r.metrics.ObserveTransition(string(req.Target), "stale")
			return nil, fmt.Errorf("views: appointment %s at revision %d, store already at %d: %w",
				req.AppointmentID, local.Revision, last, store.ErrStaleView)
		}

		// Local gate: a transition the guard table cannot accept is not
		// worth a round trip. The store remains the final arbiter for
		// everything this gate lets through.
		if _, err := r.machine.Transition(local, req.Target, req.Payload); err != nil {
			r.metrics.ObserveTransition(string(req.Target), "rejected_local")
			return nil, err
		}
	}

	updated, err := r.store.SubmitTransition(ctx, req)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, store.ErrStaleView):
			r.metrics.ObserveStale()
			if found {
				owner.Nudge()
			}
			r.metrics.ObserveTransition(string(req.Target), "stale")
		case errors.Is(err, appointment.ErrInvalidTransition):
			// The store saw a state we did not; our snapshot lost the race.
			r.metrics.ObserveTransition(string(req.Target), "rejected_store")
			if found {
				owner.Nudge()
			}
		default:
			r.metrics.ObserveTransition(string(req.Target), "transport_error")
		}
		return nil, err
	}

	if err := r.revisions.Record(ctx, updated.ID, updated.Revision); err != nil {
		r.logger.Warn("revision record failed",
			"mutation_id", mutationID, "appointment_id", updated.ID, "error", err)
	}

	oldStatus := local.Status
	r.nudgeAffected(*updated, oldStatus, found)
	r.metrics.ObserveTransition(string(req.Target), "accepted")
	r.logger.Info("transition applied",
		"mutation_id", mutationID,
		"appointment_id", updated.ID,
		"status", updated.Status,
		"revision", updated.Revision,
	)
	return updated, nil
}

// findRecord locates the freshest loaded copy of an appointment across all
// view snapshots.
func (r *Registry) findRecord(appointmentID string) (appointment.Appointment, *View, bool) {
	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	r.mu.Unlock()

	var (
		best      appointment.Appointment
		bestView  *View
		bestTaken time.Time
		found     bool
	)
	for _, v := range views {
		snap := v.Snapshot()
		if !snap.Loaded {
			continue
		}
		if rec, ok := snap.Find(appointmentID); ok {
			if !found || snap.TakenAt.After(bestTaken) {
				best, bestView, bestTaken, found = rec, v, snap.TakenAt, true
			}
		}
	}
	return best, bestView, found
}

// nudgeAffected marks for immediate refresh every view whose query could
// have matched the record before or could match it now.
func (r *Registry) nudgeAffected(updated appointment.Appointment, oldStatus appointment.Status, oldKnown bool) {
	old := updated
	old.Status = oldStatus

	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	r.mu.Unlock()

	for _, v := range views {
		filter := v.query.Filter
		if filter.Matches(updated) || (oldKnown && filter.Matches(old)) {
			v.Nudge()
		}
	}
}
