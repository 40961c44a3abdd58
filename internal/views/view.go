// Package views is the polling reconciliation engine. Each named view owns a
// query against the remote appointment store and an independently refreshed
// snapshot of its result. Snapshots are replaced wholesale on every
// successful fetch; the store is the single source of truth and nothing is
// merged field by field.
package views

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/store"
	"github.com/clinicdesk/frontdesk/pkg/logging"
)

// Query describes what a view watches.
type Query struct {
	Filter store.Filter
	// SortByDate orders the snapshot by appointment time, then id.
	SortByDate bool
}

// Snapshot is one fetched result. Version grows with every issued fetch, so
// a snapshot from an older fetch never overwrites a newer one no matter the
// completion order. Loaded distinguishes an empty result from "never
// fetched"; Stale marks a snapshot kept across a failed refresh.
type Snapshot struct {
	Records []appointment.Appointment
	Version uint64
	TakenAt time.Time
	Loaded  bool
	Stale   bool
}

// Find returns the record with the given id, if the snapshot holds it.
func (s Snapshot) Find(appointmentID string) (appointment.Appointment, bool) {
	for _, r := range s.Records {
		if r.ID == appointmentID {
			return r, true
		}
	}
	return appointment.Appointment{}, false
}

// View is a subscribe/refresh handle over one query. Reads never block
// fetches; fetches never block each other beyond the version fence.
type View struct {
	name  string
	query Query
	fetch func(ctx context.Context) ([]appointment.Appointment, error)
	clock func() time.Time

	logger  *logging.Logger
	observe func(outcome string, seconds float64)

	tick <-chan time.Time
	stop func()

	nudge chan struct{}

	mu     sync.Mutex
	snap   Snapshot
	issued uint64
	closed bool
}

// Name returns the view's registry name.
func (v *View) Name() string {
	return v.name
}

// Query returns the view's query descriptor.
func (v *View) Query() Query {
	return v.query
}

// Snapshot returns the current snapshot. The record slice is shared and must
// be treated as read-only.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.snap
}

// Refresh fetches the view's query now and applies the result, subject to
// the version fence. A transport failure keeps the previous records and
// marks them stale; the next tick or manual refresh retries.
func (v *View) Refresh(ctx context.Context) error {
	version, ok := v.beginFetch()
	if !ok {
		return nil
	}

	started := v.clock()
	records, err := v.fetch(ctx)
	elapsed := v.clock().Sub(started).Seconds()

	if err != nil {
		v.markStale()
		v.observe("transport_error", elapsed)
		v.logger.Warn("view refresh failed", "view", v.name, "error", err)
		return err
	}

	if v.query.SortByDate {
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Date.Equal(records[j].Date) {
				return records[i].ID < records[j].ID
			}
			return records[i].Date.Before(records[j].Date)
		})
	}

	if v.apply(version, records) {
		v.observe("ok", elapsed)
	} else {
		v.observe("discarded", elapsed)
	}
	return nil
}

// Nudge requests an asynchronous refresh ahead of the next scheduled tick.
// It never blocks; a nudge while one is already pending folds into it.
func (v *View) Nudge() {
	select {
	case v.nudge <- struct{}{}:
	default:
	}
}

// Close tears the view down: the timer stops and any in-flight fetch result
// is discarded on arrival.
func (v *View) Close() {
	v.mu.Lock()
	already := v.closed
	v.closed = true
	v.mu.Unlock()
	if already {
		return
	}
	if v.stop != nil {
		v.stop()
	}
}

// beginFetch reserves the next snapshot version. Versions are handed out in
// issue order, which is what makes last-issued-wins work.
func (v *View) beginFetch() (uint64, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, false
	}
	v.issued++
	return v.issued, true
}

// apply installs records as the snapshot unless a newer fetch already landed
// or the view closed while the fetch was in flight.
func (v *View) apply(version uint64, records []appointment.Appointment) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || version <= v.snap.Version {
		return false
	}
	v.snap = Snapshot{
		Records: records,
		Version: version,
		TakenAt: v.clock(),
		Loaded:  true,
	}
	return true
}

func (v *View) markStale() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snap.Stale = true
}

// run is the view's polling loop. Archive-style views have no tick channel
// and only refresh on nudges or explicit Refresh calls.
func (v *View) run(ctx context.Context) {
	defer func() {
		if v.stop != nil {
			v.stop()
		}
	}()

	// Timed views prime immediately; manual views wait to be asked.
	if v.tick != nil {
		_ = v.Refresh(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-v.tick:
			_ = v.Refresh(ctx)
		case <-v.nudge:
			_ = v.Refresh(ctx)
		}
		v.mu.Lock()
		closed := v.closed
		v.mu.Unlock()
		if closed {
			return
		}
	}
}
