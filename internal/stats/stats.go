// Package stats aggregates appointment snapshots into the clinic counters
// shown on the reception dashboard. It is query-side only: counting never
// fetches.
package stats

import (
	"sort"
	"time"

	"github.com/clinicdesk/frontdesk/internal/appointment"
	"github.com/clinicdesk/frontdesk/internal/calendar"
)

// ClinicStats summarizes a set of appointment records.
type ClinicStats struct {
	Total    int                        `json:"total"`
	ByStatus map[appointment.Status]int `json:"byStatus"`
	ByDoctor []DoctorStats              `json:"byDoctor"`
}

// DoctorStats is the per-doctor slice of the summary.
type DoctorStats struct {
	DoctorID   string `json:"doctorId"`
	DoctorName string `json:"doctorName"`
	Total      int    `json:"total"`
	Done       int    `json:"done"`
	Canceled   int    `json:"canceled"`
}

// Aggregate counts records whose day falls in [from, to]. Nil bounds are
// open; a nil or empty input yields zero counters, not an error.
func Aggregate(records []appointment.Appointment, from, to *time.Time) ClinicStats {
	out := ClinicStats{
		ByStatus: make(map[appointment.Status]int),
		ByDoctor: []DoctorStats{},
	}
	perDoctor := make(map[string]*DoctorStats)

	for _, r := range records {
		if from != nil && calendar.Day(r.Date).Before(calendar.Day(*from)) {
			continue
		}
		if to != nil && calendar.Day(r.Date).After(calendar.Day(*to)) {
			continue
		}

		out.Total++
		out.ByStatus[r.Status]++

		ds, ok := perDoctor[r.DoctorID]
		if !ok {
			ds = &DoctorStats{DoctorID: r.DoctorID, DoctorName: r.DoctorName}
			perDoctor[r.DoctorID] = ds
		}
		ds.Total++
		switch r.Status {
		case appointment.StatusDone:
			ds.Done++
		case appointment.StatusCanceled:
			ds.Canceled++
		}
	}

	for _, ds := range perDoctor {
		out.ByDoctor = append(out.ByDoctor, *ds)
	}
	sort.Slice(out.ByDoctor, func(i, j int) bool {
		return out.ByDoctor[i].DoctorName < out.ByDoctor[j].DoctorName
	})
	return out
}
