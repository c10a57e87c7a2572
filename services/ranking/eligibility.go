package ranking

import (
	"fmt"
	"sort"
	"time"

	"cycleranking/models"
)

// Window is the ranking period relative to a reference date. All bounds are
// calendar days in UTC and inclusive.
type Window struct {
	Reference  time.Time
	RecentFrom time.Time
	From       time.Time
}

// NewWindow derives the window boundaries from the reference date.
func NewWindow(reference time.Time, decay DecayWindows) Window {
	ref := TruncateDay(reference)
	return Window{
		Reference:  ref,
		RecentFrom: ref.AddDate(0, -decay.RecentMonths, 0),
		From:       ref.AddDate(0, -decay.WindowMonths, 0),
	}
}

// Contains reports whether an event on date counts towards the ranking.
func (w Window) Contains(date time.Time) bool {
	d := TruncateDay(date)
	return !d.Before(w.From) && !d.After(w.Reference)
}

// Recent reports whether date falls in the full-weight bucket.
func (w Window) Recent(date time.Time) bool {
	return !TruncateDay(date).Before(w.RecentFrom)
}

// TruncateDay drops the time of day, in UTC.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Candidate is an eligible result together with the rows it references.
type Candidate struct {
	Result models.Result
	Event  models.Event
	Class  models.Class
}

// Filtered is the outcome of the eligibility pass over one discipline.
type Filtered struct {
	Discipline string
	Eligible   []Candidate
	Processed  int
	Excluded   map[string]int
	Warnings   []models.DataIntegrityWarning
}

// FilterEligible keeps the results that may be ranked. Everything else is
// dropped and counted by reason; dangling references are reported as warnings.
func FilterEligible(data models.DisciplineData, classes map[int64]models.Class, riders map[int64]models.Rider, window Window) Filtered {
	out := Filtered{
		Discipline: data.Discipline,
		Processed:  len(data.Results),
		Excluded:   make(map[string]int),
	}

	for _, r := range data.Results {
		if r.Position != nil && r.Status != models.ResultStatusFinished {
			out.Warnings = append(out.Warnings, models.DataIntegrityWarning{
				ResultID: r.ID,
				Kind:     models.WarningPositionWithoutFinish,
				Detail:   fmt.Sprintf("status %q with position %d", r.Status, *r.Position),
			})
		}

		reason, warning := exclusionReason(r, data.Events, classes, riders, window)
		if warning != nil {
			out.Warnings = append(out.Warnings, *warning)
		}
		if reason != "" {
			out.Excluded[reason]++
			continue
		}

		out.Eligible = append(out.Eligible, Candidate{
			Result: r,
			Event:  data.Events[r.EventID],
			Class:  classes[r.ClassID],
		})
	}

	sort.Slice(out.Eligible, func(i, j int) bool {
		return out.Eligible[i].Result.ID < out.Eligible[j].Result.ID
	})
	return out
}

func exclusionReason(r models.Result, events map[int64]models.Event, classes map[int64]models.Class, riders map[int64]models.Rider, window Window) (string, *models.DataIntegrityWarning) {
	event, ok := events[r.EventID]
	if !ok {
		return models.ExcludedMissingEvent, &models.DataIntegrityWarning{
			ResultID: r.ID, Kind: models.WarningMissingEvent, Detail: fmt.Sprintf("event %d", r.EventID),
		}
	}
	class, ok := classes[r.ClassID]
	if !ok {
		return models.ExcludedMissingClass, &models.DataIntegrityWarning{
			ResultID: r.ID, Kind: models.WarningMissingClass, Detail: fmt.Sprintf("class %d", r.ClassID),
		}
	}
	if _, ok := riders[r.RiderID]; !ok {
		return models.ExcludedMissingRider, &models.DataIntegrityWarning{
			ResultID: r.ID, Kind: models.WarningMissingRider, Detail: fmt.Sprintf("rider %d", r.RiderID),
		}
	}

	switch {
	case !class.AwardsPoints:
		return models.ExcludedClassNotAwarding, nil
	case !class.SeriesEligible:
		return models.ExcludedClassNotSeries, nil
	case r.Status != models.ResultStatusFinished:
		return models.ExcludedNotFinished, nil
	case !(r.Points > 0):
		return models.ExcludedNonPositivePoints, nil
	case !window.Contains(event.Date):
		return models.ExcludedOutsideWindow, nil
	}
	return "", nil
}
