package models

import (
	"encoding/json"
	"time"
)

// Keys of the admin-editable ranking settings.
const (
	SettingFieldMultipliers      = "field_multipliers"
	SettingEventLevelMultipliers = "event_level_multipliers"
	SettingDecayWindows          = "decay_windows"
	SettingAggregation           = "aggregation"
)

// SnapshotDateLayout is the wire and storage format of snapshot dates.
const SnapshotDateLayout = "2006-01-02"

// RankingSetting is one versioned key of the ranking configuration. Value
// holds the raw JSON document exactly as stored.
type RankingSetting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// SnapshotSet groups the rows one run wrote for one discipline. The newest set
// of the newest date is the discipline's current ranking.
type SnapshotSet struct {
	ID           int64     `json:"id"`
	RunID        string    `json:"runId"`
	Discipline   string    `json:"discipline"`
	SnapshotDate time.Time `json:"snapshotDate"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RankingSnapshot is one rider's materialised ranking in a snapshot set.
// Point values are rounded to one decimal.
type RankingSnapshot struct {
	SetID              int64     `json:"setId,omitempty"`
	RiderID            int64     `json:"riderId"`
	Discipline         string    `json:"discipline"`
	SnapshotDate       time.Time `json:"snapshotDate"`
	TotalRankingPoints float64   `json:"totalRankingPoints"`
	RankingPosition    int       `json:"rankingPosition"`
	EventsCount        int       `json:"eventsCount"`
	Points12           float64   `json:"points12"`
	Points13To24       float64   `json:"points13To24"`
}

// ClubRankingSnapshot is one club's materialised ranking in a snapshot set.
type ClubRankingSnapshot struct {
	SetID              int64     `json:"setId,omitempty"`
	ClubID             int64     `json:"clubId"`
	Discipline         string    `json:"discipline"`
	SnapshotDate       time.Time `json:"snapshotDate"`
	TotalRankingPoints float64   `json:"totalRankingPoints"`
	RankingPosition    int       `json:"rankingPosition"`
	RidersCount        int       `json:"ridersCount"`
}

// RunKind tells recalculations apart from maintenance jobs holding the run
// lock.
type RunKind string

const (
	RunKindRecalculate RunKind = "recalculate"
	RunKindMaintenance RunKind = "maintenance"
)

// RunState is a step of the calculation run state machine.
type RunState string

const (
	RunStateIdle                  RunState = "idle"
	RunStateLoadingSettings       RunState = "loading_settings"
	RunStateFilteringResults      RunState = "filtering_results"
	RunStateScoring               RunState = "scoring"
	RunStateAggregatingRiders     RunState = "aggregating_riders"
	RunStateWritingRiderSnapshots RunState = "writing_rider_snapshots"
	RunStateAggregatingClubs      RunState = "aggregating_clubs"
	RunStateWritingClubSnapshots  RunState = "writing_club_snapshots"
	RunStateDone                  RunState = "done"
	RunStateFailed                RunState = "failed"

	// RunStateRunning marks the database lock row of an in-flight run;
	// RunStateAbandoned is assigned to lock rows left behind by a crash.
	RunStateRunning   RunState = "running"
	RunStateAbandoned RunState = "abandoned"
)

// Terminal reports whether no further transition can follow s.
func (s RunState) Terminal() bool {
	return s == RunStateDone || s == RunStateFailed || s == RunStateAbandoned
}

// RankingRun is the audit record of one recalculation.
type RankingRun struct {
	ID            string      `json:"id"`
	Kind          RunKind     `json:"kind"`
	ReferenceDate time.Time   `json:"referenceDate"`
	Disciplines   []string    `json:"disciplines"`
	State         RunState    `json:"state"`
	StartedAt     time.Time   `json:"startedAt"`
	FinishedAt    *time.Time  `json:"finishedAt,omitempty"`
	Summary       *RunSummary `json:"summary,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// Exclusion reasons counted by the eligibility filter.
const (
	ExcludedClassNotAwarding  = "class_not_awarding"
	ExcludedClassNotSeries    = "class_not_series"
	ExcludedNotFinished       = "not_finished"
	ExcludedNonPositivePoints = "non_positive_points"
	ExcludedOutsideWindow     = "outside_window"
	ExcludedMissingClass      = "missing_class"
	ExcludedMissingEvent      = "missing_event"
	ExcludedMissingRider      = "missing_rider"
)

// Kinds of data integrity warnings.
const (
	WarningMissingClass          = "missing_class"
	WarningMissingEvent          = "missing_event"
	WarningMissingRider          = "missing_rider"
	WarningPositionWithoutFinish = "position_without_finish"
)

// DataIntegrityWarning reports a source row the engine had to skip or flag.
type DataIntegrityWarning struct {
	ResultID int64  `json:"resultId"`
	Kind     string `json:"kind"`
	Detail   string `json:"detail,omitempty"`
}

// DisciplineSummary holds the per-discipline counters of a run.
type DisciplineSummary struct {
	Discipline            string         `json:"discipline"`
	ResultsProcessed      int            `json:"resultsProcessed"`
	ResultsEligible       int            `json:"resultsEligible"`
	Excluded              map[string]int `json:"excluded,omitempty"`
	RiderSnapshotsWritten int            `json:"riderSnapshotsWritten"`
	ClubSnapshotsWritten  int            `json:"clubSnapshotsWritten"`
}

// RunSummary is returned to the administrator who triggered a run.
type RunSummary struct {
	RunID                 string                 `json:"runId"`
	ReferenceDate         time.Time              `json:"referenceDate"`
	SnapshotDate          string                 `json:"snapshotDate"`
	State                 RunState               `json:"state"`
	FailedIn              RunState               `json:"failedIn,omitempty"`
	Error                 string                 `json:"error,omitempty"`
	Disciplines           []DisciplineSummary    `json:"disciplines"`
	ResultsProcessed      int                    `json:"resultsProcessed"`
	ResultsEligible       int                    `json:"resultsEligible"`
	RiderSnapshotsWritten int                    `json:"riderSnapshotsWritten"`
	ClubSnapshotsWritten  int                    `json:"clubSnapshotsWritten"`
	WarningCount          int                    `json:"warningCount"`
	Warnings              []DataIntegrityWarning `json:"warnings,omitempty"`
	SettingsFallbacks     []string               `json:"settingsFallbacks,omitempty"`
	StartedAt             time.Time              `json:"startedAt"`
	FinishedAt            time.Time              `json:"finishedAt"`
	Duration              string                 `json:"duration"`
}

// RunStatus is the engine's view of the current (or last) run.
type RunStatus struct {
	State         RunState    `json:"state"`
	RunID         string      `json:"runId,omitempty"`
	ReferenceDate *time.Time  `json:"referenceDate,omitempty"`
	StartedAt     *time.Time  `json:"startedAt,omitempty"`
	LastRun       *RunSummary `json:"lastRun,omitempty"`
}
