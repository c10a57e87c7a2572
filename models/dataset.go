package models

import "time"

// DatasetQuery selects the source rows of one calculation run.
type DatasetQuery struct {
	// Disciplines are canonical keys; empty selects every discipline that has events.
	Disciplines []string
	// From and To bound event dates, both inclusive.
	From time.Time
	To   time.Time
}

// Dataset is a consistent read of everything a run needs, taken in a single
// read transaction.
type Dataset struct {
	Classes     map[int64]Class
	Riders      map[int64]Rider
	Disciplines []DisciplineData
	// OrphanResults reference an event that does not exist, so they cannot be
	// attributed to any discipline.
	OrphanResults []Result
}

// DisciplineData holds the events of one discipline inside the query window
// and every result recorded against them.
type DisciplineData struct {
	Discipline string
	Events     map[int64]Event
	Results    []Result
}

// RiderSnapshotSet is the ranked rider list of one discipline, ready to persist.
type RiderSnapshotSet struct {
	Discipline string
	Riders     []RankingSnapshot
}

// ClubSnapshotSet is the ranked club list of one discipline.
type ClubSnapshotSet struct {
	Discipline string
	Clubs      []ClubRankingSnapshot
}

// ClubRollup derives club rows from the rider rows that were just written,
// read back with their set ids. It runs inside the write transaction, after
// every rider set is stored and before any club row is.
type ClubRollup func(written []RiderSnapshotSet) ([]ClubSnapshotSet, error)

// SnapshotWrite reports what was persisted for one discipline.
type SnapshotWrite struct {
	Discipline string
	SetID      int64
	Riders     int
	Clubs      int
}
