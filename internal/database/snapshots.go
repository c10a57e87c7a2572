package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cycleranking/models"
)

// WriteSnapshots appends one snapshot set per discipline and commits them
// together. Rider rows of every set are inserted first, then read back and
// handed to rollup; the club rows it returns are inserted into the matching
// sets. Nothing is visible to readers unless the whole transaction commits.
func (r *RankingRepository) WriteSnapshots(ctx context.Context, runID string, snapshotDate time.Time, sets []models.RiderSnapshotSet, rollup models.ClubRollup) ([]models.SnapshotWrite, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin snapshot write", err)
	}
	defer tx.Rollback()

	date := formatDate(snapshotDate)
	created := formatTimestamp(r.now())

	setIDs := make(map[string]int64, len(sets))
	writes := make([]models.SnapshotWrite, 0, len(sets))
	for _, set := range sets {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_sets (run_id, discipline, snapshot_date, created_at) VALUES (?, ?, ?, ?)`,
			runID, set.Discipline, date, created)
		if err != nil {
			return nil, classify("insert snapshot set", err)
		}
		setID, err := res.LastInsertId()
		if err != nil {
			return nil, classify("insert snapshot set", err)
		}
		setIDs[set.Discipline] = setID

		if err := insertRiderRows(ctx, tx, setID, date, set); err != nil {
			return nil, err
		}
		writes = append(writes, models.SnapshotWrite{Discipline: set.Discipline, SetID: setID, Riders: len(set.Riders)})
	}

	if rollup != nil {
		written := make([]models.RiderSnapshotSet, 0, len(sets))
		for _, set := range sets {
			riders, err := querySetRiders(ctx, tx, setIDs[set.Discipline])
			if err != nil {
				return nil, err
			}
			written = append(written, models.RiderSnapshotSet{Discipline: set.Discipline, Riders: riders})
		}

		clubSets, err := rollup(written)
		if err != nil {
			return nil, fmt.Errorf("club rollup: %w", err)
		}
		for _, clubs := range clubSets {
			setID, ok := setIDs[clubs.Discipline]
			if !ok {
				return nil, fmt.Errorf("club rollup returned unknown discipline %q", clubs.Discipline)
			}
			if err := insertClubRows(ctx, tx, setID, date, clubs); err != nil {
				return nil, err
			}
			for i := range writes {
				if writes[i].SetID == setID {
					writes[i].Clubs = len(clubs.Clubs)
				}
			}
		}
	}

	// A run that ran out of time must not publish anything.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("before commit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, classify("commit snapshots", err)
	}
	return writes, nil
}

func insertRiderRows(ctx context.Context, tx *sql.Tx, setID int64, date string, set models.RiderSnapshotSet) error {
	if len(set.Riders) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ranking_snapshots (set_id, rider_id, discipline, snapshot_date, total_ranking_points,
			ranking_position, events_count, points_12, points_13_24)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return classify("prepare rider snapshot insert", err)
	}
	defer stmt.Close()

	for _, row := range set.Riders {
		if _, err := stmt.ExecContext(ctx, setID, row.RiderID, set.Discipline, date, row.TotalRankingPoints,
			row.RankingPosition, row.EventsCount, row.Points12, row.Points13To24); err != nil {
			return classify(fmt.Sprintf("insert rider snapshot %d", row.RiderID), err)
		}
	}
	return nil
}

func insertClubRows(ctx context.Context, tx *sql.Tx, setID int64, date string, set models.ClubSnapshotSet) error {
	if len(set.Clubs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO club_ranking_snapshots (set_id, club_id, discipline, snapshot_date, total_ranking_points,
			ranking_position, riders_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return classify("prepare club snapshot insert", err)
	}
	defer stmt.Close()

	for _, row := range set.Clubs {
		if _, err := stmt.ExecContext(ctx, setID, row.ClubID, set.Discipline, date, row.TotalRankingPoints,
			row.RankingPosition, row.RidersCount); err != nil {
			return classify(fmt.Sprintf("insert club snapshot %d", row.ClubID), err)
		}
	}
	return nil
}

const (
	riderSnapshotColumns = `set_id, rider_id, discipline, snapshot_date, total_ranking_points,
		ranking_position, events_count, points_12, points_13_24`
	clubSnapshotColumns = `set_id, club_id, discipline, snapshot_date, total_ranking_points,
		ranking_position, riders_count`

	// authoritativeSets holds the newest set of each (discipline, date).
	authoritativeSets = `SELECT MAX(id) FROM snapshot_sets GROUP BY discipline, snapshot_date`
)

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func querySetRiders(ctx context.Context, q querier, setID int64) ([]models.RankingSnapshot, error) {
	return queryRiderRows(ctx, q, `
		SELECT `+riderSnapshotColumns+` FROM ranking_snapshots
		WHERE set_id = ? ORDER BY ranking_position`, setID)
}

func queryRiderRows(ctx context.Context, q querier, query string, args ...any) ([]models.RankingSnapshot, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("query rider snapshots", err)
	}
	defer rows.Close()

	out := []models.RankingSnapshot{}
	for rows.Next() {
		var (
			s    models.RankingSnapshot
			date string
		)
		if err := rows.Scan(&s.SetID, &s.RiderID, &s.Discipline, &date, &s.TotalRankingPoints,
			&s.RankingPosition, &s.EventsCount, &s.Points12, &s.Points13To24); err != nil {
			return nil, classify("scan rider snapshot", err)
		}
		if s.SnapshotDate, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("snapshot date %q: %w", date, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query rider snapshots", err)
	}
	return out, nil
}

func queryClubRows(ctx context.Context, q querier, query string, args ...any) ([]models.ClubRankingSnapshot, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("query club snapshots", err)
	}
	defer rows.Close()

	out := []models.ClubRankingSnapshot{}
	for rows.Next() {
		var (
			s    models.ClubRankingSnapshot
			date string
		)
		if err := rows.Scan(&s.SetID, &s.ClubID, &s.Discipline, &date, &s.TotalRankingPoints,
			&s.RankingPosition, &s.RidersCount); err != nil {
			return nil, classify("scan club snapshot", err)
		}
		if s.SnapshotDate, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("snapshot date %q: %w", date, err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query club snapshots", err)
	}
	return out, nil
}

// currentSet finds the set that answers a (discipline, date) query: the newest
// set on date, or the newest set of the latest date when date is nil.
func (r *RankingRepository) currentSet(ctx context.Context, discipline string, date *time.Time) (int64, error) {
	var row *sql.Row
	if date == nil {
		row = r.db.QueryRowContext(ctx, `
			SELECT id FROM snapshot_sets WHERE discipline = ?
			ORDER BY snapshot_date DESC, id DESC LIMIT 1`, discipline)
	} else {
		row = r.db.QueryRowContext(ctx, `
			SELECT id FROM snapshot_sets WHERE discipline = ? AND snapshot_date = ?
			ORDER BY id DESC LIMIT 1`, discipline, formatDate(*date))
	}

	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("snapshot set for %q: %w", discipline, models.ErrNotFound)
		}
		return 0, classify("find snapshot set", err)
	}
	return id, nil
}

// RiderSnapshots returns the rider rows of the set answering the query,
// ordered by position.
func (r *RankingRepository) RiderSnapshots(ctx context.Context, discipline string, date *time.Time) ([]models.RankingSnapshot, error) {
	setID, err := r.currentSet(ctx, discipline, date)
	if err != nil {
		return nil, err
	}
	return querySetRiders(ctx, r.db, setID)
}

// ClubSnapshots returns the club rows of the set answering the query,
// ordered by position.
func (r *RankingRepository) ClubSnapshots(ctx context.Context, discipline string, date *time.Time) ([]models.ClubRankingSnapshot, error) {
	setID, err := r.currentSet(ctx, discipline, date)
	if err != nil {
		return nil, err
	}
	return queryClubRows(ctx, r.db, `
		SELECT `+clubSnapshotColumns+` FROM club_ranking_snapshots
		WHERE set_id = ? ORDER BY ranking_position`, setID)
}

// SnapshotDisciplines lists every discipline with at least one snapshot set.
func (r *RankingRepository) SnapshotDisciplines(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT discipline FROM snapshot_sets ORDER BY discipline`)
	if err != nil {
		return nil, classify("list snapshot disciplines", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, classify("scan discipline", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list snapshot disciplines", err)
	}
	return out, nil
}

// RiderHistory returns a rider's rows from every authoritative set, newest first.
func (r *RankingRepository) RiderHistory(ctx context.Context, riderID int64) ([]models.RankingSnapshot, error) {
	return queryRiderRows(ctx, r.db, `
		SELECT `+riderSnapshotColumns+` FROM ranking_snapshots
		WHERE rider_id = ? AND set_id IN (`+authoritativeSets+`)
		ORDER BY snapshot_date DESC, discipline`, riderID)
}

// ClubHistory returns a club's rows from every authoritative set, newest first.
func (r *RankingRepository) ClubHistory(ctx context.Context, clubID int64) ([]models.ClubRankingSnapshot, error) {
	return queryClubRows(ctx, r.db, `
		SELECT `+clubSnapshotColumns+` FROM club_ranking_snapshots
		WHERE club_id = ? AND set_id IN (`+authoritativeSets+`)
		ORDER BY snapshot_date DESC, discipline`, clubID)
}
