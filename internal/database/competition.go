package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cycleranking/models"
)

// The ranking engine only reads competition data. These writers load it for
// fixtures and the seed tool; ids are kept as given.

// SaveClub inserts or replaces a club.
func (r *RankingRepository) SaveClub(ctx context.Context, c models.Club) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO clubs (id, name, city) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, city = excluded.city`,
		c.ID, c.Name, c.City)
	return classify(fmt.Sprintf("save club %d", c.ID), err)
}

// SaveRider inserts or replaces a rider.
func (r *RankingRepository) SaveRider(ctx context.Context, rider models.Rider) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO riders (id, name, birth_year, gender, club_id) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, birth_year = excluded.birth_year,
			gender = excluded.gender, club_id = excluded.club_id`,
		rider.ID, rider.Name, rider.BirthYear, rider.Gender, nullInt64(rider.ClubID))
	return classify(fmt.Sprintf("save rider %d", rider.ID), err)
}

// SaveEvent inserts or replaces an event. The discipline is stored canonical.
func (r *RankingRepository) SaveEvent(ctx context.Context, e models.Event) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, name, event_date, discipline, level, club_id) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, event_date = excluded.event_date,
			discipline = excluded.discipline, level = excluded.level, club_id = excluded.club_id`,
		e.ID, e.Name, formatDate(e.Date), models.CanonicalDiscipline(e.Discipline), e.Level, nullInt64(e.ClubID))
	return classify(fmt.Sprintf("save event %d", e.ID), err)
}

// SaveClass inserts or replaces a class.
func (r *RankingRepository) SaveClass(ctx context.Context, c models.Class) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO classes (id, name, awards_points, series_eligible, gender, min_age, max_age)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, awards_points = excluded.awards_points,
			series_eligible = excluded.series_eligible, gender = excluded.gender,
			min_age = excluded.min_age, max_age = excluded.max_age`,
		c.ID, c.Name, c.AwardsPoints, c.SeriesEligible, c.Gender, nullInt(c.MinAge), nullInt(c.MaxAge))
	return classify(fmt.Sprintf("save class %d", c.ID), err)
}

// SaveResult inserts or replaces a result.
func (r *RankingRepository) SaveResult(ctx context.Context, res models.Result) error {
	status := res.Status
	if status == "" {
		status = models.ResultStatusFinished
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO results (id, rider_id, event_id, class_id, points, status, position)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET rider_id = excluded.rider_id, event_id = excluded.event_id,
			class_id = excluded.class_id, points = excluded.points, status = excluded.status,
			position = excluded.position`,
		res.ID, res.RiderID, res.EventID, res.ClassID, res.Points, status, nullInt(res.Position))
	return classify(fmt.Sprintf("save result %d", res.ID), err)
}

// ResultPoints returns the stored raw points of a result.
func (r *RankingRepository) ResultPoints(ctx context.Context, id int64) (float64, error) {
	var points float64
	err := r.db.QueryRowContext(ctx, `SELECT points FROM results WHERE id = ?`, id).Scan(&points)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("result %d: %w", id, models.ErrNotFound)
	}
	return points, classify("result points", err)
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
