package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	"cycleranking/models"
)

// ReadDataset loads classes, riders, events inside the query window and their
// results in one read transaction. Disciplines are grouped by canonical key.
func (r *RankingRepository) ReadDataset(ctx context.Context, q models.DatasetQuery) (*models.Dataset, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, classify("begin dataset read", err)
	}
	defer tx.Rollback()

	ds := &models.Dataset{
		Classes: make(map[int64]models.Class),
		Riders:  make(map[int64]models.Rider),
	}
	if err := readClasses(ctx, tx, ds.Classes); err != nil {
		return nil, err
	}
	if err := readRiders(ctx, tx, ds.Riders); err != nil {
		return nil, err
	}

	disciplines := q.Disciplines
	if len(disciplines) == 0 {
		if disciplines, err = readDisciplines(ctx, tx); err != nil {
			return nil, err
		}
	}
	byDiscipline := make(map[string]*models.DisciplineData, len(disciplines))
	for _, d := range disciplines {
		byDiscipline[d] = &models.DisciplineData{Discipline: d, Events: make(map[int64]models.Event)}
	}

	from, to := formatDate(q.From), formatDate(q.To)
	eventDiscipline, err := readEvents(ctx, tx, from, to, byDiscipline)
	if err != nil {
		return nil, err
	}
	if err := readResults(ctx, tx, from, to, eventDiscipline, byDiscipline); err != nil {
		return nil, err
	}
	if ds.OrphanResults, err = readOrphanResults(ctx, tx); err != nil {
		return nil, err
	}

	for _, d := range disciplines {
		ds.Disciplines = append(ds.Disciplines, *byDiscipline[d])
	}
	return ds, nil
}

func readClasses(ctx context.Context, tx *sql.Tx, into map[int64]models.Class) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, awards_points, series_eligible, gender, min_age, max_age FROM classes`)
	if err != nil {
		return classify("read classes", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c              models.Class
			minAge, maxAge sql.NullInt64
		)
		if err := rows.Scan(&c.ID, &c.Name, &c.AwardsPoints, &c.SeriesEligible, &c.Gender, &minAge, &maxAge); err != nil {
			return classify("scan class", err)
		}
		c.MinAge = intPtr(minAge)
		c.MaxAge = intPtr(maxAge)
		into[c.ID] = c
	}
	return classify("read classes", rows.Err())
}

func readRiders(ctx context.Context, tx *sql.Tx, into map[int64]models.Rider) error {
	rows, err := tx.QueryContext(ctx, `SELECT id, name, birth_year, gender, club_id FROM riders`)
	if err != nil {
		return classify("read riders", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			rider  models.Rider
			clubID sql.NullInt64
		)
		if err := rows.Scan(&rider.ID, &rider.Name, &rider.BirthYear, &rider.Gender, &clubID); err != nil {
			return classify("scan rider", err)
		}
		if clubID.Valid {
			rider.ClubID = &clubID.Int64
		}
		into[rider.ID] = rider
	}
	return classify("read riders", rows.Err())
}

// readDisciplines lists every discipline with events, regardless of date, so
// a discipline whose events all aged out still gets an (empty) ranking.
func readDisciplines(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT DISTINCT discipline FROM events`)
	if err != nil {
		return nil, classify("read disciplines", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, classify("scan discipline", err)
		}
		if key := models.CanonicalDiscipline(raw); key != "" && !slices.Contains(out, key) {
			out = append(out, key)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, classify("read disciplines", err)
	}
	slices.Sort(out)
	return out, nil
}

// readEvents fills the wanted disciplines with their events in [from, to] and
// returns the discipline of every loaded event.
func readEvents(ctx context.Context, tx *sql.Tx, from, to string, wanted map[string]*models.DisciplineData) (map[int64]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, event_date, discipline, level, club_id
		FROM events WHERE substr(event_date, 1, 10) BETWEEN ? AND ?`, from, to)
	if err != nil {
		return nil, classify("read events", err)
	}
	defer rows.Close()

	eventDiscipline := make(map[int64]string)
	for rows.Next() {
		var (
			e      models.Event
			date   string
			clubID sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &e.Name, &date, &e.Discipline, &e.Level, &clubID); err != nil {
			return nil, classify("scan event", err)
		}
		if e.Date, err = parseDate(date); err != nil {
			return nil, fmt.Errorf("event %d date %q: %w", e.ID, date, err)
		}
		if clubID.Valid {
			e.ClubID = &clubID.Int64
		}
		e.Discipline = models.CanonicalDiscipline(e.Discipline)
		data, ok := wanted[e.Discipline]
		if !ok {
			continue
		}
		data.Events[e.ID] = e
		eventDiscipline[e.ID] = e.Discipline
	}
	if err := rows.Err(); err != nil {
		return nil, classify("read events", err)
	}
	return eventDiscipline, nil
}

const resultColumns = `r.id, r.rider_id, r.event_id, r.class_id, r.points, r.status, r.position`

func readResults(ctx context.Context, tx *sql.Tx, from, to string, eventDiscipline map[int64]string, into map[string]*models.DisciplineData) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+resultColumns+`
		FROM results r JOIN events e ON e.id = r.event_id
		WHERE substr(e.event_date, 1, 10) BETWEEN ? AND ?
		ORDER BY r.id`, from, to)
	if err != nil {
		return classify("read results", err)
	}
	defer rows.Close()

	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return err
		}
		if d, ok := eventDiscipline[res.EventID]; ok {
			into[d].Results = append(into[d].Results, res)
		}
	}
	return classify("read results", rows.Err())
}

func readOrphanResults(ctx context.Context, tx *sql.Tx) ([]models.Result, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT `+resultColumns+`
		FROM results r WHERE NOT EXISTS (SELECT 1 FROM events e WHERE e.id = r.event_id)
		ORDER BY r.id`)
	if err != nil {
		return nil, classify("read orphan results", err)
	}
	defer rows.Close()

	var out []models.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("read orphan results", err)
	}
	return out, nil
}

func scanResult(row rowScanner) (models.Result, error) {
	var (
		res      models.Result
		position sql.NullInt64
	)
	if err := row.Scan(&res.ID, &res.RiderID, &res.EventID, &res.ClassID, &res.Points, &res.Status, &position); err != nil {
		return models.Result{}, classify("scan result", err)
	}
	res.Position = intPtr(position)
	return res, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
