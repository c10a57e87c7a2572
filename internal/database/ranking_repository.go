package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"cycleranking/models"
)

// RankingRepository persists ranking settings, runs and snapshots and reads
// the competition data they are computed from.
type RankingRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRankingRepository creates a repository on an open connection.
func NewRankingRepository(db *sql.DB) *RankingRepository {
	return &RankingRepository{db: db, now: time.Now}
}

// ListSettings returns every stored settings document ordered by key.
func (r *RankingRepository) ListSettings(ctx context.Context) ([]models.RankingSetting, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, updated_at FROM ranking_settings ORDER BY key`)
	if err != nil {
		return nil, classify("list settings", err)
	}
	defer rows.Close()

	var settings []models.RankingSetting
	for rows.Next() {
		setting, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		settings = append(settings, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list settings", err)
	}
	return settings, nil
}

// GetSetting returns one settings document.
func (r *RankingRepository) GetSetting(ctx context.Context, key string) (models.RankingSetting, error) {
	row := r.db.QueryRowContext(ctx, `SELECT key, value, updated_at FROM ranking_settings WHERE key = ?`, key)
	setting, err := scanSetting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.RankingSetting{}, fmt.Errorf("setting %q: %w", key, models.ErrNotFound)
	}
	return setting, err
}

// PutSetting inserts or replaces a settings document.
func (r *RankingRepository) PutSetting(ctx context.Context, key string, value json.RawMessage) (models.RankingSetting, error) {
	updated := r.now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO ranking_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), formatTimestamp(updated))
	if err != nil {
		return models.RankingSetting{}, classify("put setting", err)
	}
	return models.RankingSetting{Key: key, Value: value, UpdatedAt: updated}, nil
}

// DeleteSetting removes a settings document.
func (r *RankingRepository) DeleteSetting(ctx context.Context, key string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM ranking_settings WHERE key = ?`, key)
	if err != nil {
		return classify("delete setting", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("setting %q: %w", key, models.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSetting(row rowScanner) (models.RankingSetting, error) {
	var (
		setting models.RankingSetting
		value   string
		updated string
	)
	if err := row.Scan(&setting.Key, &value, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.RankingSetting{}, err
		}
		return models.RankingSetting{}, classify("scan setting", err)
	}
	setting.Value = json.RawMessage(value)
	if t, err := parseTimestamp(updated); err == nil {
		setting.UpdatedAt = t
	}
	return setting, nil
}

// AcquireRunLock abandons running rows older than staleAfter, then inserts
// run as the single running row. A unique violation means another run holds
// the lock.
func (r *RankingRepository) AcquireRunLock(ctx context.Context, run models.RankingRun, staleAfter time.Duration) error {
	disciplines, err := json.Marshal(nonNil(run.Disciplines))
	if err != nil {
		return fmt.Errorf("encode disciplines: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin run lock", err)
	}
	defer tx.Rollback()

	cutoff := run.StartedAt.Add(-staleAfter)
	res, err := tx.ExecContext(ctx, `
		UPDATE ranking_runs
		SET state = ?, finished_at = ?, error = ?
		WHERE state = ? AND started_at < ?`,
		models.RunStateAbandoned, formatTimestamp(run.StartedAt), "run lock expired",
		models.RunStateRunning, formatTimestamp(cutoff))
	if err != nil {
		return classify("abandon stale runs", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[database] marked %d stale ranking run(s) abandoned", n)
	}

	kind := run.Kind
	if kind == "" {
		kind = models.RunKindRecalculate
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO ranking_runs (id, kind, reference_date, disciplines, state, started_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, kind, formatDate(run.ReferenceDate), string(disciplines), models.RunStateRunning, formatTimestamp(run.StartedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("run %s: %w", run.ID, models.ErrRunLockHeld)
		}
		return classify("insert run", err)
	}

	if err := tx.Commit(); err != nil {
		return classify("commit run lock", err)
	}
	return nil
}

// FinishRun records the final state and summary of run. Only a row that still
// holds the lock is updated; a row abandoned in the meantime is left as is and
// ErrRunLockLost is returned.
func (r *RankingRepository) FinishRun(ctx context.Context, run models.RankingRun) error {
	var summary sql.NullString
	if run.Summary != nil {
		raw, err := json.Marshal(run.Summary)
		if err != nil {
			return fmt.Errorf("encode run summary: %w", err)
		}
		summary = sql.NullString{String: string(raw), Valid: true}
	}
	var finished sql.NullString
	if run.FinishedAt != nil {
		finished = sql.NullString{String: formatTimestamp(*run.FinishedAt), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE ranking_runs SET state = ?, finished_at = ?, summary = ?, error = ?
		WHERE id = ? AND state = ?`,
		run.State, finished, summary, run.Error, run.ID, models.RunStateRunning)
	if err != nil {
		return classify("finish run", err)
	}
	if n, err := res.RowsAffected(); err != nil || n > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM ranking_runs WHERE id = ?)`, run.ID).Scan(&exists); err != nil {
		return classify("finish run", err)
	}
	if exists {
		return fmt.Errorf("run %s: %w", run.ID, models.ErrRunLockLost)
	}
	return fmt.Errorf("run %s: %w", run.ID, models.ErrNotFound)
}

// ListRuns returns the most recently started runs first.
func (r *RankingRepository) ListRuns(ctx context.Context, limit int) ([]models.RankingRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, reference_date, disciplines, state, started_at, finished_at, summary, error
		FROM ranking_runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, classify("list runs", err)
	}
	defer rows.Close()

	runs := []models.RankingRun{}
	for rows.Next() {
		var (
			run         models.RankingRun
			reference   string
			disciplines string
			started     string
			finished    sql.NullString
			summary     sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Kind, &reference, &disciplines, &run.State, &started, &finished, &summary, &run.Error); err != nil {
			return nil, classify("scan run", err)
		}
		if run.ReferenceDate, err = parseDate(reference); err != nil {
			return nil, fmt.Errorf("run %s reference date: %w", run.ID, err)
		}
		if run.StartedAt, err = parseTimestamp(started); err != nil {
			return nil, fmt.Errorf("run %s start: %w", run.ID, err)
		}
		if finished.Valid {
			t, err := parseTimestamp(finished.String)
			if err != nil {
				return nil, fmt.Errorf("run %s finish: %w", run.ID, err)
			}
			run.FinishedAt = &t
		}
		if err := json.Unmarshal([]byte(disciplines), &run.Disciplines); err != nil {
			return nil, fmt.Errorf("run %s disciplines: %w", run.ID, err)
		}
		if summary.Valid {
			run.Summary = &models.RunSummary{}
			if err := json.Unmarshal([]byte(summary.String), run.Summary); err != nil {
				return nil, fmt.Errorf("run %s summary: %w", run.ID, err)
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list runs", err)
	}
	return runs, nil
}

// ZeroIneligibleClassPoints sets points to zero on results whose class awards
// no points. With dryRun it only counts them.
func (r *RankingRepository) ZeroIneligibleClassPoints(ctx context.Context, dryRun bool) (int64, error) {
	const where = `points <> 0 AND class_id IN (SELECT id FROM classes WHERE awards_points = 0)`

	if dryRun {
		var n int64
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM results WHERE `+where).Scan(&n); err != nil {
			return 0, classify("count ineligible points", err)
		}
		return n, nil
	}

	res, err := r.db.ExecContext(ctx, `UPDATE results SET points = 0 WHERE `+where)
	if err != nil {
		return 0, classify("zero ineligible points", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("zero ineligible points", err)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
