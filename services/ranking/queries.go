package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"cycleranking/models"
)

// ListSettings returns every stored settings document.
func (s *Service) ListSettings(ctx context.Context) ([]models.RankingSetting, error) {
	return s.store.ListSettings(ctx)
}

// GetSetting returns the stored document for key.
func (s *Service) GetSetting(ctx context.Context, key string) (models.RankingSetting, error) {
	setting, err := s.store.GetSetting(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return models.RankingSetting{}, fmt.Errorf("%w: %q", ErrSettingNotFound, key)
	}
	return setting, err
}

// PutSetting validates and stores a settings document. It takes effect with
// the next run; a run in progress keeps the settings it loaded.
func (s *Service) PutSetting(ctx context.Context, key string, value json.RawMessage) (models.RankingSetting, error) {
	if err := ValidateSetting(key, value); err != nil {
		return models.RankingSetting{}, err
	}
	setting, err := s.store.PutSetting(ctx, key, value)
	if err != nil {
		return models.RankingSetting{}, err
	}
	log.Printf("[ranking] setting %q updated", key)
	return setting, nil
}

// DeleteSetting removes a settings document. Multiplier tables fall back to
// neutral values on the next run.
func (s *Service) DeleteSetting(ctx context.Context, key string) error {
	err := s.store.DeleteSetting(ctx, key)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %q", ErrSettingNotFound, key)
	}
	if err != nil {
		return err
	}
	log.Printf("[ranking] setting %q deleted", key)
	return nil
}

// RiderRankings returns the current rider ranking of a discipline, or the one
// published on date when date is set.
func (s *Service) RiderRankings(ctx context.Context, discipline string, date *time.Time) ([]models.RankingSnapshot, error) {
	rows, err := s.store.RiderSnapshots(ctx, models.CanonicalDiscipline(discipline), truncatePtr(date))
	if err != nil {
		return nil, snapshotErr(err)
	}
	return rows, nil
}

// ClubRankings returns the current club ranking of a discipline, or the one
// published on date when date is set.
func (s *Service) ClubRankings(ctx context.Context, discipline string, date *time.Time) ([]models.ClubRankingSnapshot, error) {
	rows, err := s.store.ClubSnapshots(ctx, models.CanonicalDiscipline(discipline), truncatePtr(date))
	if err != nil {
		return nil, snapshotErr(err)
	}
	return rows, nil
}

// Disciplines lists the disciplines with a published ranking.
func (s *Service) Disciplines(ctx context.Context) ([]string, error) {
	return s.store.SnapshotDisciplines(ctx)
}

// RiderHistory lists a rider's rows of every authoritative snapshot set, newest first.
func (s *Service) RiderHistory(ctx context.Context, riderID int64) ([]models.RankingSnapshot, error) {
	rows, err := s.store.RiderHistory(ctx, riderID)
	if err != nil {
		return nil, snapshotErr(err)
	}
	return rows, nil
}

// ClubHistory lists a club's rows of every authoritative snapshot set, newest first.
func (s *Service) ClubHistory(ctx context.Context, clubID int64) ([]models.ClubRankingSnapshot, error) {
	rows, err := s.store.ClubHistory(ctx, clubID)
	if err != nil {
		return nil, snapshotErr(err)
	}
	return rows, nil
}

// Runs lists the most recent runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]models.RankingRun, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.store.ListRuns(ctx, limit)
}

func snapshotErr(err error) error {
	if errors.Is(err, models.ErrNotFound) {
		return ErrSnapshotNotFound
	}
	return err
}

func truncatePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := TruncateDay(*t)
	return &d
}
