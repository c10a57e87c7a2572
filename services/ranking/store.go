package ranking

import (
	"context"
	"encoding/json"
	"time"

	"cycleranking/models"
)

//go:generate mockgen -destination=mock_store_test.go -package=ranking_test cycleranking/services/ranking Store

// Store is everything the engine needs from persistence. Implementations
// report missing rows with models.ErrNotFound, a held run lock with
// models.ErrRunLockHeld and retryable contention with models.ErrStoreBusy.
type Store interface {
	ListSettings(ctx context.Context) ([]models.RankingSetting, error)
	GetSetting(ctx context.Context, key string) (models.RankingSetting, error)
	PutSetting(ctx context.Context, key string, value json.RawMessage) (models.RankingSetting, error)
	DeleteSetting(ctx context.Context, key string) error

	// ReadDataset loads the source rows of a run in one read transaction.
	ReadDataset(ctx context.Context, q models.DatasetQuery) (*models.Dataset, error)

	// AcquireRunLock records run as running, failing with models.ErrRunLockHeld
	// while another run younger than staleAfter is still running.
	AcquireRunLock(ctx context.Context, run models.RankingRun, staleAfter time.Duration) error
	// FinishRun stores the outcome of run and releases its lock. It fails
	// with models.ErrRunLockLost when the row was abandoned as stale in the
	// meantime, leaving that row untouched.
	FinishRun(ctx context.Context, run models.RankingRun) error
	ListRuns(ctx context.Context, limit int) ([]models.RankingRun, error)

	// WriteSnapshots persists one snapshot set per discipline in a single
	// write transaction. rollup is called once, with the rider rows of every
	// set read back after all of them are inserted; the club rows it returns
	// are written before the transaction commits.
	WriteSnapshots(ctx context.Context, runID string, snapshotDate time.Time, sets []models.RiderSnapshotSet, rollup models.ClubRollup) ([]models.SnapshotWrite, error)

	// RiderSnapshots returns the newest set for the discipline at date, or
	// at the latest date when date is nil.
	RiderSnapshots(ctx context.Context, discipline string, date *time.Time) ([]models.RankingSnapshot, error)
	ClubSnapshots(ctx context.Context, discipline string, date *time.Time) ([]models.ClubRankingSnapshot, error)
	// SnapshotDisciplines lists the disciplines that have at least one snapshot set.
	SnapshotDisciplines(ctx context.Context) ([]string, error)
	RiderHistory(ctx context.Context, riderID int64) ([]models.RankingSnapshot, error)
	ClubHistory(ctx context.Context, clubID int64) ([]models.ClubRankingSnapshot, error)

	// ZeroIneligibleClassPoints forces the points of results in classes that
	// award no points to zero and reports how many rows are (or would be) changed.
	ZeroIneligibleClassPoints(ctx context.Context, dryRun bool) (int64, error)
}
