package ranking_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"cycleranking/models"
	"cycleranking/services/ranking"
)

func settingRows() []models.RankingSetting {
	return []models.RankingSetting{
		{Key: models.SettingFieldMultipliers, Value: json.RawMessage(defaultFieldTable)},
		{Key: models.SettingEventLevelMultipliers, Value: json.RawMessage(defaultLevelTable)},
	}
}

func smallDataset() *models.Dataset {
	return &models.Dataset{
		Classes: map[int64]models.Class{1: openClass(1)},
		Riders:  riders(1, 2),
		Disciplines: []models.DisciplineData{{
			Discipline: "road",
			Events:     map[int64]models.Event{1: {ID: 1, Date: day(2025, time.May, 1), Discipline: "road", Level: models.EventLevelNational}},
			Results:    []models.Result{finished(1, 1, 1, 1, 40), finished(2, 2, 1, 1, 20)},
		}},
	}
}

func TestRecalculateWriteFailureIsPersistenceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{WriteRetryAttempts: 3})

	diskFull := errors.New("disk I/O error")
	var recorded models.RankingRun

	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), 30*time.Minute).Return(nil)
	store.EXPECT().ListSettings(gomock.Any()).Return(settingRows(), nil)
	store.EXPECT().ReadDataset(gomock.Any(), gomock.Any()).Return(smallDataset(), nil)
	store.EXPECT().WriteSnapshots(gomock.Any(), gomock.Any(), reference, gomock.Len(1), gomock.Any()).
		Return(nil, diskFull).Times(1)
	store.EXPECT().FinishRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, run models.RankingRun) error {
			recorded = run
			return nil
		})

	summary, err := svc.Recalculate(context.Background(), reference, nil)

	var persistErr *ranking.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	require.ErrorIs(t, err, diskFull)
	assert.Equal(t, models.RunStateFailed, summary.State)
	assert.Equal(t, models.RunStateWritingRiderSnapshots, summary.FailedIn)
	assert.Zero(t, summary.RiderSnapshotsWritten)

	assert.Equal(t, models.RunStateFailed, recorded.State)
	assert.NotNil(t, recorded.FinishedAt)
	assert.Equal(t, summary, recorded.Summary)
}

func TestRecalculateRetriesBusyWrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{WriteRetryAttempts: 3})

	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().ListSettings(gomock.Any()).Return(settingRows(), nil)
	store.EXPECT().ReadDataset(gomock.Any(), gomock.Any()).Return(smallDataset(), nil)
	gomock.InOrder(
		store.EXPECT().WriteSnapshots(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil, fmt.Errorf("commit snapshots: %w", models.ErrStoreBusy)),
		store.EXPECT().WriteSnapshots(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, _ time.Time, sets []models.RiderSnapshotSet, rollup models.ClubRollup) ([]models.SnapshotWrite, error) {
				clubs, err := rollup(sets)
				if err != nil {
					return nil, err
				}
				return []models.SnapshotWrite{{Discipline: "road", SetID: 1, Riders: len(sets[0].Riders), Clubs: len(clubs[0].Clubs)}}, nil
			}),
	)
	store.EXPECT().FinishRun(gomock.Any(), gomock.Any()).Return(nil)

	summary, err := svc.Recalculate(context.Background(), reference, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RunStateDone, summary.State)
	assert.Equal(t, 2, summary.RiderSnapshotsWritten)
	assert.Equal(t, 0, summary.ClubSnapshotsWritten, "riders without clubs are not rolled up")
}

func TestRecalculateRejectsConcurrentRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{})

	entered := make(chan struct{})
	release := make(chan struct{})
	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.RankingRun, time.Duration) error {
			close(entered)
			<-release
			return models.ErrRunLockHeld
		}).Times(1)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Recalculate(context.Background(), reference, nil)
		done <- err
	}()
	<-entered

	summary, err := svc.Recalculate(context.Background(), reference, nil)
	assert.Nil(t, summary)
	assert.ErrorIs(t, err, ranking.ErrRunInProgress)

	_, err = svc.ZeroIneligiblePoints(context.Background(), false)
	assert.ErrorIs(t, err, ranking.ErrRunInProgress, "hygiene never overlaps a run")

	close(release)
	assert.ErrorIs(t, <-done, ranking.ErrRunInProgress)
}

func TestRecalculateTimeoutLeavesNothingWritten(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{RunTimeout: 20 * time.Millisecond})

	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().ListSettings(gomock.Any()).Return(settingRows(), nil)
	store.EXPECT().ReadDataset(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ models.DatasetQuery) (*models.Dataset, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})
	store.EXPECT().FinishRun(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, run models.RankingRun) error {
			require.NoError(t, ctx.Err(), "the outcome is recorded after the run context expired")
			assert.Equal(t, models.RunStateFailed, run.State)
			return nil
		})

	summary, err := svc.Recalculate(context.Background(), reference, nil)

	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.RunStateFilteringResults, summary.FailedIn)
}

func TestRecalculateCancelledBetweenStages(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{})

	ctx, cancel := context.WithCancel(context.Background())
	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().ListSettings(gomock.Any()).Return(settingRows(), nil)
	store.EXPECT().ReadDataset(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.DatasetQuery) (*models.Dataset, error) {
			cancel()
			return smallDataset(), nil
		})
	store.EXPECT().FinishRun(gomock.Any(), gomock.Any()).Return(nil)

	summary, err := svc.Recalculate(ctx, reference, nil)

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.RunStateFailed, summary.State)
}

func TestRecalculateLockStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{})

	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("database is closed"))

	summary, err := svc.Recalculate(context.Background(), time.Time{}, nil)

	var persistErr *ranking.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, "acquire run lock", persistErr.Op)
	assert.Nil(t, summary)
	assert.Equal(t, models.RunStateIdle, svc.Status().State)
}

func TestRecalculateUsesClockForDefaultReference(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	now := time.Date(2026, time.March, 9, 18, 30, 0, 0, time.UTC)
	svc := ranking.NewService(store, ranking.Options{Now: func() time.Time { return now }})

	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, run models.RankingRun, _ time.Duration) error {
			assert.Equal(t, day(2026, time.March, 9), run.ReferenceDate)
			assert.Equal(t, []string{"cyclo-cross", "road"}, run.Disciplines)
			return nil
		})
	store.EXPECT().ListSettings(gomock.Any()).Return(nil, nil)
	store.EXPECT().ReadDataset(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, q models.DatasetQuery) (*models.Dataset, error) {
			assert.Equal(t, day(2024, time.March, 9), q.From)
			assert.Equal(t, day(2026, time.March, 9), q.To)
			return &models.Dataset{}, nil
		})
	store.EXPECT().WriteSnapshots(gomock.Any(), gomock.Any(), day(2026, time.March, 9), gomock.Len(0), gomock.Any()).Return(nil, nil)
	store.EXPECT().FinishRun(gomock.Any(), gomock.Any()).Return(nil)

	summary, err := svc.Recalculate(context.Background(), time.Time{}, []string{"Road", "Cyclo Cross"})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-09", summary.SnapshotDate)
	assert.Len(t, summary.SettingsFallbacks, 2)
	assert.Equal(t, "0s", summary.Duration)
}

func TestStaleRunAfterExceedsRunTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{RunTimeout: time.Hour, StaleRunAfter: time.Minute})

	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ models.RankingRun, staleAfter time.Duration) error {
			assert.Greater(t, staleAfter, time.Hour, "a live run must not be abandoned by another process")
			return models.ErrRunLockHeld
		})

	_, err := svc.Recalculate(context.Background(), reference, nil)
	assert.ErrorIs(t, err, ranking.ErrRunInProgress)
}

func TestZeroIneligiblePointsRecordsMaintenanceRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{})

	var acquired, recorded models.RankingRun
	gomock.InOrder(
		store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), 30*time.Minute).
			DoAndReturn(func(_ context.Context, run models.RankingRun, _ time.Duration) error {
				acquired = run
				return nil
			}),
		store.EXPECT().ZeroIneligibleClassPoints(gomock.Any(), false).Return(int64(0), errors.New("database is locked")),
		store.EXPECT().FinishRun(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, run models.RankingRun) error {
				recorded = run
				return nil
			}),
	)

	_, err := svc.ZeroIneligiblePoints(context.Background(), false)

	var persistErr *ranking.PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, models.RunKindMaintenance, acquired.Kind)
	assert.Equal(t, models.RunStateRunning, acquired.State)
	assert.Equal(t, acquired.ID, recorded.ID)
	assert.Equal(t, models.RunStateFailed, recorded.State)
	assert.Equal(t, "database is locked", recorded.Error)
	assert.NotNil(t, recorded.FinishedAt)
}

func TestLostRunLockStillReturnsSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := NewMockStore(ctrl)
	svc := ranking.NewService(store, ranking.Options{})

	store.EXPECT().AcquireRunLock(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().ListSettings(gomock.Any()).Return(settingRows(), nil)
	store.EXPECT().ReadDataset(gomock.Any(), gomock.Any()).Return(&models.Dataset{}, nil)
	store.EXPECT().WriteSnapshots(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	store.EXPECT().FinishRun(gomock.Any(), gomock.Any()).Return(fmt.Errorf("run x: %w", models.ErrRunLockLost))

	summary, err := svc.Recalculate(context.Background(), reference, nil)
	require.NoError(t, err)
	assert.Equal(t, models.RunStateDone, summary.State)
	assert.Equal(t, models.RunStateIdle, svc.Status().State)
}
