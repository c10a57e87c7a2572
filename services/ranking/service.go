package ranking

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/semaphore"

	"cycleranking/models"
)

const (
	defaultRunTimeout          = 5 * time.Minute
	defaultStaleRunAfter       = 30 * time.Minute
	defaultParallelDisciplines = 4
	defaultWriteRetryAttempts  = 3
	defaultReportedWarnings    = 100

	finishRunTimeout = 10 * time.Second
)

// Options tune a Service. Zero values select the defaults.
type Options struct {
	// RunTimeout bounds a whole recalculation; it is checked before commit.
	RunTimeout time.Duration
	// StaleRunAfter is the age after which a running lock row left by a
	// crashed process no longer blocks new runs. It is raised above
	// RunTimeout when set lower.
	StaleRunAfter          time.Duration
	MaxParallelDisciplines int
	// WriteRetryAttempts counts attempts of the snapshot write while the
	// store reports contention.
	WriteRetryAttempts uint
	// StrictSettings turns a missing multiplier table into a ConfigurationError.
	StrictSettings bool
	// MaxReportedWarnings caps the warnings listed in a summary. The full count
	// is always reported.
	MaxReportedWarnings int
	Now                 func() time.Time
}

func (o Options) withDefaults() Options {
	if o.RunTimeout <= 0 {
		o.RunTimeout = defaultRunTimeout
	}
	if o.StaleRunAfter <= 0 {
		o.StaleRunAfter = defaultStaleRunAfter
	}
	// A run may hold its lock for the whole timeout plus the time it takes to
	// record its outcome; only rows older than that can be abandoned.
	if floor := o.RunTimeout + finishRunTimeout; o.StaleRunAfter <= floor {
		o.StaleRunAfter = floor + time.Minute
	}
	if o.MaxParallelDisciplines <= 0 {
		o.MaxParallelDisciplines = defaultParallelDisciplines
	}
	if o.WriteRetryAttempts == 0 {
		o.WriteRetryAttempts = defaultWriteRetryAttempts
	}
	if o.MaxReportedWarnings <= 0 {
		o.MaxReportedWarnings = defaultReportedWarnings
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Service recalculates and serves rider and club rankings.
type Service struct {
	store   Store
	opts    Options
	runLock *semaphore.Weighted

	mu     sync.RWMutex
	status models.RunStatus
}

// NewService returns a ranking service backed by store.
func NewService(store Store, opts Options) *Service {
	return &Service{
		store:   store,
		opts:    opts.withDefaults(),
		runLock: semaphore.NewWeighted(1),
		status:  models.RunStatus{State: models.RunStateIdle},
	}
}

// Status reports the state of the run in progress, or idle with the summary
// of the last finished run.
func (s *Service) Status() models.RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Recalculate rebuilds the snapshots of the given disciplines (every
// discipline with events when none is given) as of referenceDate. A zero
// referenceDate means today. Either every discipline's snapshots are written
// or none are.
//
// The summary is returned for failed runs too, alongside the error. A run
// rejected because another one is in flight returns ErrRunInProgress and no
// summary.
func (s *Service) Recalculate(ctx context.Context, referenceDate time.Time, disciplines []string) (*models.RunSummary, error) {
	if !s.runLock.TryAcquire(1) {
		return nil, ErrRunInProgress
	}
	defer s.runLock.Release(1)

	ctx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	started := s.opts.Now().UTC()
	if referenceDate.IsZero() {
		referenceDate = started
	}
	run := models.RankingRun{
		ID:            uuid.NewString(),
		Kind:          models.RunKindRecalculate,
		ReferenceDate: TruncateDay(referenceDate),
		Disciplines:   canonicalDisciplines(disciplines),
		State:         models.RunStateRunning,
		StartedAt:     started,
	}

	if err := s.store.AcquireRunLock(ctx, run, s.opts.StaleRunAfter); err != nil {
		if errors.Is(err, models.ErrRunLockHeld) {
			return nil, fmt.Errorf("%w: %w", ErrRunInProgress, err)
		}
		return nil, &PersistenceError{Op: "acquire run lock", Err: err}
	}

	summary := &models.RunSummary{
		RunID:         run.ID,
		ReferenceDate: run.ReferenceDate,
		SnapshotDate:  run.ReferenceDate.Format(models.SnapshotDateLayout),
		Disciplines:   []models.DisciplineSummary{},
		StartedAt:     started,
	}
	s.begin(run)
	log.Printf("[ranking] run %s started reference=%s disciplines=%v", run.ID, summary.SnapshotDate, run.Disciplines)

	runErr := s.execute(ctx, run, summary)
	s.finish(run, summary, runErr)
	return summary, runErr
}

// disciplineJob carries one discipline through the pipeline stages.
type disciplineJob struct {
	data          models.DisciplineData
	filtered      Filtered
	contributions []Contribution
	riders        []models.RankingSnapshot
}

func (s *Service) execute(ctx context.Context, run models.RankingRun, summary *models.RunSummary) error {
	s.enter(models.RunStateLoadingSettings)
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return err
	}
	summary.SettingsFallbacks = settings.Fallbacks
	for _, key := range settings.Fallbacks {
		log.Printf("[ranking] run %s: setting %q is not configured, using neutral multipliers", run.ID, key)
	}
	window := NewWindow(run.ReferenceDate, settings.Decay)

	s.enter(models.RunStateFilteringResults)
	dataset, err := s.store.ReadDataset(ctx, models.DatasetQuery{
		Disciplines: run.Disciplines,
		From:        window.From,
		To:          window.Reference,
	})
	if err != nil {
		return &PersistenceError{Op: "read dataset", Err: err}
	}

	jobs := make([]*disciplineJob, 0, len(dataset.Disciplines))
	for _, d := range dataset.Disciplines {
		jobs = append(jobs, &disciplineJob{data: d})
	}

	err = s.eachDiscipline(ctx, jobs, func(j *disciplineJob) {
		j.filtered = FilterEligible(j.data, dataset.Classes, dataset.Riders, window)
	})
	if err != nil {
		return err
	}

	s.enter(models.RunStateScoring)
	err = s.eachDiscipline(ctx, jobs, func(j *disciplineJob) {
		j.contributions = Score(j.filtered.Eligible, settings)
	})
	if err != nil {
		return err
	}

	s.enter(models.RunStateAggregatingRiders)
	err = s.eachDiscipline(ctx, jobs, func(j *disciplineJob) {
		totals := AggregateRiders(j.contributions, window, settings.Decay, settings.Aggregation)
		j.riders = RankRiders(totals, j.data.Discipline, window.Reference)
	})
	if err != nil {
		return err
	}

	s.summarize(summary, jobs, dataset.OrphanResults)

	sets := make([]models.RiderSnapshotSet, 0, len(jobs))
	for _, j := range jobs {
		sets = append(sets, models.RiderSnapshotSet{Discipline: j.data.Discipline, Riders: j.riders})
	}
	rollup := func(written []models.RiderSnapshotSet) ([]models.ClubSnapshotSet, error) {
		s.enter(models.RunStateAggregatingClubs)
		clubs := make([]models.ClubSnapshotSet, 0, len(written))
		for _, set := range written {
			clubs = append(clubs, models.ClubSnapshotSet{
				Discipline: set.Discipline,
				Clubs:      RollupClubs(set.Riders, dataset.Riders, set.Discipline, window.Reference),
			})
		}
		s.enter(models.RunStateWritingClubSnapshots)
		return clubs, nil
	}

	var writes []models.SnapshotWrite
	err = retry.Do(
		func() error {
			s.enter(models.RunStateWritingRiderSnapshots)
			var werr error
			writes, werr = s.store.WriteSnapshots(ctx, run.ID, window.Reference, sets, rollup)
			return werr
		},
		retry.Context(ctx),
		retry.Attempts(s.opts.WriteRetryAttempts),
		retry.Delay(100*time.Millisecond),
		retry.RetryIf(func(err error) bool { return errors.Is(err, models.ErrStoreBusy) }),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("[ranking] run %s: snapshot write attempt %d failed, retrying: %v", run.ID, n+1, err)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return &PersistenceError{Op: "write snapshots", Err: err}
	}

	for _, w := range writes {
		for i := range summary.Disciplines {
			if summary.Disciplines[i].Discipline == w.Discipline {
				summary.Disciplines[i].RiderSnapshotsWritten = w.Riders
				summary.Disciplines[i].ClubSnapshotsWritten = w.Clubs
			}
		}
		summary.RiderSnapshotsWritten += w.Riders
		summary.ClubSnapshotsWritten += w.Clubs
	}
	return nil
}

func (s *Service) loadSettings(ctx context.Context) (Settings, error) {
	rows, err := s.store.ListSettings(ctx)
	if err != nil {
		return Settings{}, &PersistenceError{Op: "load settings", Err: err}
	}
	stored := make(map[string]models.RankingSetting, len(rows))
	for _, row := range rows {
		stored[row.Key] = row
	}
	return ParseSettings(stored, s.opts.StrictSettings)
}

// eachDiscipline runs step for every job on a bounded pool. Jobs own
// disjoint state, so the order in which they complete does not matter.
func (s *Service) eachDiscipline(ctx context.Context, jobs []*disciplineJob, step func(*disciplineJob)) error {
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(s.opts.MaxParallelDisciplines)
	for _, j := range jobs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			step(j)
			return nil
		})
	}
	return p.Wait()
}

func (s *Service) summarize(summary *models.RunSummary, jobs []*disciplineJob, orphans []models.Result) {
	var warnings []models.DataIntegrityWarning
	for _, j := range jobs {
		f := j.filtered
		summary.Disciplines = append(summary.Disciplines, models.DisciplineSummary{
			Discipline:       j.data.Discipline,
			ResultsProcessed: f.Processed,
			ResultsEligible:  len(f.Eligible),
			Excluded:         f.Excluded,
		})
		summary.ResultsProcessed += f.Processed
		summary.ResultsEligible += len(f.Eligible)
		warnings = append(warnings, f.Warnings...)
	}

	for _, r := range orphans {
		summary.ResultsProcessed++
		warnings = append(warnings, models.DataIntegrityWarning{
			ResultID: r.ID,
			Kind:     models.WarningMissingEvent,
			Detail:   fmt.Sprintf("event %d", r.EventID),
		})
	}

	slices.SortFunc(warnings, func(a, b models.DataIntegrityWarning) int {
		if c := cmp.Compare(a.ResultID, b.ResultID); c != 0 {
			return c
		}
		return cmp.Compare(a.Kind, b.Kind)
	})
	summary.WarningCount = len(warnings)
	if len(warnings) > s.opts.MaxReportedWarnings {
		warnings = warnings[:s.opts.MaxReportedWarnings]
	}
	summary.Warnings = warnings
}

func (s *Service) begin(run models.RankingRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, started := run.ReferenceDate, run.StartedAt
	s.status = models.RunStatus{
		State:         models.RunStateIdle,
		RunID:         run.ID,
		ReferenceDate: &ref,
		StartedAt:     &started,
		LastRun:       s.status.LastRun,
	}
}

func (s *Service) enter(state models.RunState) {
	s.mu.Lock()
	s.status.State = state
	s.mu.Unlock()
}

func (s *Service) finish(run models.RankingRun, summary *models.RunSummary, runErr error) {
	finished := s.opts.Now().UTC()
	summary.FinishedAt = finished
	summary.Duration = finished.Sub(summary.StartedAt).String()

	if runErr != nil {
		summary.State = models.RunStateFailed
		summary.FailedIn = s.Status().State
		summary.Error = runErr.Error()
		log.Printf("[ranking] run %s failed in %s: %v", run.ID, summary.FailedIn, runErr)
	} else {
		summary.State = models.RunStateDone
		log.Printf("[ranking] run %s done: processed=%d eligible=%d riders=%d clubs=%d warnings=%d duration=%s",
			run.ID, summary.ResultsProcessed, summary.ResultsEligible,
			summary.RiderSnapshotsWritten, summary.ClubSnapshotsWritten, summary.WarningCount, summary.Duration)
	}

	run.State = summary.State
	run.FinishedAt = &finished
	run.Summary = summary
	run.Error = summary.Error

	s.recordOutcome(run)

	s.mu.Lock()
	s.status = models.RunStatus{State: models.RunStateIdle, LastRun: summary}
	s.mu.Unlock()
}

// recordOutcome stores the final row of run. The run context may already be
// expired; the outcome is recorded regardless.
func (s *Service) recordOutcome(run models.RankingRun) {
	ctx, cancel := context.WithTimeout(context.Background(), finishRunTimeout)
	defer cancel()
	err := s.store.FinishRun(ctx, run)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrRunLockLost):
		log.Printf("[ranking] run %s: lock was taken over as stale before the run finished; outcome %s not recorded", run.ID, run.State)
	default:
		log.Printf("[ranking] run %s: failed to record outcome: %v", run.ID, err)
	}
}

// ZeroIneligiblePoints forces the points of results in classes that award no
// points to zero. An update holds the same run lock as a recalculation, in
// this process and in the database, so it never overlaps one. A dry run only
// counts and takes the in-process lock alone.
func (s *Service) ZeroIneligiblePoints(ctx context.Context, dryRun bool) (int64, error) {
	if !s.runLock.TryAcquire(1) {
		return 0, ErrRunInProgress
	}
	defer s.runLock.Release(1)

	if dryRun {
		n, err := s.store.ZeroIneligibleClassPoints(ctx, true)
		if err != nil {
			return 0, &PersistenceError{Op: "zero ineligible points", Err: err}
		}
		log.Printf("[ranking] hygiene: %d result(s) in non-awarding classes would be zeroed", n)
		return n, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.RunTimeout)
	defer cancel()

	started := s.opts.Now().UTC()
	run := models.RankingRun{
		ID:            uuid.NewString(),
		Kind:          models.RunKindMaintenance,
		ReferenceDate: TruncateDay(started),
		Disciplines:   []string{},
		State:         models.RunStateRunning,
		StartedAt:     started,
	}
	if err := s.store.AcquireRunLock(ctx, run, s.opts.StaleRunAfter); err != nil {
		if errors.Is(err, models.ErrRunLockHeld) {
			return 0, fmt.Errorf("%w: %w", ErrRunInProgress, err)
		}
		return 0, &PersistenceError{Op: "acquire run lock", Err: err}
	}

	n, err := s.store.ZeroIneligibleClassPoints(ctx, false)
	finished := s.opts.Now().UTC()
	run.FinishedAt = &finished
	if err != nil {
		run.State = models.RunStateFailed
		run.Error = err.Error()
	} else {
		run.State = models.RunStateDone
	}
	s.recordOutcome(run)

	if err != nil {
		return 0, &PersistenceError{Op: "zero ineligible points", Err: err}
	}
	log.Printf("[ranking] hygiene run %s: %d result(s) in non-awarding classes zeroed", run.ID, n)
	return n, nil
}

func canonicalDisciplines(raw []string) []string {
	var out []string
	for _, d := range raw {
		if key := models.CanonicalDiscipline(d); key != "" && !slices.Contains(out, key) {
			out = append(out, key)
		}
	}
	slices.Sort(out)
	return out
}
