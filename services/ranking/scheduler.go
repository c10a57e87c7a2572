package ranking

import (
	"context"
	"errors"
	"log"
	"time"
)

// Schedule recalculates every discipline as of today on each tick until ctx
// is cancelled. With hygieneFirst, non-awarding class points are zeroed before
// each run. Ticks that find a run in progress are skipped.
func (s *Service) Schedule(ctx context.Context, interval time.Duration, hygieneFirst bool) {
	if interval <= 0 {
		return
	}
	log.Printf("[ranking] scheduler started interval=%s hygiene=%t", interval, hygieneFirst)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Printf("[ranking] scheduler stopped")
			return
		case <-ticker.C:
			s.scheduledRun(ctx, hygieneFirst)
		}
	}
}

func (s *Service) scheduledRun(ctx context.Context, hygieneFirst bool) {
	if hygieneFirst {
		if _, err := s.ZeroIneligiblePoints(ctx, false); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				log.Printf("[ranking] scheduled run skipped: %v", err)
				return
			}
			log.Printf("[ranking] scheduled hygiene failed: %v", err)
		}
	}

	if _, err := s.Recalculate(ctx, time.Time{}, nil); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			log.Printf("[ranking] scheduled run skipped: %v", err)
			return
		}
		log.Printf("[ranking] scheduled run failed: %v", err)
	}
}
