package config

import (
	"log"
	"sync"
	"time"

	"cycleranking/services/ranking"
)

// OptionsGetter returns the engine options derived from the current settings.
type OptionsGetter func() ranking.Options

// RankingAdapter projects the application settings onto the ranking engine's options.
type RankingAdapter struct {
	manager *Manager
	mu      sync.RWMutex
}

// NewRankingAdapter creates a new adapter
func NewRankingAdapter(manager *Manager) *RankingAdapter {
	return &RankingAdapter{
		manager: manager,
	}
}

// Options returns the engine options. When the file cannot be read the
// defaults are used.
func (ra *RankingAdapter) Options() ranking.Options {
	ra.mu.RLock()
	defer ra.mu.RUnlock()

	settings, err := ra.manager.Load()
	if err != nil {
		log.Printf("[config] using default ranking options: %v", err)
		settings = DefaultSettings()
	}
	return ToRankingOptions(settings.Ranking)
}

// GetOptionsGetter returns an OptionsGetter bound to the adapter.
func (ra *RankingAdapter) GetOptionsGetter() OptionsGetter {
	return ra.Options
}

// ToRankingOptions converts the ranking section of the settings file.
func ToRankingOptions(s RankingSettings) ranking.Options {
	attempts := s.WriteRetryAttempts
	if attempts < 0 {
		attempts = 0
	}
	return ranking.Options{
		RunTimeout:             time.Duration(s.RunTimeoutSeconds) * time.Second,
		StaleRunAfter:          time.Duration(s.StaleRunMinutes) * time.Minute,
		MaxParallelDisciplines: s.MaxParallelDisciplines,
		WriteRetryAttempts:     uint(attempts),
		StrictSettings:         s.StrictSettings,
	}
}

// ScheduleInterval is the periodic recalculation interval, zero when disabled.
func (s RankingSettings) ScheduleInterval() time.Duration {
	return time.Duration(s.ScheduleIntervalMinutes) * time.Minute
}
