package config

import (
	"errors"
	"fmt"
	"strings"
)

// Settings is the application configuration stored in settings.json. Ranking
// policy (multipliers, decay, aggregation) lives in the database instead.
type Settings struct {
	Server   ServerSettings   `json:"server"`
	Database DatabaseSettings `json:"database"`
	Log      LogSettings      `json:"log"`
	Ranking  RankingSettings  `json:"ranking"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseSettings struct {
	Path string `json:"path"`
}

// LogSettings configures the rotating log file. An empty path logs to stdout only.
type LogSettings struct {
	Path       string `json:"path"`
	MaxSizeMB  int    `json:"maxSizeMB"`
	MaxBackups int    `json:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays"`
	Compress   bool   `json:"compress"`
}

type RankingSettings struct {
	RunTimeoutSeconds      int  `json:"runTimeoutSeconds"`
	StaleRunMinutes        int  `json:"staleRunMinutes"`
	MaxParallelDisciplines int  `json:"maxParallelDisciplines"`
	WriteRetryAttempts     int  `json:"writeRetryAttempts"`
	StrictSettings         bool `json:"strictSettings"`
	// ScheduleIntervalMinutes enables periodic recalculation when positive.
	ScheduleIntervalMinutes   int  `json:"scheduleIntervalMinutes"`
	HygieneBeforeScheduledRun bool `json:"hygieneBeforeScheduledRun"`
}

// DefaultSettings returns the configuration used when no file exists yet.
func DefaultSettings() Settings {
	return Settings{
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 7788,
		},
		Database: DatabaseSettings{
			Path: "data/rankings.db",
		},
		Log: LogSettings{
			Path:       "data/logs/ranking.log",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
		Ranking: RankingSettings{
			RunTimeoutSeconds:      300,
			StaleRunMinutes:        30,
			MaxParallelDisciplines: 4,
			WriteRetryAttempts:     3,
		},
	}
}

// Validate rejects settings the server cannot start with.
func (s Settings) Validate() error {
	var errs []error
	if s.Server.Port < 1 || s.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", s.Server.Port))
	}
	if strings.TrimSpace(s.Database.Path) == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if s.Log.MaxSizeMB < 0 || s.Log.MaxBackups < 0 || s.Log.MaxAgeDays < 0 {
		errs = append(errs, errors.New("log limits must not be negative"))
	}
	r := s.Ranking
	if r.RunTimeoutSeconds < 1 {
		errs = append(errs, errors.New("ranking.runTimeoutSeconds must be positive"))
	}
	if r.StaleRunMinutes < 1 {
		errs = append(errs, errors.New("ranking.staleRunMinutes must be positive"))
	} else if r.RunTimeoutSeconds >= r.StaleRunMinutes*60 {
		// A live run must never look stale to another process.
		errs = append(errs, fmt.Errorf("ranking.staleRunMinutes (%d) must exceed ranking.runTimeoutSeconds (%d)",
			r.StaleRunMinutes, r.RunTimeoutSeconds))
	}
	if r.MaxParallelDisciplines < 1 {
		errs = append(errs, errors.New("ranking.maxParallelDisciplines must be positive"))
	}
	if r.WriteRetryAttempts < 1 {
		errs = append(errs, errors.New("ranking.writeRetryAttempts must be positive"))
	}
	if r.ScheduleIntervalMinutes < 0 {
		errs = append(errs, errors.New("ranking.scheduleIntervalMinutes must not be negative"))
	}
	return errors.Join(errs...)
}
