package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"cycleranking/models"
)

const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// classify maps driver errors onto the store conditions callers branch on.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return fmt.Errorf("%s: %w: %w", op, models.ErrStoreBusy, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Timestamps are stored fixed-width in UTC so they compare as text.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func formatDate(t time.Time) string {
	return t.UTC().Format(models.SnapshotDateLayout)
}

// parseDate accepts a bare date or any value starting with one.
func parseDate(s string) (time.Time, error) {
	if len(s) > len(models.SnapshotDateLayout) {
		s = s[:len(models.SnapshotDateLayout)]
	}
	return time.ParseInLocation(models.SnapshotDateLayout, s, time.UTC)
}
