package ranking

import (
	"errors"
	"fmt"
)

var (
	// ErrRunInProgress rejects a run while another one holds the run lock.
	ErrRunInProgress = errors.New("ranking recalculation already running")
	// ErrSettingNotFound is returned for an unknown ranking setting key.
	ErrSettingNotFound = errors.New("ranking setting not found")
	// ErrSnapshotNotFound is returned when no snapshot matches a query.
	ErrSnapshotNotFound = errors.New("ranking snapshot not found")
	// ErrUnknownSettingKey rejects writes to keys the engine does not read.
	ErrUnknownSettingKey = errors.New("unknown ranking setting key")
)

// ConfigurationError is fatal: the run aborts before anything is written.
type ConfigurationError struct {
	Key string
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("ranking configuration %q: %v", e.Key, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// PersistenceError means the snapshot write transaction was rolled back.
// The previously current snapshots are untouched.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("ranking persistence (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func configErr(key string, format string, args ...any) error {
	return &ConfigurationError{Key: key, Err: fmt.Errorf(format, args...)}
}
