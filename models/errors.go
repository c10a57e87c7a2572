package models

import "errors"

// Storage-level conditions shared by every ranking store implementation.
var (
	ErrNotFound    = errors.New("not found")
	ErrRunLockHeld = errors.New("run lock held by another recalculation")
	// ErrRunLockLost means the run row was abandoned by another process
	// before the run finished.
	ErrRunLockLost = errors.New("run lock lost")
	// ErrStoreBusy marks transient contention; the operation may be retried.
	ErrStoreBusy = errors.New("store busy")
)
