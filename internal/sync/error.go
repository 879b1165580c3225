package sync

import "errors"

var (
	// ErrNotAuthenticated is returned before any network call when no
	// owner id is available.
	ErrNotAuthenticated = errors.New("not authenticated: no owner id")
	// ErrSyncInProgress is returned when a sync for the same owner is
	// already running; the caller must not retry immediately.
	ErrSyncInProgress = errors.New("sync already in progress")
	// ErrBackend is the generic cause for a backend failure that carried
	// no underlying error.
	ErrBackend = errors.New("backend error")
	// ErrPartialFailure reports that at least one entity type failed to
	// sync while others may have committed.
	ErrPartialFailure = errors.New("one or more entity types failed to sync")
)
