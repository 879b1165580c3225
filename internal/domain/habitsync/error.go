package habitsync

import "errors"

var (
	// ErrSyncInProgress is returned when an owner already has a sync batch
	// being merged for the same entity type.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnknownEntityType is returned for entity types the server does not
	// recognise.
	ErrUnknownEntityType = errors.New("unknown entity type")

	// ErrEmptyOwner is returned when a request arrives without an owner.
	ErrEmptyOwner = errors.New("owner id is empty")
)
