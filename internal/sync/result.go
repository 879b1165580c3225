package sync

import "habitkeeper/internal/model"

// State discriminates a Result.
type State string

const (
	StateSuccess    State = "success"
	StateError      State = "error"
	StateConflict   State = "conflict"
	StateInProgress State = "in_progress"
)

// Conflict describes one record modified on both sides since the last sync.
// It is carried for logging; resolution is always remote-wins.
type Conflict struct {
	Key            string `json:"key"`
	LocalModified  int64  `json:"local_modified"`
	RemoteModified int64  `json:"remote_modified"`
	Reason         string `json:"reason,omitempty"`
}

// Result is the tagged outcome of every remote sync operation. T is a
// slice of the entity type being synced, or a settings snapshot.
type Result[T any] struct {
	State     State
	Data      T          // valid when State == StateSuccess
	Cause     error      // valid when State == StateError
	Message   string     // human-readable detail for StateError
	Conflicts []Conflict // valid when State == StateConflict
	Remote    T          // remote's current view when State == StateConflict
}

func Success[T any](data T) Result[T] {
	return Result[T]{State: StateSuccess, Data: data}
}

func Failure[T any](cause error, message string) Result[T] {
	return Result[T]{State: StateError, Cause: cause, Message: message}
}

func Conflicted[T any](conflicts []Conflict, remote T) Result[T] {
	return Result[T]{State: StateConflict, Conflicts: conflicts, Remote: remote}
}

func InProgress[T any]() Result[T] {
	return Result[T]{State: StateInProgress}
}

// Ok reports whether the operation produced an authoritative record set.
// A conflict counts: it resolves remote-wins and carries usable data.
func (r Result[T]) Ok() bool {
	return r.State == StateSuccess || r.State == StateConflict
}

// Merged returns the authoritative record set: Data on success, the
// remote view on conflict.
func (r Result[T]) Merged() T {
	if r.State == StateConflict {
		return r.Remote
	}
	return r.Data
}

// Err returns the failure cause, or nil for success/conflict outcomes.
func (r Result[T]) Err() error {
	switch r.State {
	case StateError:
		if r.Cause != nil {
			return r.Cause
		}
		return ErrBackend
	case StateInProgress:
		return ErrSyncInProgress
	default:
		return nil
	}
}

// Syncable is satisfied by every entity that embeds model.SyncMeta and
// defines a natural local key.
type Syncable interface {
	Key() string
	SyncInfo() model.SyncMeta
}
