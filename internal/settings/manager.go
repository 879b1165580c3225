package settings

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"habitkeeper/internal/model"
	syncengine "habitkeeper/internal/sync"
)

// DefaultDebounceWindow is the quiet period after the last local settings
// mutation before a round-trip is fired.
const DefaultDebounceWindow = 2 * time.Second

// Backend is the settings slice of the sync backend.
type Backend interface {
	SyncSettings(ctx context.Context, snapshot model.SettingsSnapshot, ownerID string, since int64) syncengine.Result[model.SettingsSnapshot]
}

// Manager debounces and executes settings-blob synchronization with the
// same remote-wins policy as the record coordinator. Per owner it moves
// Idle -> Debouncing -> Syncing -> Idle; only the last trigger within a
// burst results in a network call.
type Manager struct {
	store      Store
	serializer *Serializer
	backend    Backend
	log        *slog.Logger
	window     time.Duration

	mu      gosync.Mutex
	ownerID string
	timer   *time.Timer
	syncing bool
}

func NewManager(store Store, backend Backend, log *slog.Logger, window time.Duration) *Manager {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Manager{
		store:      store,
		serializer: NewSerializer(store),
		backend:    backend,
		log:        log.With(slog.String("component", "settings_sync")),
		window:     window,
	}
}

// SetOwner records the authenticated owner all subsequent syncs run for.
func (m *Manager) SetOwner(ownerID string) {
	m.mu.Lock()
	m.ownerID = ownerID
	m.mu.Unlock()
}

func (m *Manager) owner() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ownerID
}

// TriggerDebouncedSync cancels any in-flight debounce timer and restarts
// the window. At most one pending timer exists per process at a time.
func (m *Manager) TriggerDebouncedSync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
	}
	m.timer = time.AfterFunc(m.window, func() {
		if err := m.PerformSync(context.Background()); err != nil {
			m.log.Warn("debounced settings sync failed", slog.Any("error", err))
		}
	})
}

// Flush runs a pending debounced sync immediately instead of waiting out
// the window. A no-op when nothing is pending, so short-lived processes
// can call it unconditionally on shutdown.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	pending := m.timer != nil
	if pending {
		m.timer.Stop()
		m.timer = nil
	}
	m.mu.Unlock()

	if !pending {
		return nil
	}
	return m.PerformSync(ctx)
}

// CancelPendingSync stops a pending debounce timer, if any. A sync already
// past the timer cannot be cancelled.
func (m *Manager) CancelPendingSync() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// PerformSync runs one immediate settings round-trip: serialize the local
// groups, exchange with the backend, and apply the remote blob if it is
// newer (whole-blob remote wins). A failed round-trip leaves local
// settings untouched and records the error for diagnostics.
func (m *Manager) PerformSync(ctx context.Context) error {
	ownerID := m.owner()
	if ownerID == "" {
		return syncengine.ErrNotAuthenticated
	}

	m.mu.Lock()
	if m.syncing {
		m.mu.Unlock()
		return syncengine.ErrSyncInProgress
	}
	m.syncing = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.syncing = false
		m.mu.Unlock()
	}()

	snap, err := m.serializer.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("serialize settings: %w", err)
	}
	state, err := m.store.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("read settings sync state: %w", err)
	}

	res := m.backend.SyncSettings(ctx, snap, ownerID, state.Watermark)
	switch res.State {
	case syncengine.StateError:
		state.Status = model.SyncError
		state.Message = res.Message
		if serr := m.store.SetSyncState(ctx, state); serr != nil {
			m.log.Warn("failed to persist settings sync error", slog.Any("error", serr))
		}
		return fmt.Errorf("settings sync: %s: %w", res.Message, res.Err())
	case syncengine.StateInProgress:
		return syncengine.ErrSyncInProgress
	case syncengine.StateConflict:
		// No conflict UI exists here; the remote blob is accepted as-is.
		m.log.Warn("settings conflict resolved remote-wins",
			slog.Int("conflicts", len(res.Conflicts)))
	}

	remote := res.Merged()
	if remote.LastModified > snap.LastModified {
		if err := m.serializer.Apply(ctx, remote); err != nil {
			return fmt.Errorf("apply remote settings: %w", err)
		}
		state.LastModified = remote.LastModified
	}

	state.Status = model.SyncSynced
	state.Message = ""
	if remote.LastModified > state.Watermark {
		state.Watermark = remote.LastModified
	}
	if snap.LastModified > state.Watermark {
		state.Watermark = snap.LastModified
	}
	if err := m.store.SetSyncState(ctx, state); err != nil {
		return fmt.Errorf("persist settings sync state: %w", err)
	}

	m.log.Debug("settings synced",
		slog.Int64("watermark", state.Watermark),
		slog.Bool("remote_applied", remote.LastModified > snap.LastModified))
	return nil
}

// DownloadSettings is the first-login pull: it sends an empty blob with a
// zero watermark so the backend returns its full settings row, and applies
// whatever comes back regardless of local modification time.
func (m *Manager) DownloadSettings(ctx context.Context) error {
	ownerID := m.owner()
	if ownerID == "" {
		return syncengine.ErrNotAuthenticated
	}

	empty := model.SettingsSnapshot{Groups: map[string]map[string]any{}}
	res := m.backend.SyncSettings(ctx, empty, ownerID, 0)
	if err := res.Err(); err != nil {
		return fmt.Errorf("download settings: %w", err)
	}

	remote := res.Merged()
	if len(remote.Groups) == 0 {
		// Fresh owner with no cloud settings yet.
		return nil
	}
	if err := m.serializer.Apply(ctx, remote); err != nil {
		return fmt.Errorf("apply downloaded settings: %w", err)
	}

	state, err := m.store.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("read settings sync state: %w", err)
	}
	state.Status = model.SyncSynced
	state.Message = ""
	state.LastModified = remote.LastModified
	if remote.LastModified > state.Watermark {
		state.Watermark = remote.LastModified
	}
	return m.store.SetSyncState(ctx, state)
}

// UploadSettings is the first-login push: it serializes the local groups
// and sends them without applying anything the backend returns.
func (m *Manager) UploadSettings(ctx context.Context) error {
	ownerID := m.owner()
	if ownerID == "" {
		return syncengine.ErrNotAuthenticated
	}

	snap, err := m.serializer.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("serialize settings: %w", err)
	}
	state, err := m.store.SyncState(ctx)
	if err != nil {
		return fmt.Errorf("read settings sync state: %w", err)
	}

	res := m.backend.SyncSettings(ctx, snap, ownerID, state.Watermark)
	if err := res.Err(); err != nil {
		state.Status = model.SyncError
		state.Message = res.Message
		if serr := m.store.SetSyncState(ctx, state); serr != nil {
			m.log.Warn("failed to persist settings sync error", slog.Any("error", serr))
		}
		return fmt.Errorf("upload settings: %w", err)
	}

	state.Status = model.SyncSynced
	state.Message = ""
	if snap.LastModified > state.Watermark {
		state.Watermark = snap.LastModified
	}
	return m.store.SetSyncState(ctx, state)
}
