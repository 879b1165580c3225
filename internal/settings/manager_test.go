package settings

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"habitkeeper/internal/model"
	syncengine "habitkeeper/internal/sync"
)

type fakeSettingsBackend struct {
	mu    gosync.Mutex
	calls int
	done  chan struct{}

	respond func(snapshot model.SettingsSnapshot, since int64) syncengine.Result[model.SettingsSnapshot]
}

func (b *fakeSettingsBackend) SyncSettings(_ context.Context, snapshot model.SettingsSnapshot, _ string, since int64) syncengine.Result[model.SettingsSnapshot] {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()
	if b.done != nil {
		b.done <- struct{}{}
	}
	if b.respond != nil {
		return b.respond(snapshot, since)
	}
	return syncengine.Success(snapshot)
}

func (b *fakeSettingsBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func newTestManager(store Store, backend Backend, window time.Duration) *Manager {
	m := NewManager(store, backend, slog.Default(), window)
	m.SetOwner("u-1")
	return m
}

func TestPerformSyncRequiresOwner(t *testing.T) {
	m := NewManager(&memStore{}, &fakeSettingsBackend{}, slog.Default(), time.Second)

	assert.ErrorIs(t, m.PerformSync(context.Background()), syncengine.ErrNotAuthenticated)
	assert.ErrorIs(t, m.DownloadSettings(context.Background()), syncengine.ErrNotAuthenticated)
}

func TestDebounceCollapsesBursts(t *testing.T) {
	backend := &fakeSettingsBackend{done: make(chan struct{}, 4)}
	m := newTestManager(&memStore{}, backend, 30*time.Millisecond)

	// Three mutations inside the window; only the last one fires.
	m.TriggerDebouncedSync()
	m.TriggerDebouncedSync()
	m.TriggerDebouncedSync()

	select {
	case <-backend.done:
	case <-time.After(2 * time.Second):
		t.Fatal("debounced sync never fired")
	}
	// Give a stray extra timer the chance to misfire before counting.
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 1, backend.callCount())
}

func TestFlushRunsPendingSyncImmediately(t *testing.T) {
	backend := &fakeSettingsBackend{}
	// A window far longer than the test: only an explicit flush can fire.
	m := newTestManager(&memStore{}, backend, time.Hour)

	m.TriggerDebouncedSync()
	require.NoError(t, m.Flush(context.Background()))
	assert.Equal(t, 1, backend.callCount())

	// With no trigger pending, flush is a no-op.
	require.NoError(t, m.Flush(context.Background()))
	assert.Equal(t, 1, backend.callCount())
}

func TestCancelStopsPendingTimer(t *testing.T) {
	backend := &fakeSettingsBackend{}
	m := newTestManager(&memStore{}, backend, 30*time.Millisecond)

	m.TriggerDebouncedSync()
	m.CancelPendingSync()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, backend.callCount())
}

func TestPerformSyncRecordsBackendError(t *testing.T) {
	store := &memStore{}
	backend := &fakeSettingsBackend{
		respond: func(model.SettingsSnapshot, int64) syncengine.Result[model.SettingsSnapshot] {
			return syncengine.Failure[model.SettingsSnapshot](errors.New("boom"), "storage unavailable")
		},
	}
	m := newTestManager(store, backend, time.Second)

	err := m.PerformSync(context.Background())
	require.Error(t, err)
	assert.Equal(t, model.SyncError, store.state.Status)
	assert.Equal(t, "storage unavailable", store.state.Message)
}

func TestPerformSyncAppliesNewerRemote(t *testing.T) {
	store := &memStore{
		theme: Theme{Mode: "light"},
		state: SyncState{LastModified: 100, Watermark: 50},
	}
	remote := model.SettingsSnapshot{
		Groups:       map[string]map[string]any{GroupTheme: {"mode": "dark"}},
		LastModified: 200,
	}
	backend := &fakeSettingsBackend{
		respond: func(model.SettingsSnapshot, int64) syncengine.Result[model.SettingsSnapshot] {
			return syncengine.Success(remote)
		},
	}
	m := newTestManager(store, backend, time.Second)

	require.NoError(t, m.PerformSync(context.Background()))

	assert.Equal(t, "dark", store.theme.Mode)
	assert.Equal(t, model.SyncSynced, store.state.Status)
	assert.Equal(t, int64(200), store.state.Watermark)
	assert.Equal(t, int64(200), store.state.LastModified)
}

func TestPerformSyncKeepsLocalWhenRemoteOlder(t *testing.T) {
	store := &memStore{
		theme: Theme{Mode: "light"},
		state: SyncState{LastModified: 300, Watermark: 50},
	}
	remote := model.SettingsSnapshot{
		Groups:       map[string]map[string]any{GroupTheme: {"mode": "dark"}},
		LastModified: 200,
	}
	backend := &fakeSettingsBackend{
		respond: func(model.SettingsSnapshot, int64) syncengine.Result[model.SettingsSnapshot] {
			return syncengine.Conflicted([]syncengine.Conflict{{Key: "settings"}}, remote)
		},
	}
	m := newTestManager(store, backend, time.Second)

	require.NoError(t, m.PerformSync(context.Background()))

	// Local blob is newer than the remote copy; it stays.
	assert.Equal(t, "light", store.theme.Mode)
	assert.Equal(t, model.SyncSynced, store.state.Status)
	assert.Equal(t, int64(300), store.state.Watermark)
}

func TestDownloadAppliesRemoteUnconditionally(t *testing.T) {
	store := &memStore{
		theme: Theme{Mode: "light"},
		state: SyncState{LastModified: 900},
	}
	remote := model.SettingsSnapshot{
		Groups:       map[string]map[string]any{GroupTheme: {"mode": "dark"}},
		LastModified: 200,
	}
	backend := &fakeSettingsBackend{
		respond: func(snapshot model.SettingsSnapshot, since int64) syncengine.Result[model.SettingsSnapshot] {
			assert.Empty(t, snapshot.Groups)
			assert.Equal(t, int64(0), since)
			return syncengine.Success(remote)
		},
	}
	m := newTestManager(store, backend, time.Second)

	require.NoError(t, m.DownloadSettings(context.Background()))

	assert.Equal(t, "dark", store.theme.Mode)
	assert.Equal(t, int64(200), store.state.LastModified)
}

func TestDownloadNoopForFreshOwner(t *testing.T) {
	store := &memStore{theme: Theme{Mode: "light"}}
	backend := &fakeSettingsBackend{
		respond: func(model.SettingsSnapshot, int64) syncengine.Result[model.SettingsSnapshot] {
			return syncengine.Success(model.SettingsSnapshot{})
		},
	}
	m := newTestManager(store, backend, time.Second)

	require.NoError(t, m.DownloadSettings(context.Background()))
	assert.Equal(t, "light", store.theme.Mode)
}
