package client

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	gosync "sync"
	"time"

	"golang.org/x/exp/slog"

	"habitkeeper/internal/app/client/config"
	"habitkeeper/internal/backend/rest"
	"habitkeeper/internal/settings"
	"habitkeeper/internal/storage/sqlite"
	syncengine "habitkeeper/internal/sync"
)

// App wires the local store, the sync engine and the REST backend together
// for the CLI.
type App struct {
	config      *config.Config
	log         *slog.Logger
	backend     *rest.Client
	storage     *sqlite.Storage
	coordinator *syncengine.Coordinator
	settings    *settings.Manager
	state       *State

	mu            gosync.RWMutex
	authenticated bool
}

// State is what survives between CLI invocations.
type State struct {
	UserLogin      string `json:"user_login"`
	OwnerID        string `json:"owner_id"`
	LastSyncMillis int64  `json:"last_sync_millis"`
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	state, err := loadState(cfg)
	if err != nil {
		log.Warn("failed to load client state", "error", err)
		state = &State{}
	}

	storage, err := sqlite.New(cfg.DataPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	backend := rest.NewClient(cfg.ServerURL, log)

	app := &App{
		config:      cfg,
		log:         log,
		backend:     backend,
		storage:     storage,
		coordinator: syncengine.NewCoordinator(storage.Stores(), backend, log),
		settings:    settings.NewManager(storage.Settings(), backend, log, settings.DefaultDebounceWindow),
		state:       state,
	}
	app.settings.SetOwner(state.OwnerID)

	if token, err := os.ReadFile(cfg.TokenPath); err == nil && len(token) > 0 {
		backend.SetToken(string(token))
		app.authenticated = true
		log.Debug("token loaded from file")
	}

	return app, nil
}

func loadState(cfg *config.Config) (*State, error) {
	data, err := os.ReadFile(cfg.StatePath)
	if os.IsNotExist(err) {
		return &State{}, nil
	}
	if err != nil {
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (a *App) saveState() error {
	data, err := json.MarshalIndent(a.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(a.config.StatePath, data, 0600)
}

// Register creates a server account. It does not log in.
func (a *App) Register(ctx context.Context, login, password string) error {
	ownerID, err := a.backend.Register(ctx, login, password)
	if err != nil {
		return err
	}
	a.log.Info("account registered", "login", login, "owner", ownerID)
	return nil
}

// Login authenticates, persists the token and runs the initial sync:
// every local record is pushed, the full remote set is pulled, and the
// settings blob is reconciled.
func (a *App) Login(ctx context.Context, login, password string) error {
	token, ownerID, err := a.backend.Login(ctx, login, password)
	if err != nil {
		return err
	}

	if err := os.WriteFile(a.config.TokenPath, []byte(token), 0600); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}

	a.mu.Lock()
	a.authenticated = true
	a.state.UserLogin = login
	a.state.OwnerID = ownerID
	a.mu.Unlock()
	a.settings.SetOwner(ownerID)

	if err := a.saveState(); err != nil {
		a.log.Warn("failed to save client state", "error", err)
	}

	return a.InitialSync(ctx)
}

// Logout drops the token and cancels any pending settings upload. Local
// data stays on disk.
func (a *App) Logout() error {
	a.settings.CancelPendingSync()

	a.mu.Lock()
	a.authenticated = false
	a.mu.Unlock()

	if err := os.Remove(a.config.TokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// Authenticated reports whether a token is installed.
func (a *App) Authenticated() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.authenticated
}

// OwnerID returns the server-assigned account id, empty before first login.
func (a *App) OwnerID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state.OwnerID
}

// InitialSync pushes everything local, pulls the complete remote set and
// reconciles settings. Used right after login.
func (a *App) InitialSync(ctx context.Context) error {
	if !a.Authenticated() {
		return syncengine.ErrNotAuthenticated
	}
	started := time.Now().UnixMilli()

	if err := a.coordinator.PerformInitialSync(ctx, a.OwnerID()); err != nil {
		return err
	}
	if err := a.settings.DownloadSettings(ctx); err != nil {
		a.log.Warn("settings download failed", "error", err)
	}
	return a.finishSync(started)
}

// Sync runs an incremental cycle: pending records up, changes since the
// last watermark down, settings reconciled.
func (a *App) Sync(ctx context.Context) error {
	if !a.Authenticated() {
		return syncengine.ErrNotAuthenticated
	}
	started := time.Now().UnixMilli()

	a.mu.RLock()
	since := a.state.LastSyncMillis
	a.mu.RUnlock()

	if err := a.coordinator.PerformFullSync(ctx, a.OwnerID(), since); err != nil {
		return err
	}
	if err := a.settings.PerformSync(ctx); err != nil {
		a.log.Warn("settings sync failed", "error", err)
	}
	return a.finishSync(started)
}

func (a *App) finishSync(started int64) error {
	a.mu.Lock()
	a.state.LastSyncMillis = started
	a.mu.Unlock()
	if err := a.saveState(); err != nil {
		a.log.Warn("failed to save client state", "error", err)
	}
	return nil
}

// Storage exposes the local repositories to the CLI commands.
func (a *App) Storage() *sqlite.Storage {
	return a.storage
}

// Settings exposes the debounced settings manager.
func (a *App) Settings() *settings.Manager {
	return a.settings
}

// Backend exposes the REST client, mainly for health checks.
func (a *App) Backend() *rest.Client {
	return a.backend
}

// Close flushes any pending debounced settings sync and closes the store.
// The flush matters for a CLI process: commands exit well inside the
// debounce window, so without it the upload would never happen.
func (a *App) Close() error {
	if err := a.settings.Flush(context.Background()); err != nil {
		a.log.Warn("settings flush on close failed", "error", err)
	}
	return a.storage.Close()
}
