// Package sqlite is the device-local store: the source of truth while
// offline. Every entity table carries the sync metadata columns plus a
// natural_key column holding the entity's local key, which upserts are
// keyed on. Cloud ids are stored alongside and never used as a local key.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	syncengine "habitkeeper/internal/sync"
)

type Storage struct {
	db *sql.DB
}

// New opens (or creates) the local database and ensures the schema.
func New(path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open local database: %w", err)
	}

	s := &Storage{db: db}
	if err := s.initTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init local schema: %w", err)
	}
	return s, nil
}

const syncColumns = `
	owner_id      TEXT NOT NULL DEFAULT '',
	sync_status   TEXT NOT NULL DEFAULT 'pending',
	cloud_id      TEXT NOT NULL DEFAULT '',
	last_modified INTEGER NOT NULL DEFAULT 0,
	natural_key   TEXT NOT NULL UNIQUE`

func (s *Storage) initTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS goals (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			target_app TEXT NOT NULL,
			daily_limit_minutes INTEGER NOT NULL DEFAULT 0,
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL DEFAULT 0,` + syncColumns + `
		)`,
		`CREATE TABLE IF NOT EXISTS usage_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL DEFAULT 0,
			duration_seconds INTEGER NOT NULL DEFAULT 0,` + syncColumns + `
		)`,
		`CREATE TABLE IF NOT EXISTS usage_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app TEXT NOT NULL,
			kind TEXT NOT NULL,
			occurred_at INTEGER NOT NULL,` + syncColumns + `
		)`,
		`CREATE TABLE IF NOT EXISTS daily_stats (
			date TEXT NOT NULL,
			app TEXT NOT NULL,
			total_minutes INTEGER NOT NULL DEFAULT 0,
			open_count INTEGER NOT NULL DEFAULT 0,
			limit_hit_count INTEGER NOT NULL DEFAULT 0,
			limit_minutes INTEGER NOT NULL DEFAULT 0,` + syncColumns + `
		)`,
		`CREATE TABLE IF NOT EXISTS intervention_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app TEXT NOT NULL,
			kind TEXT NOT NULL,
			shown_at INTEGER NOT NULL,
			accepted INTEGER NOT NULL DEFAULT 0,
			dismissed_after_ms INTEGER NOT NULL DEFAULT 0,` + syncColumns + `
		)`,
		`CREATE TABLE IF NOT EXISTS streak_recoveries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			app TEXT NOT NULL,
			date TEXT NOT NULL,
			used_freeze INTEGER NOT NULL DEFAULT 0,
			recovered_at INTEGER NOT NULL DEFAULT 0,` + syncColumns + `
		)`,
		`CREATE TABLE IF NOT EXISTS user_baselines (
			app TEXT NOT NULL,
			avg_daily_minutes REAL NOT NULL DEFAULT 0,
			sample_days INTEGER NOT NULL DEFAULT 0,
			computed_at INTEGER NOT NULL DEFAULT 0,` + syncColumns + `
		)`,
		`CREATE TABLE IF NOT EXISTS settings_groups (
			name TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS settings_sync (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			status TEXT NOT NULL DEFAULT 'pending',
			message TEXT NOT NULL DEFAULT '',
			watermark INTEGER NOT NULL DEFAULT 0,
			last_modified INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_goals_status ON goals(sync_status)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_status ON usage_sessions(sync_status)`,
		`CREATE INDEX IF NOT EXISTS idx_events_status ON usage_events(sync_status)`,
		`CREATE INDEX IF NOT EXISTS idx_stats_status ON daily_stats(sync_status)`,
		`CREATE INDEX IF NOT EXISTS idx_interventions_status ON intervention_results(sync_status)`,
		`CREATE INDEX IF NOT EXISTS idx_recoveries_status ON streak_recoveries(sync_status)`,
		`CREATE INDEX IF NOT EXISTS idx_baselines_status ON user_baselines(sync_status)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Stores bundles repositories for the sync coordinator.
func (s *Storage) Stores() syncengine.Stores {
	return syncengine.Stores{
		Goals:         s.Goals(),
		Sessions:      s.Sessions(),
		Events:        s.Events(),
		Stats:         s.Stats(),
		Interventions: s.Interventions(),
		Recoveries:    s.Recoveries(),
		Baselines:     s.Baselines(),
	}
}

func (s *Storage) Goals() *GoalRepository       { return &GoalRepository{db: s.db} }
func (s *Storage) Sessions() *SessionRepository { return &SessionRepository{db: s.db} }
func (s *Storage) Events() *EventRepository     { return &EventRepository{db: s.db} }
func (s *Storage) Stats() *StatsRepository      { return &StatsRepository{db: s.db} }
func (s *Storage) Interventions() *InterventionRepository {
	return &InterventionRepository{db: s.db}
}
func (s *Storage) Recoveries() *RecoveryRepository { return &RecoveryRepository{db: s.db} }
func (s *Storage) Baselines() *BaselineRepository  { return &BaselineRepository{db: s.db} }
func (s *Storage) Settings() *SettingsRepository   { return &SettingsRepository{db: s.db} }

func (s *Storage) Close() error {
	return s.db.Close()
}
