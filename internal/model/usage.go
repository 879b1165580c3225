package model

import (
	"fmt"
	"time"
)

// UsageSession is one continuous foreground run of a tracked app.
type UsageSession struct {
	ID              int64     `json:"id" db:"id"`
	App             string    `json:"app" db:"app"`
	StartedAt       time.Time `json:"started_at" db:"started_at"`
	EndedAt         time.Time `json:"ended_at" db:"ended_at"`
	DurationSeconds int64     `json:"duration_seconds" db:"duration_seconds"`

	SyncMeta
}

func (s UsageSession) Key() string {
	return fmt.Sprintf("%s@%d", s.App, s.StartedAt.UnixMilli())
}

// EventKind classifies a discrete usage event.
type EventKind string

const (
	EventOpen     EventKind = "open"
	EventClose    EventKind = "close"
	EventLimitHit EventKind = "limit_hit"
	EventOverride EventKind = "override"
)

// UsageEvent is a discrete point event (app opened, limit hit, user
// overrode a block, ...) recorded by the usage monitor.
type UsageEvent struct {
	ID         int64     `json:"id" db:"id"`
	App        string    `json:"app" db:"app"`
	Kind       EventKind `json:"kind" db:"kind"`
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`

	SyncMeta
}

func (e UsageEvent) Key() string {
	return fmt.Sprintf("%s/%s@%d", e.App, e.Kind, e.OccurredAt.UnixMilli())
}
