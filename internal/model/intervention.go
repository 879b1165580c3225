package model

import (
	"fmt"
	"time"
)

// InterventionKind is the kind of friction shown before opening a limited app.
type InterventionKind string

const (
	InterventionBreathing InterventionKind = "breathing"
	InterventionDelay     InterventionKind = "delay"
	InterventionQuote     InterventionKind = "quote"
)

// InterventionResult records the outcome of one intervention overlay.
type InterventionResult struct {
	ID               int64            `json:"id" db:"id"`
	App              string           `json:"app" db:"app"`
	Kind             InterventionKind `json:"kind" db:"kind"`
	ShownAt          time.Time        `json:"shown_at" db:"shown_at"`
	Accepted         bool             `json:"accepted" db:"accepted"`
	DismissedAfterMs int64            `json:"dismissed_after_ms" db:"dismissed_after_ms"`

	SyncMeta
}

func (r InterventionResult) Key() string {
	return fmt.Sprintf("%s/%s@%d", r.App, r.Kind, r.ShownAt.UnixMilli())
}

// StreakRecovery records a streak repaired after a missed day, either by
// spending a freeze or by completing a recovery challenge.
type StreakRecovery struct {
	ID          int64     `json:"id" db:"id"`
	App         string    `json:"app" db:"app"`
	Date        string    `json:"date" db:"date"` // missed day, "2006-01-02"
	UsedFreeze  bool      `json:"used_freeze" db:"used_freeze"`
	RecoveredAt time.Time `json:"recovered_at" db:"recovered_at"`

	SyncMeta
}

func (r StreakRecovery) Key() string { return r.Date + "/" + r.App }
