package sync

import (
	"habitkeeper/internal/domain/habitsync"
	"habitkeeper/internal/model"
)

// The wire envelopes mirror what the mobile client sends: one batch per
// entity type, with the client's watermark and its pending records. The
// response always carries the authoritative server copies.

type recordsRequest[T any] struct {
	OwnerID string `json:"owner_id"`
	Since   int64  `json:"since" minimum:"0"`
	Records []T    `json:"records"`
}

type recordsResponse[T any] struct {
	Status    string               `json:"status"`
	Error     string               `json:"error,omitempty"`
	Records   []T                  `json:"records,omitempty"`
	Conflicts []habitsync.Conflict `json:"conflicts,omitempty"`
}

type goalsInput struct {
	Body recordsRequest[model.Goal]
}

type goalsOutput struct {
	Body recordsResponse[model.Goal]
}

type usageSessionsInput struct {
	Body recordsRequest[model.UsageSession]
}

type usageSessionsOutput struct {
	Body recordsResponse[model.UsageSession]
}

type usageEventsInput struct {
	Body recordsRequest[model.UsageEvent]
}

type usageEventsOutput struct {
	Body recordsResponse[model.UsageEvent]
}

type dailyStatsInput struct {
	Body recordsRequest[model.DailyStats]
}

type dailyStatsOutput struct {
	Body recordsResponse[model.DailyStats]
}

type interventionResultsInput struct {
	Body recordsRequest[model.InterventionResult]
}

type interventionResultsOutput struct {
	Body recordsResponse[model.InterventionResult]
}

type streakRecoveriesInput struct {
	Body recordsRequest[model.StreakRecovery]
}

type streakRecoveriesOutput struct {
	Body recordsResponse[model.StreakRecovery]
}

type userBaselinesInput struct {
	Body recordsRequest[model.UserBaseline]
}

type userBaselinesOutput struct {
	Body recordsResponse[model.UserBaseline]
}

type settingsRequest struct {
	OwnerID  string                 `json:"owner_id"`
	Since    int64                  `json:"since" minimum:"0"`
	Settings model.SettingsSnapshot `json:"settings"`
}

type settingsResponse struct {
	Status    string                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	Settings  model.SettingsSnapshot `json:"settings"`
	Conflicts []habitsync.Conflict   `json:"conflicts,omitempty"`
}

type settingsInput struct {
	Body settingsRequest
}

type settingsOutput struct {
	Body settingsResponse
}
