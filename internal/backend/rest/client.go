// Package rest is the HTTP implementation of the sync backend contract.
// It is the only backend implementation; composition selects it at build
// time, not via runtime lookup.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"habitkeeper/internal/model"
	syncengine "habitkeeper/internal/sync"
)

type Client struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				MaxIdleConnsPerHost: 10,
			},
		},
		log:       log.With(slog.String("component", "rest_backend")),
		baseURL:   baseURL,
		userAgent: "HabitKeeper-Client/1.0",
	}
}

// SetToken sets the bearer token used on every sync call.
func (c *Client) SetToken(token string) {
	c.token = token
}

// HealthCheck verifies the server is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

// Wire envelopes. The server answers every sync call with an Ok/Error/
// Conflict/InProgress status string plus the authoritative record set.

type recordsRequest[T any] struct {
	OwnerID string `json:"owner_id"`
	Since   int64  `json:"since"`
	Records []T    `json:"records"`
}

type recordsResponse[T any] struct {
	Status    string                `json:"status"`
	Error     string                `json:"error,omitempty"`
	Records   []T                   `json:"records,omitempty"`
	Conflicts []syncengine.Conflict `json:"conflicts,omitempty"`
}

type settingsRequest struct {
	OwnerID  string                 `json:"owner_id"`
	Since    int64                  `json:"since"`
	Settings model.SettingsSnapshot `json:"settings"`
}

type settingsResponse struct {
	Status    string                 `json:"status"`
	Error     string                 `json:"error,omitempty"`
	Settings  model.SettingsSnapshot `json:"settings"`
	Conflicts []syncengine.Conflict  `json:"conflicts,omitempty"`
}

func (c *Client) SyncGoals(ctx context.Context, records []model.Goal, ownerID string, since int64) syncengine.Result[[]model.Goal] {
	return doSync(ctx, c, "/api/v1/sync/goals", records, ownerID, since)
}

func (c *Client) SyncUsageSessions(ctx context.Context, records []model.UsageSession, ownerID string, since int64) syncengine.Result[[]model.UsageSession] {
	return doSync(ctx, c, "/api/v1/sync/usage-sessions", records, ownerID, since)
}

func (c *Client) SyncUsageEvents(ctx context.Context, records []model.UsageEvent, ownerID string, since int64) syncengine.Result[[]model.UsageEvent] {
	return doSync(ctx, c, "/api/v1/sync/usage-events", records, ownerID, since)
}

func (c *Client) SyncDailyStats(ctx context.Context, records []model.DailyStats, ownerID string, since int64) syncengine.Result[[]model.DailyStats] {
	return doSync(ctx, c, "/api/v1/sync/daily-stats", records, ownerID, since)
}

func (c *Client) SyncInterventionResults(ctx context.Context, records []model.InterventionResult, ownerID string, since int64) syncengine.Result[[]model.InterventionResult] {
	return doSync(ctx, c, "/api/v1/sync/intervention-results", records, ownerID, since)
}

func (c *Client) SyncStreakRecoveries(ctx context.Context, records []model.StreakRecovery, ownerID string, since int64) syncengine.Result[[]model.StreakRecovery] {
	return doSync(ctx, c, "/api/v1/sync/streak-recoveries", records, ownerID, since)
}

func (c *Client) SyncUserBaselines(ctx context.Context, records []model.UserBaseline, ownerID string, since int64) syncengine.Result[[]model.UserBaseline] {
	return doSync(ctx, c, "/api/v1/sync/user-baselines", records, ownerID, since)
}

func (c *Client) SyncSettings(ctx context.Context, snapshot model.SettingsSnapshot, ownerID string, since int64) syncengine.Result[model.SettingsSnapshot] {
	var out settingsResponse
	err := c.post(ctx, "/api/v1/sync/settings", settingsRequest{
		OwnerID:  ownerID,
		Since:    since,
		Settings: snapshot,
	}, &out)
	if err != nil {
		return syncengine.Failure[model.SettingsSnapshot](err, "settings sync request failed")
	}

	switch out.Status {
	case "Ok":
		return syncengine.Success(out.Settings)
	case "Conflict":
		return syncengine.Conflicted(out.Conflicts, out.Settings)
	case "InProgress":
		return syncengine.InProgress[model.SettingsSnapshot]()
	default:
		return syncengine.Failure[model.SettingsSnapshot](syncengine.ErrBackend, out.Error)
	}
}

func doSync[T any](ctx context.Context, c *Client, path string, records []T, ownerID string, since int64) syncengine.Result[[]T] {
	var out recordsResponse[T]
	err := c.post(ctx, path, recordsRequest[T]{
		OwnerID: ownerID,
		Since:   since,
		Records: records,
	}, &out)
	if err != nil {
		return syncengine.Failure[[]T](err, "sync request failed")
	}

	switch out.Status {
	case "Ok":
		return syncengine.Success(out.Records)
	case "Conflict":
		return syncengine.Conflicted(out.Conflicts, out.Records)
	case "InProgress":
		return syncengine.InProgress[[]T]()
	default:
		return syncengine.Failure[[]T](syncengine.ErrBackend, out.Error)
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("backend rejected sync call",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode))
		return fmt.Errorf("server returned status %d: %s", resp.StatusCode, truncate(data, 256))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type registerResponse struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Register creates an account and returns the new owner id.
func (c *Client) Register(ctx context.Context, login, password string) (string, error) {
	var out registerResponse
	err := c.post(ctx, "/api/v1/user/register", credentialsRequest{Login: login, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if out.Status != "Ok" {
		return "", fmt.Errorf("%w: %s", syncengine.ErrBackend, out.Error)
	}
	return out.UserID, nil
}

// Login exchanges credentials for a bearer token and the owner id. The token
// is installed on the client for subsequent calls.
func (c *Client) Login(ctx context.Context, login, password string) (token, ownerID string, err error) {
	var out loginResponse
	if err := c.post(ctx, "/api/v1/user/login", credentialsRequest{Login: login, Password: password}, &out); err != nil {
		return "", "", err
	}
	if out.Status != "Ok" {
		return "", "", fmt.Errorf("%w: %s", syncengine.ErrBackend, out.Error)
	}
	c.SetToken(out.Token)
	return out.Token, out.UserID, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
