package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"habitkeeper/internal/model"
	syncengine "habitkeeper/internal/sync"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, slog.Default()), srv
}

func TestSyncGoalsSendsBearerAndEnvelope(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody recordsRequest[model.Goal]

	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(recordsResponse[model.Goal]{Status: "Ok", Records: gotBody.Records})
	}))
	defer srv.Close()
	c.SetToken("tok-123")

	g := model.Goal{TargetApp: "com.example.feed", DailyLimitMinutes: 30}
	g.OwnerID = "u-1"
	res := c.SyncGoals(context.Background(), []model.Goal{g}, "u-1", 500)

	require.Equal(t, syncengine.StateSuccess, res.State)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "/api/v1/sync/goals", gotPath)
	assert.Equal(t, "u-1", gotBody.OwnerID)
	assert.Equal(t, int64(500), gotBody.Since)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "com.example.feed", res.Data[0].TargetApp)
}

func TestSyncStatusMapping(t *testing.T) {
	tests := []struct {
		name     string
		response recordsResponse[model.Goal]
		want     syncengine.State
	}{
		{"ok", recordsResponse[model.Goal]{Status: "Ok"}, syncengine.StateSuccess},
		{"conflict", recordsResponse[model.Goal]{
			Status:    "Conflict",
			Conflicts: []syncengine.Conflict{{Key: "com.example.feed"}},
		}, syncengine.StateConflict},
		{"in progress", recordsResponse[model.Goal]{Status: "InProgress"}, syncengine.StateInProgress},
		{"error", recordsResponse[model.Goal]{Status: "Error", Error: "boom"}, syncengine.StateError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(tc.response)
			}))
			defer srv.Close()

			res := c.SyncGoals(context.Background(), nil, "u-1", 0)
			assert.Equal(t, tc.want, res.State)
			if tc.want == syncengine.StateError {
				assert.Equal(t, "boom", res.Message)
			}
			if tc.want == syncengine.StateConflict {
				assert.Len(t, res.Conflicts, 1)
			}
		})
	}
}

func TestSyncNonHTTPOKIsFailure(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	res := c.SyncGoals(context.Background(), nil, "u-1", 0)
	require.Equal(t, syncengine.StateError, res.State)
	assert.ErrorContains(t, res.Err(), "status 401")
}

func TestSyncSettingsRoundTrip(t *testing.T) {
	remote := model.SettingsSnapshot{
		Groups:       map[string]map[string]any{"theme": {"mode": "dark"}},
		LastModified: 700,
	}
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sync/settings", r.URL.Path)
		json.NewEncoder(w).Encode(settingsResponse{Status: "Ok", Settings: remote})
	}))
	defer srv.Close()

	res := c.SyncSettings(context.Background(), model.SettingsSnapshot{}, "u-1", 0)
	require.Equal(t, syncengine.StateSuccess, res.State)
	assert.Equal(t, int64(700), res.Data.LastModified)
	assert.Equal(t, "dark", res.Data.Groups["theme"]["mode"])
}

func TestRegisterAndLogin(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds credentialsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "alice", creds.Login)

		switch r.URL.Path {
		case "/api/v1/user/register":
			json.NewEncoder(w).Encode(registerResponse{Status: "Ok", UserID: "u-42"})
		case "/api/v1/user/login":
			json.NewEncoder(w).Encode(loginResponse{Status: "Ok", Token: "tok-9", UserID: "u-42"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	userID, err := c.Register(context.Background(), "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u-42", userID)

	token, ownerID, err := c.Login(context.Background(), "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "tok-9", token)
	assert.Equal(t, "u-42", ownerID)
	// The token is installed for subsequent sync calls.
	assert.Equal(t, "tok-9", c.token)
}

func TestLoginRejectedSurfacesBackendError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(loginResponse{Status: "Error", Error: "Invalid credentials"})
	}))
	defer srv.Close()

	_, _, err := c.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, syncengine.ErrBackend)
}

func TestHealthCheck(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.NoError(t, c.HealthCheck(context.Background()))
}
