package habitsync

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

// MockRepository is a mock implementation of the Repository interface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByKeys(ctx context.Context, ownerID string, entityType EntityType, keys []string) ([]Record, error) {
	args := m.Called(ctx, ownerID, entityType, keys)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) GetChangedSince(ctx context.Context, ownerID string, entityType EntityType, since int64) ([]Record, error) {
	args := m.Called(ctx, ownerID, entityType, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) Upsert(ctx context.Context, rec Record) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockRepository) GetSettings(ctx context.Context, ownerID string) (*SettingsRow, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SettingsRow), args.Error(1)
}

func (m *MockRepository) UpsertSettings(ctx context.Context, row SettingsRow) error {
	args := m.Called(ctx, row)
	return args.Error(0)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, slog.Default())
}

func TestSyncRecordsRejectsEmptyOwner(t *testing.T) {
	svc := newTestService(new(MockRepository))

	_, err := svc.SyncRecords(context.Background(), SyncRequest{EntityType: EntityGoals})

	assert.ErrorIs(t, err, ErrEmptyOwner)
}

func TestSyncRecordsRejectsUnknownEntityType(t *testing.T) {
	svc := newTestService(new(MockRepository))

	_, err := svc.SyncRecords(context.Background(), SyncRequest{
		OwnerID:    "user-1",
		EntityType: EntityType("moods"),
	})

	assert.ErrorIs(t, err, ErrUnknownEntityType)
}

func TestSyncRecordsInsertsNewRecordWithCloudID(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	incoming := Record{
		NaturalKey:   "com.example.app",
		Payload:      json.RawMessage(`{"target_app":"com.example.app"}`),
		LastModified: 100,
	}

	var stored Record
	repo.On("GetByKeys", mock.Anything, "user-1", EntityGoals, []string{"com.example.app"}).
		Return([]Record{}, nil)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(r Record) bool {
		stored = r
		return r.NaturalKey == "com.example.app" && r.CloudID != ""
	})).Return(nil)
	repo.On("GetChangedSince", mock.Anything, "user-1", EntityGoals, int64(0)).
		Return([]Record{}, nil)

	resp, err := svc.SyncRecords(context.Background(), SyncRequest{
		OwnerID:    "user-1",
		EntityType: EntityGoals,
		Records:    []Record{incoming},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Len(t, resp.Records, 1)
	assert.Equal(t, stored.CloudID, resp.Records[0].CloudID)
	assert.Equal(t, "user-1", stored.OwnerID)
	repo.AssertExpectations(t)
}

func TestSyncRecordsServerCopyWinsAndReportsConflict(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	server := Record{
		NaturalKey:   "2026-08-01/com.example.app",
		CloudID:      "c-1",
		Payload:      json.RawMessage(`{"total_minutes":90}`),
		LastModified: 500,
	}
	repo.On("GetByKeys", mock.Anything, "user-1", EntityDailyStats, []string{server.NaturalKey}).
		Return([]Record{server}, nil)
	repo.On("GetChangedSince", mock.Anything, "user-1", EntityDailyStats, int64(200)).
		Return([]Record{server}, nil)

	resp, err := svc.SyncRecords(context.Background(), SyncRequest{
		OwnerID:    "user-1",
		EntityType: EntityDailyStats,
		Since:      200,
		Records: []Record{{
			NaturalKey:   server.NaturalKey,
			CloudID:      "c-1",
			Payload:      json.RawMessage(`{"total_minutes":45}`),
			LastModified: 300,
		}},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusConflict, resp.Status)
	assert.Len(t, resp.Conflicts, 1)
	assert.Equal(t, int64(500), resp.Conflicts[0].RemoteModified)
	// The losing write must never reach the store.
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	// The response still carries the authoritative copy.
	assert.Len(t, resp.Records, 1)
	assert.Equal(t, int64(500), resp.Records[0].LastModified)
}

func TestSyncRecordsStaleCopyWithoutLocalEditIsNotAConflict(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	server := Record{NaturalKey: "k", CloudID: "c-1", LastModified: 500}
	repo.On("GetByKeys", mock.Anything, "user-1", EntityGoals, []string{"k"}).
		Return([]Record{server}, nil)
	repo.On("GetChangedSince", mock.Anything, "user-1", EntityGoals, int64(450)).
		Return([]Record{server}, nil)

	resp, err := svc.SyncRecords(context.Background(), SyncRequest{
		OwnerID:    "user-1",
		EntityType: EntityGoals,
		Since:      450,
		Records:    []Record{{NaturalKey: "k", CloudID: "c-1", LastModified: 400}},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Conflicts)
}

func TestSyncRecordsNewerClientCopyKeepsCloudID(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	server := Record{ID: 7, NaturalKey: "k", CloudID: "c-1", LastModified: 100}
	repo.On("GetByKeys", mock.Anything, "user-1", EntityUserBaselines, []string{"k"}).
		Return([]Record{server}, nil)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(r Record) bool {
		return r.CloudID == "c-1" && r.ID == 7 && r.LastModified == 200
	})).Return(nil)
	repo.On("GetChangedSince", mock.Anything, "user-1", EntityUserBaselines, int64(100)).
		Return([]Record{}, nil)

	resp, err := svc.SyncRecords(context.Background(), SyncRequest{
		OwnerID:    "user-1",
		EntityType: EntityUserBaselines,
		Since:      100,
		Records:    []Record{{NaturalKey: "k", CloudID: "c-1", LastModified: 200}},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	repo.AssertExpectations(t)
}

func TestSyncRecordsReportsInProgressWhenGuardHeld(t *testing.T) {
	svc := newTestService(new(MockRepository))
	assert.True(t, svc.acquire("user-1/goals"))
	defer svc.release("user-1/goals")

	resp, err := svc.SyncRecords(context.Background(), SyncRequest{
		OwnerID:    "user-1",
		EntityType: EntityGoals,
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusInProgress, resp.Status)
}

func TestSyncSettingsFirstUploadIsStored(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	repo.On("GetSettings", mock.Anything, "user-1").Return(nil, nil)
	repo.On("UpsertSettings", mock.Anything, mock.MatchedBy(func(r SettingsRow) bool {
		return r.OwnerID == "user-1" && r.LastModified == 100
	})).Return(nil)

	resp, err := svc.SyncSettings(context.Background(), SettingsSyncRequest{
		OwnerID: "user-1",
		Row:     SettingsRow{Payload: json.RawMessage(`{"theme":{}}`), LastModified: 100},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	repo.AssertExpectations(t)
}

func TestSyncSettingsOlderBlobLosesWholesale(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	current := &SettingsRow{OwnerID: "user-1", Payload: json.RawMessage(`{"a":1}`), LastModified: 500}
	repo.On("GetSettings", mock.Anything, "user-1").Return(current, nil)

	resp, err := svc.SyncSettings(context.Background(), SettingsSyncRequest{
		OwnerID: "user-1",
		Since:   200,
		Row:     SettingsRow{Payload: json.RawMessage(`{"a":2}`), LastModified: 300},
	})

	assert.NoError(t, err)
	assert.Equal(t, StatusConflict, resp.Status)
	assert.Equal(t, int64(500), resp.Row.LastModified)
	repo.AssertNotCalled(t, "UpsertSettings", mock.Anything, mock.Anything)
}

func TestSyncSettingsEmptyBlobDownloadsWithoutStoring(t *testing.T) {
	repo := new(MockRepository)
	svc := newTestService(repo)

	current := &SettingsRow{OwnerID: "user-1", Payload: json.RawMessage(`{"a":1}`), LastModified: 500}
	repo.On("GetSettings", mock.Anything, "user-1").Return(current, nil)

	resp, err := svc.SyncSettings(context.Background(), SettingsSyncRequest{OwnerID: "user-1"})

	assert.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, current.Payload, resp.Row.Payload)
	repo.AssertNotCalled(t, "UpsertSettings", mock.Anything, mock.Anything)
}
