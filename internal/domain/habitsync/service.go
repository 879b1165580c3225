package habitsync

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"
)

// StatusOK and friends are the state strings carried on the wire.
const (
	StatusOK         = "Ok"
	StatusConflict   = "Conflict"
	StatusError      = "Error"
	StatusInProgress = "InProgress"
)

var validEntityTypes = map[EntityType]struct{}{
	EntityGoals:               {},
	EntityUsageSessions:       {},
	EntityUsageEvents:         {},
	EntityDailyStats:          {},
	EntityInterventionResults: {},
	EntityStreakRecoveries:    {},
	EntityUserBaselines:       {},
}

// Servicer merges client batches against the server store.
type Servicer interface {
	// SyncRecords merges one entity-type batch and returns the
	// authoritative server state for everything the client should hold.
	SyncRecords(ctx context.Context, req SyncRequest) (*SyncResponse, error)

	// SyncSettings merges the owner's settings blob whole.
	SyncSettings(ctx context.Context, req SettingsSyncRequest) (*SettingsSyncResponse, error)
}

// Service implements last-write-wins merging over a Repository.
type Service struct {
	repo Repository
	log  *slog.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates the sync merge service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		inFlight: make(map[string]struct{}),
	}
}

func (s *Service) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[key]; busy {
		return false
	}
	s.inFlight[key] = struct{}{}
	return true
}

func (s *Service) release(key string) {
	s.mu.Lock()
	delete(s.inFlight, key)
	s.mu.Unlock()
}

// SyncRecords merges one entity-type batch and returns the authoritative
// server state for everything the client should hold.
func (s *Service) SyncRecords(ctx context.Context, req SyncRequest) (*SyncResponse, error) {
	if req.OwnerID == "" {
		return nil, ErrEmptyOwner
	}
	if _, ok := validEntityTypes[req.EntityType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, req.EntityType)
	}

	guard := req.OwnerID + "/" + string(req.EntityType)
	if !s.acquire(guard) {
		return &SyncResponse{Status: StatusInProgress, Error: ErrSyncInProgress.Error()}, nil
	}
	defer s.release(guard)

	keys := make([]string, 0, len(req.Records))
	for _, rec := range req.Records {
		keys = append(keys, rec.NaturalKey)
	}

	existing, err := s.repo.GetByKeys(ctx, req.OwnerID, req.EntityType, keys)
	if err != nil {
		return nil, fmt.Errorf("load existing records: %w", err)
	}
	byKey := make(map[string]Record, len(existing))
	for _, rec := range existing {
		byKey[rec.NaturalKey] = rec
	}

	var conflicts []Conflict
	for _, incoming := range req.Records {
		incoming.OwnerID = req.OwnerID
		incoming.EntityType = req.EntityType

		current, known := byKey[incoming.NaturalKey]
		if !known {
			if incoming.CloudID == "" {
				incoming.CloudID = uuid.NewString()
			}
			if err := s.repo.Upsert(ctx, incoming); err != nil {
				return nil, fmt.Errorf("insert record %q: %w", incoming.NaturalKey, err)
			}
			byKey[incoming.NaturalKey] = incoming
			continue
		}

		switch {
		case incoming.LastModified > current.LastModified:
			incoming.CloudID = current.CloudID
			incoming.ID = current.ID
			if err := s.repo.Upsert(ctx, incoming); err != nil {
				return nil, fmt.Errorf("update record %q: %w", incoming.NaturalKey, err)
			}
			byKey[incoming.NaturalKey] = incoming
		case incoming.LastModified == current.LastModified:
			// Already in sync, nothing to do.
		default:
			// Server copy is newer. Only flag a conflict when the client
			// actually changed the record after its last sync; otherwise
			// it is just catching up.
			if incoming.LastModified > req.Since {
				conflicts = append(conflicts, Conflict{
					Key:            incoming.NaturalKey,
					LocalModified:  incoming.LastModified,
					RemoteModified: current.LastModified,
					Reason:         "modified on another device",
				})
			}
		}
	}

	changed, err := s.repo.GetChangedSince(ctx, req.OwnerID, req.EntityType, req.Since)
	if err != nil {
		return nil, fmt.Errorf("load changed records: %w", err)
	}

	// The response is the union of everything changed since the watermark
	// and everything the client touched in this batch, deduplicated by key.
	out := make([]Record, 0, len(changed)+len(byKey))
	seen := make(map[string]struct{}, len(changed))
	for _, rec := range changed {
		out = append(out, rec)
		seen[rec.NaturalKey] = struct{}{}
	}
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		if rec, ok := byKey[key]; ok {
			out = append(out, rec)
			seen[key] = struct{}{}
		}
	}

	status := StatusOK
	if len(conflicts) > 0 {
		status = StatusConflict
		s.log.Warn("sync batch had conflicts",
			"owner", req.OwnerID,
			"type", req.EntityType,
			"conflicts", len(conflicts))
	}

	return &SyncResponse{Status: status, Records: out, Conflicts: conflicts}, nil
}

// SyncSettings merges the owner's settings blob whole. The newer timestamp
// wins; ties keep the server copy.
func (s *Service) SyncSettings(ctx context.Context, req SettingsSyncRequest) (*SettingsSyncResponse, error) {
	if req.OwnerID == "" {
		return nil, ErrEmptyOwner
	}

	guard := req.OwnerID + "/settings"
	if !s.acquire(guard) {
		return &SettingsSyncResponse{Status: StatusInProgress, Error: ErrSyncInProgress.Error()}, nil
	}
	defer s.release(guard)

	current, err := s.repo.GetSettings(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	incoming := req.Row
	incoming.OwnerID = req.OwnerID

	if current == nil {
		if len(incoming.Payload) > 0 {
			if err := s.repo.UpsertSettings(ctx, incoming); err != nil {
				return nil, fmt.Errorf("store settings: %w", err)
			}
		}
		return &SettingsSyncResponse{Status: StatusOK, Row: incoming}, nil
	}

	if len(incoming.Payload) > 0 && incoming.LastModified > current.LastModified {
		if err := s.repo.UpsertSettings(ctx, incoming); err != nil {
			return nil, fmt.Errorf("store settings: %w", err)
		}
		return &SettingsSyncResponse{Status: StatusOK, Row: incoming}, nil
	}

	resp := &SettingsSyncResponse{Status: StatusOK, Row: *current}
	if len(incoming.Payload) > 0 && incoming.LastModified > req.Since && incoming.LastModified < current.LastModified {
		resp.Status = StatusConflict
		resp.Conflicts = []Conflict{{
			Key:            "settings",
			LocalModified:  incoming.LastModified,
			RemoteModified: current.LastModified,
			Reason:         "settings changed on another device",
		}}
	}
	return resp, nil
}
