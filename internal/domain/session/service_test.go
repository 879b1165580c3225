package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, s Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockRepository) GetByTokenHash(ctx context.Context, hash string) (*Session, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Session), args.Error(1)
}

func (m *MockRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	args := m.Called(ctx, before)
	return args.Error(0)
}

func TestIssueStoresHashedToken(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.Default())

	var stored Session
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s Session) bool {
		stored = s
		return s.UserID == "u-1"
	})).Return(nil)
	repo.On("DeleteExpired", mock.Anything, mock.Anything).Return(nil)

	token, err := svc.Issue(context.Background(), "u-1")

	assert.NoError(t, err)
	assert.Len(t, token, 64)
	assert.NotEqual(t, token, stored.TokenHash)
	assert.Equal(t, hashToken(token), stored.TokenHash)
	assert.True(t, stored.ExpiresAt.After(time.Now()))
}

func TestResolveRoundTrip(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.Default())

	token := "deadbeef"
	repo.On("GetByTokenHash", mock.Anything, hashToken(token)).
		Return(&Session{TokenHash: hashToken(token), UserID: "u-1", ExpiresAt: time.Now().Add(time.Hour)}, nil)

	userID, err := svc.Resolve(context.Background(), token)

	assert.NoError(t, err)
	assert.Equal(t, "u-1", userID)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, slog.Default())

	token := "deadbeef"
	repo.On("GetByTokenHash", mock.Anything, hashToken(token)).
		Return(&Session{TokenHash: hashToken(token), UserID: "u-1", ExpiresAt: time.Now().Add(-time.Minute)}, nil)

	_, err := svc.Resolve(context.Background(), token)

	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolveRejectsEmptyToken(t *testing.T) {
	svc := NewService(new(MockRepository), slog.Default())

	_, err := svc.Resolve(context.Background(), "")

	assert.ErrorIs(t, err, ErrInvalidToken)
}
