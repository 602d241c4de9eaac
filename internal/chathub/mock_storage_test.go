package chathub_test

import (
	"context"

	"studybuddy/backend/internal/models"
	"studybuddy/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockStorage is a testify mock of storage.Storage.
type MockStorage struct {
	mock.Mock
}

var _ storage.Storage = (*MockStorage)(nil)

// User operations
func (m *MockStorage) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockStorage) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStorage) GetUserSummaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint]models.UserSummary), args.Error(1)
}

// Session operations
func (m *MockStorage) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockStorage) GetSession(ctx context.Context, id uint) (*models.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockStorage) ListSessions(ctx context.Context) ([]models.Session, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockStorage) ListSessionsForUser(ctx context.Context, userID uint) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *MockStorage) SaveSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockStorage) DeleteSession(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Membership operations
func (m *MockStorage) ListParticipants(ctx context.Context, sessionID uint) ([]models.UserSummary, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.UserSummary), args.Error(1)
}

func (m *MockStorage) ListParticipantsForSessions(ctx context.Context, sessionIDs []uint) (map[uint][]models.UserSummary, error) {
	args := m.Called(ctx, sessionIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uint][]models.UserSummary), args.Error(1)
}

func (m *MockStorage) IsParticipant(ctx context.Context, sessionID, userID uint) (bool, error) {
	args := m.Called(ctx, sessionID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) AddParticipant(ctx context.Context, sessionID, userID uint, guard storage.MembershipGuard) error {
	args := m.Called(ctx, sessionID, userID, guard)
	return args.Error(0)
}

func (m *MockStorage) RemoveParticipant(ctx context.Context, sessionID, userID uint, guard storage.MembershipGuard) error {
	args := m.Called(ctx, sessionID, userID, guard)
	return args.Error(0)
}

// Message operations
func (m *MockStorage) SaveMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockStorage) GetChatHistory(ctx context.Context, sessionID uint) ([]models.HistoryEntry, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.HistoryEntry), args.Error(1)
}

func (m *MockStorage) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
