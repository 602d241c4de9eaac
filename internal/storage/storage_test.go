package storage_test

import (
	"context"
	"errors"
	"testing"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/models"
	"studybuddy/backend/internal/storage"
	"studybuddy/backend/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()

	first := &models.User{Name: "Ada", Email: "ada@campus.edu", PasswordHash: "h"}
	require.NoError(t, s.CreateUser(ctx, first))
	assert.NotZero(t, first.ID)

	dup := &models.User{Name: "Other Ada", Email: "ada@campus.edu", PasswordHash: "h"}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	found, err := s.GetUserByEmail(ctx, "ada@campus.edu")
	require.NoError(t, err)
	assert.Equal(t, first.ID, found.ID)

	_, err = s.GetUserByID(ctx, 9999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestCreateSession_AddsCreatorAsParticipant(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, s, "alice")

	session := storagetest.NewSession(alice.ID, nil)
	require.NoError(t, s.CreateSession(ctx, session))
	require.NotZero(t, session.ID)

	participants, err := s.ListParticipants(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{{ID: alice.ID, Name: "alice"}}, participants)

	joined, err := s.IsParticipant(ctx, session.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, joined)
}

func TestAddParticipant_GuardSeesCurrentMembers(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, s, "alice")
	bob := storagetest.CreateUser(t, s, "bob")
	session := storagetest.NewSession(alice.ID, nil)
	require.NoError(t, s.CreateSession(ctx, session))

	var seen []uint
	err := s.AddParticipant(ctx, session.ID, bob.ID, func(locked *models.Session, ids []uint) error {
		assert.Equal(t, session.ID, locked.ID)
		seen = ids
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{alice.ID}, seen)

	err = s.AddParticipant(ctx, session.ID, bob.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict, "second insert of the same pair must conflict")
}

func TestAddParticipant_GuardErrorAborts(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, s, "alice")
	bob := storagetest.CreateUser(t, s, "bob")
	session := storagetest.NewSession(alice.ID, nil)
	require.NoError(t, s.CreateSession(ctx, session))

	stop := errors.New("stop")
	err := s.AddParticipant(ctx, session.ID, bob.ID, func(*models.Session, []uint) error { return stop })
	assert.ErrorIs(t, err, stop)

	joined, err := s.IsParticipant(ctx, session.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, joined)
}

func TestAddParticipant_UnknownSession(t *testing.T) {
	s := storagetest.NewService(t)
	bob := storagetest.CreateUser(t, s, "bob")

	err := s.AddParticipant(context.Background(), 404, bob.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRemoveParticipant(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, s, "alice")
	bob := storagetest.CreateUser(t, s, "bob")
	session := storagetest.NewSession(alice.ID, nil)
	require.NoError(t, s.CreateSession(ctx, session))
	require.NoError(t, s.AddParticipant(ctx, session.ID, bob.ID, nil))

	require.NoError(t, s.RemoveParticipant(ctx, session.ID, bob.ID, nil))

	participants, err := s.ListParticipants(ctx, session.ID)
	require.NoError(t, err)
	assert.Len(t, participants, 1)

	err = s.RemoveParticipant(ctx, session.ID, bob.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestDeleteSession_Cascades(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, s, "alice")
	bob := storagetest.CreateUser(t, s, "bob")
	session := storagetest.NewSession(alice.ID, nil)
	require.NoError(t, s.CreateSession(ctx, session))
	require.NoError(t, s.AddParticipant(ctx, session.ID, bob.ID, nil))
	require.NoError(t, s.SaveMessage(ctx, &models.Message{SessionID: session.ID, UserID: bob.ID, Content: "hi"}))

	require.NoError(t, s.DeleteSession(ctx, session.ID))

	_, err := s.GetSession(ctx, session.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	participants, err := s.ListParticipants(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, participants)

	history, err := s.GetChatHistory(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	assert.ErrorIs(t, s.DeleteSession(ctx, session.ID), apperror.ErrNotFound)
}

func TestSaveMessage_RequiresLiveSession(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, s, "alice")
	session := storagetest.NewSession(alice.ID, nil)
	require.NoError(t, s.CreateSession(ctx, session))
	require.NoError(t, s.DeleteSession(ctx, session.ID))

	msg := &models.Message{SessionID: session.ID, UserID: alice.ID, Content: "too late"}
	assert.ErrorIs(t, s.SaveMessage(ctx, msg), apperror.ErrNotFound)
	assert.Zero(t, msg.ID)

	var count int64
	require.NoError(t, s.DB.Model(&models.Message{}).Count(&count).Error)
	assert.Zero(t, count, "no message row is left for a deleted session")
}

func TestGetChatHistory_OrderAndSenderNames(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, s, "alice")
	session := storagetest.NewSession(alice.ID, nil)
	require.NoError(t, s.CreateSession(ctx, session))

	first := &models.Message{SessionID: session.ID, UserID: alice.ID, Content: "first"}
	second := &models.Message{SessionID: session.ID, UserID: 4242, Content: "ghost"}
	require.NoError(t, s.SaveMessage(ctx, first))
	require.NoError(t, s.SaveMessage(ctx, second))
	assert.Greater(t, second.ID, first.ID)

	history, err := s.GetChatHistory(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "first", history[0].Text)
	assert.Equal(t, "alice", history[0].Name)
	assert.Equal(t, "ghost", history[1].Text)
	assert.Empty(t, history[1].Name, "missing sender yields empty name")
	assert.False(t, history[1].CreatedAt.Before(history[0].CreatedAt))
}

func TestListSessionsForUser(t *testing.T) {
	s := storagetest.NewService(t)
	ctx := context.Background()
	alice := storagetest.CreateUser(t, s, "alice")
	bob := storagetest.CreateUser(t, s, "bob")

	mine := storagetest.NewSession(alice.ID, nil)
	theirs := storagetest.NewSession(bob.ID, nil)
	require.NoError(t, s.CreateSession(ctx, mine))
	require.NoError(t, s.CreateSession(ctx, theirs))

	sessions, err := s.ListSessionsForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, mine.ID, sessions[0].ID)

	all, err := s.ListSessions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byID, err := s.ListParticipantsForSessions(ctx, []uint{mine.ID, theirs.ID})
	require.NoError(t, err)
	assert.Equal(t, []models.UserSummary{{ID: bob.ID, Name: "bob"}}, byID[theirs.ID])

	summaries, err := s.GetUserSummaries(ctx, []uint{alice.ID, 777})
	require.NoError(t, err)
	assert.Equal(t, map[uint]models.UserSummary{alice.ID: {ID: alice.ID, Name: "alice"}}, summaries)
}

func TestRoomChannel(t *testing.T) {
	assert.Equal(t, "session:42", storage.RoomChannel(42))
}

func TestPing(t *testing.T) {
	s := storagetest.NewService(t)
	assert.NoError(t, s.Ping(context.Background()))
}
