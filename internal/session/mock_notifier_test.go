package session_test

import (
	"studybuddy/backend/internal/models"

	"github.com/stretchr/testify/mock"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) ParticipantsChanged(sessionID uint, participants []models.UserSummary) {
	m.Called(sessionID, participants)
}

func (m *MockNotifier) ParticipantLeft(sessionID, userID uint) {
	m.Called(sessionID, userID)
}

func (m *MockNotifier) SessionDeleted(sessionID uint) {
	m.Called(sessionID)
}

// quietNotifier accepts any notification.
func quietNotifier() *MockNotifier {
	n := new(MockNotifier)
	n.On("ParticipantsChanged", mock.Anything, mock.Anything).Maybe()
	n.On("ParticipantLeft", mock.Anything, mock.Anything).Maybe()
	n.On("SessionDeleted", mock.Anything).Maybe()
	return n
}
