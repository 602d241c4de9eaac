package scheduler_test

import (
	"sync/atomic"
	"testing"
	"time"

	"studybuddy/backend/internal/chathub"
	"studybuddy/backend/internal/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLocks struct {
	mock.Mock
	calls atomic.Int32
}

func (m *MockLocks) PruneLocks() int {
	m.calls.Add(1)
	return m.Called().Int(0)
}

func (m *MockLocks) TrackedLocks() int {
	return m.Called().Int(0)
}

type fixedStats chathub.RoomStats

func (s fixedStats) Stats() chathub.RoomStats { return chathub.RoomStats(s) }

func TestRunOnce(t *testing.T) {
	locks := new(MockLocks)
	locks.On("PruneLocks").Return(3)
	locks.On("TrackedLocks").Return(1)

	h := &scheduler.Housekeeper{Locks: locks, Rooms: fixedStats{Clients: 4, Rooms: 2}}
	report := h.RunOnce()

	assert.Equal(t, scheduler.Report{
		PrunedLocks:    3,
		RemainingLocks: 1,
		Rooms:          chathub.RoomStats{Clients: 4, Rooms: 2},
	}, report)
	locks.AssertExpectations(t)
}

func TestStart_RunsPeriodically(t *testing.T) {
	locks := new(MockLocks)
	locks.On("PruneLocks").Return(0)
	locks.On("TrackedLocks").Return(0)

	h := &scheduler.Housekeeper{Locks: locks, Rooms: fixedStats{}}
	s, err := scheduler.Start(h, 50*time.Millisecond)
	require.NoError(t, err)
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return locks.calls.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond)
}
