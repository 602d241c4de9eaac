package chathub_test

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"studybuddy/backend/internal/models"

	"github.com/stretchr/testify/require"
)

type MockClient struct {
	connID string
	userID uint
	name   string

	RecvChannel chan models.Event

	mu     sync.Mutex
	closed bool
}

func newMockClient(connID string, userID uint, name string) *MockClient {
	return newMockClientWithBuffer(connID, userID, name, 16)
}

func newMockClientWithBuffer(connID string, userID uint, name string, buffer int) *MockClient {
	return &MockClient{
		connID:      connID,
		userID:      userID,
		name:        name,
		RecvChannel: make(chan models.Event, buffer),
	}
}

func (c *MockClient) GetConnID() string { return c.connID }

func (c *MockClient) GetUserID() uint { return c.userID }

func (c *MockClient) GetUserName() string { return c.name }

func (c *MockClient) GetSendChannel() chan<- models.Event { return c.RecvChannel }

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// expectEvent waits for the next event and checks its name.
func expectEvent(t *testing.T, c *MockClient, name string) models.Event {
	t.Helper()
	select {
	case evt := <-c.RecvChannel:
		require.Equal(t, name, evt.Name, "unexpected event %+v", evt)
		return evt
	case <-time.After(2 * time.Second):
		t.Fatalf("client %s did not receive %s", c.connID, name)
		return models.Event{}
	}
}

// expectNoEvent checks nothing arrives within a short window.
func expectNoEvent(t *testing.T, c *MockClient) {
	t.Helper()
	select {
	case evt := <-c.RecvChannel:
		t.Fatalf("client %s got unexpected event %+v", c.connID, evt)
	case <-time.After(100 * time.Millisecond):
	}
}

// decodeData unmarshals event data that came through the relay.
func decodeData(t *testing.T, evt models.Event, v any) {
	t.Helper()
	raw, ok := evt.Data.(json.RawMessage)
	require.True(t, ok, "relayed data should be raw JSON, got %T", evt.Data)
	require.NoError(t, json.Unmarshal(raw, v))
}
