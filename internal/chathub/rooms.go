package chathub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/metrics"
	"studybuddy/backend/internal/models"

	"github.com/patrickmn/go-cache"
)

const maxJoinAttempts = 3

// JoinRoom adds the connection to the session's delivery set. Only
// participants of the session may join.
func (m *ManagerService) JoinRoom(ctx context.Context, c Client, sessionID uint) error {
	if sessionID == 0 {
		return apperror.Validation("sessionId is required")
	}

	for attempt := 1; ; attempt++ {
		joined, err := m.tryJoinRoom(ctx, c, sessionID)
		if err != nil || joined {
			return err
		}
		if attempt == maxJoinAttempts {
			return apperror.Conflict("Session membership is changing, try again")
		}
	}
}

// tryJoinRoom checks participation and inserts the connection unless a
// membership was revoked meanwhile, in which case it reports false.
func (m *ManagerService) tryJoinRoom(ctx context.Context, c Client, sessionID uint) (bool, error) {
	m.mu.RLock()
	generation := m.evictions
	m.mu.RUnlock()

	key := memberKey(sessionID, c.GetUserID())
	_, cached := m.members.Get(key)
	ok := cached
	if !cached {
		var err error
		if ok, err = m.Storage.IsParticipant(ctx, sessionID, c.GetUserID()); err != nil {
			return false, err
		}
	}

	m.mu.Lock()
	if m.evictions != generation {
		m.mu.Unlock()
		return false, nil
	}
	if !ok {
		m.mu.Unlock()
		metrics.RejectedRoomJoins.Inc()
		log.Printf("WARNING: User %d refused from room %d: not a participant", c.GetUserID(), sessionID)
		return false, apperror.Forbidden("Only participants can join this session's chat")
	}
	connID := c.GetConnID()
	if _, registered := m.clients[connID]; !registered {
		m.mu.Unlock()
		return false, apperror.Validation("Connection is closed")
	}
	if !cached {
		m.members.Set(key, struct{}{}, cache.DefaultExpiration)
	}
	room, exists := m.rooms[sessionID]
	if !exists {
		room = make(map[string]Client)
		m.rooms[sessionID] = room
	}
	room[connID] = c
	if m.joined[connID] == nil {
		m.joined[connID] = make(map[uint]struct{})
	}
	m.joined[connID][sessionID] = struct{}{}
	m.updateGauges()
	m.mu.Unlock()

	log.Printf("INFO: User %d (%s) joined room %d", c.GetUserID(), c.GetUserName(), sessionID)
	return true, nil
}

// LeaveRoom removes the connection from the session's delivery set.
func (m *ManagerService) LeaveRoom(c Client, sessionID uint) {
	m.mu.Lock()
	connID := c.GetConnID()
	m.removeFromRoom(sessionID, connID)
	delete(m.joined[connID], sessionID)
	m.updateGauges()
	m.mu.Unlock()

	log.Printf("INFO: User %d (%s) left room %d", c.GetUserID(), c.GetUserName(), sessionID)
}

// PostMessage posts on behalf of the connection's authenticated user. The
// connection must have joined the room; sender fields in req are ignored.
func (m *ManagerService) PostMessage(ctx context.Context, c Client, req models.ChatRequest) (*models.ChatMessage, error) {
	if !m.InRoom(c.GetConnID(), req.SessionID) {
		return nil, apperror.Forbidden("Join the session chat before posting")
	}
	return m.Post(ctx, req.SessionID, c.GetUserID(), c.GetUserName(), req.Text)
}

// Post persists a message and broadcasts it, with its server-assigned id and
// timestamp, to every connection in the room including the sender's.
func (m *ManagerService) Post(ctx context.Context, sessionID, userID uint, name, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	switch {
	case sessionID == 0 || userID == 0:
		return nil, apperror.Validation("sessionId and userId are required")
	case text == "":
		return nil, apperror.Validation("Message text is required")
	case utf8.RuneCountInString(text) > config.MaxMessageLength:
		return nil, apperror.Validation(fmt.Sprintf("Message text exceeds %d characters", config.MaxMessageLength))
	}

	msg := &models.Message{SessionID: sessionID, UserID: userID, Content: text}
	if err := m.Storage.SaveMessage(ctx, msg); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Wrap(apperror.Validation("Unknown session"), err)
		}
		return nil, err
	}
	metrics.MessagesPosted.Inc()

	out := models.ChatMessage(msg.Entry(name))
	if err := m.publish(ctx, sessionID, models.EventMessage, out); err != nil {
		log.Printf("ERROR: Failed to publish message %d for session %d: %v", msg.ID, sessionID, err)
	}
	return &out, nil
}

// GetHistory returns the session's messages oldest first. Senders whose
// record is gone are shown as "Unknown".
func (m *ManagerService) GetHistory(ctx context.Context, sessionID uint) ([]models.HistoryEntry, error) {
	if _, err := m.Storage.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	history, err := m.Storage.GetChatHistory(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for i := range history {
		if history[i].Name == "" {
			history[i].Name = config.UnknownSenderName
		}
	}
	return history, nil
}

// HandleFrame dispatches one client frame. Failures are reported to that
// connection only.
func (m *ManagerService) HandleFrame(ctx context.Context, c Client, raw []byte) {
	var in models.IncomingEvent
	if err := json.Unmarshal(raw, &in); err != nil {
		log.Printf("WARNING: Malformed frame from client %s: %v", c.GetConnID(), err)
		m.sendError(c, apperror.Validation("Malformed frame"))
		return
	}

	var err error
	switch in.Name {
	case models.EventJoinSession:
		var req models.RoomRequest
		if err = decodePayload(in.Data, &req); err == nil {
			err = m.JoinRoom(ctx, c, req.SessionID)
		}
	case models.EventLeaveSession:
		var req models.RoomRequest
		if err = decodePayload(in.Data, &req); err == nil {
			m.LeaveRoom(c, req.SessionID)
		}
	case models.EventMessage:
		var req models.ChatRequest
		if err = decodePayload(in.Data, &req); err == nil {
			_, err = m.PostMessage(ctx, c, req)
		}
	default:
		err = apperror.Validation(fmt.Sprintf("Unknown event %q", in.Name))
	}

	if err != nil {
		m.sendError(c, err)
	}
}

func decodePayload(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return apperror.Validation("Missing event data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return apperror.Wrap(apperror.Validation("Malformed event data"), err)
	}
	return nil
}

func (m *ManagerService) sendError(c Client, err error) {
	if apperror.CodeOf(err) == apperror.CodeInternal {
		log.Printf("ERROR: Request from client %s failed: %v", c.GetConnID(), err)
	}
	m.sendTo(c, models.Event{
		Name: models.EventError,
		Data: models.ErrorNotice{Message: apperror.PublicMessage(err)},
	})
}

// ParticipantsChanged broadcasts the new participant list to the room.
func (m *ManagerService) ParticipantsChanged(sessionID uint, participants []models.UserSummary) {
	update := models.ParticipantsUpdate{SessionID: sessionID, Participants: participants}
	if err := m.publish(context.Background(), sessionID, models.EventParticipants, update); err != nil {
		log.Printf("ERROR: Failed to publish participants for session %d: %v", sessionID, err)
	}
}

// ParticipantLeft detaches the user's connections from the room.
func (m *ManagerService) ParticipantLeft(sessionID, userID uint) {
	m.detachUser(sessionID, userID)
}

// SessionDeleted tells the room the session is gone; the room is closed when
// the event is delivered.
func (m *ManagerService) SessionDeleted(sessionID uint) {
	m.mu.Lock()
	m.evictions++
	m.evictSession(sessionID)
	m.mu.Unlock()
	if err := m.publish(context.Background(), sessionID, models.EventSessionDeleted, models.SessionDeleted{SessionID: sessionID}); err != nil {
		log.Printf("ERROR: Failed to publish deletion of session %d: %v", sessionID, err)
		m.closeRoom(sessionID)
	}
}
