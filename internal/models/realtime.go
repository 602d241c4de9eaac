package models

import (
	"encoding/json"
	"time"
)

// Real-time event names.
const (
	EventJoinSession    = "joinSession"
	EventLeaveSession   = "leaveSession"
	EventMessage        = "message"
	EventParticipants   = "participants"
	EventSessionDeleted = "sessionDeleted"
	EventError          = "error"
)

// Event is a server-to-client frame.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// IncomingEvent is a client-to-server frame; Data is decoded per Name.
type IncomingEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// RoomRequest is the payload of joinSession and leaveSession. User is only
// used for logging; identity comes from the authenticated connection.
type RoomRequest struct {
	SessionID uint         `json:"sessionId"`
	User      *UserSummary `json:"user,omitempty"`
}

// ChatRequest is the payload of a client message event. UserID and Name are
// accepted for compatibility and ignored.
type ChatRequest struct {
	SessionID uint   `json:"sessionId"`
	UserID    uint   `json:"userId"`
	Name      string `json:"name"`
	Text      string `json:"text"`
}

// ChatMessage is the broadcast form of a persisted message.
type ChatMessage struct {
	ID        uint      `json:"id"`
	SessionID uint      `json:"sessionId"`
	Text      string    `json:"text"`
	UserID    uint      `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// ParticipantsUpdate is broadcast after membership changes.
type ParticipantsUpdate struct {
	SessionID    uint          `json:"sessionId"`
	Participants []UserSummary `json:"participants"`
}

// SessionDeleted is broadcast when a session is removed.
type SessionDeleted struct {
	SessionID uint `json:"sessionId"`
}

// ErrorNotice is sent only to the connection whose request failed.
type ErrorNotice struct {
	Message string `json:"message"`
}

// RoomEnvelope is what travels over the pub/sub relay: an event addressed to
// one session room.
type RoomEnvelope struct {
	SessionID uint            `json:"sessionId"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
}
