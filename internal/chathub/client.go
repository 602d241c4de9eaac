package chathub

import "studybuddy/backend/internal/models"

// Client is one authenticated real-time connection. The hub addresses it by
// connection id; one user may hold several connections.
type Client interface {
	// GetConnID returns the unique id of this connection.
	GetConnID() string
	// GetUserID returns the authenticated user behind the connection.
	GetUserID() uint
	// GetUserName returns the display name attached to outgoing messages.
	GetUserName() string

	// GetSendChannel returns the channel the hub writes outgoing events to.
	GetSendChannel() chan<- models.Event

	// Run starts the client's read and write pumps.
	Run()
	// Close stops the write pump. It must be safe to call more than once.
	Close()
}
