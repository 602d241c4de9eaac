package models

import "time"

// Message is an immutable chat record. The auto-increment ID and CreatedAt
// are server-assigned and define history order.
type Message struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// SessionID is the owning session; history is read per session.
	SessionID uint `gorm:"not null;index:idx_session_msg" json:"sessionId"`
	// UserID is the sender.
	UserID    uint      `gorm:"not null" json:"userId"`
	Content   string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_session_msg" json:"createdAt"`
}

// HistoryEntry is a message projected with its sender's display name.
type HistoryEntry struct {
	ID        uint      `json:"id"`
	SessionID uint      `json:"sessionId"`
	Text      string    `json:"text"`
	UserID    uint      `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Entry projects a persisted message with the given sender name.
func (m Message) Entry(senderName string) HistoryEntry {
	return HistoryEntry{
		ID:        m.ID,
		SessionID: m.SessionID,
		Text:      m.Content,
		UserID:    m.UserID,
		Name:      senderName,
		CreatedAt: m.CreatedAt,
	}
}
