package storage

import (
	"context"
	"log"

	"studybuddy/backend/internal/models"

	"gorm.io/gorm"
)

// SaveMessage persists a chat message; ID and CreatedAt are filled by GORM.
// The session row is locked for the insert, so a message never outlives a
// concurrent DeleteSession. An unknown session is a NotFound error.
func (s *Service) SaveMessage(ctx context.Context, msg *models.Message) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSession(tx, msg.SessionID); err != nil {
			return err
		}
		if err := tx.Create(msg).Error; err != nil {
			log.Printf("ERROR: Failed to save message for session %d: %v", msg.SessionID, err)
			return err
		}
		return nil
	})
}

// GetChatHistory returns a session's messages oldest first, each with the
// sender's name. Name is empty when the sender record is missing.
func (s *Service) GetChatHistory(ctx context.Context, sessionID uint) ([]models.HistoryEntry, error) {
	history := []models.HistoryEntry{}
	err := s.DB.WithContext(ctx).
		Table("messages").
		Select("messages.id, messages.session_id, messages.content AS text, messages.user_id, " +
			"COALESCE(users.name, '') AS name, messages.created_at").
		Joins("LEFT JOIN users ON users.id = messages.user_id").
		Where("messages.session_id = ?", sessionID).
		Order("messages.created_at asc, messages.id asc").
		Scan(&history).Error
	if err != nil {
		log.Printf("ERROR: Failed to get chat history for session %d: %v", sessionID, err)
		return nil, err
	}
	return history, nil
}
