package storage

import (
	"context"
	"errors"
	"log"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateSession inserts the session and its creator's participation in one
// transaction, so a session never exists without a participant.
func (s *Service) CreateSession(ctx context.Context, session *models.Session) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			log.Printf("ERROR: Failed to create session for creator %d: %v", session.CreatorID, err)
			return err
		}
		return tx.Create(&models.Participation{SessionID: session.ID, UserID: session.CreatorID}).Error
	})
}

// GetSession returns a session or a NotFound error.
func (s *Service) GetSession(ctx context.Context, id uint) (*models.Session, error) {
	var session models.Session
	if err := s.DB.WithContext(ctx).First(&session, id).Error; err != nil {
		return nil, notFound(err, "Session not found")
	}
	return &session, nil
}

// ListSessions returns all sessions ordered by start time.
func (s *Service) ListSessions(ctx context.Context) ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.WithContext(ctx).Order("start_time asc, id asc").Find(&sessions).Error
	return sessions, err
}

// ListSessionsForUser returns the sessions the user participates in.
func (s *Service) ListSessionsForUser(ctx context.Context, userID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := s.DB.WithContext(ctx).
		Joins("JOIN session_participants ON session_participants.session_id = sessions.id").
		Where("session_participants.user_id = ?", userID).
		Order("sessions.start_time asc, sessions.id asc").
		Find(&sessions).Error
	return sessions, err
}

// SaveSession writes all fields of an existing session.
func (s *Service) SaveSession(ctx context.Context, session *models.Session) error {
	return s.DB.WithContext(ctx).Save(session).Error
}

// DeleteSession removes a session together with its messages and
// participations. It takes the same row lock as SaveMessage before deleting.
func (s *Service) DeleteSession(ctx context.Context, id uint) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockSession(tx, id); err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", id).Delete(&models.Participation{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Session{}, id).Error
	})
}

type participantRow struct {
	SessionID uint
	ID        uint
	Name      string
}

// ListParticipants returns id+name of every participant in join order.
func (s *Service) ListParticipants(ctx context.Context, sessionID uint) ([]models.UserSummary, error) {
	bySession, err := s.ListParticipantsForSessions(ctx, []uint{sessionID})
	if err != nil {
		return nil, err
	}
	participants := bySession[sessionID]
	if participants == nil {
		participants = []models.UserSummary{}
	}
	return participants, nil
}

// ListParticipantsForSessions batches participant lookups for session lists.
func (s *Service) ListParticipantsForSessions(ctx context.Context, sessionIDs []uint) (map[uint][]models.UserSummary, error) {
	result := make(map[uint][]models.UserSummary, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	var rows []participantRow
	err := s.DB.WithContext(ctx).
		Table("session_participants").
		Select("session_participants.session_id, users.id, users.name").
		Joins("JOIN users ON users.id = session_participants.user_id").
		Where("session_participants.session_id IN ?", sessionIDs).
		Order("session_participants.joined_at asc, users.id asc").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[r.SessionID] = append(result[r.SessionID], models.UserSummary{ID: r.ID, Name: r.Name})
	}
	return result, nil
}

// IsParticipant reports whether a participation row exists.
func (s *Service) IsParticipant(ctx context.Context, sessionID, userID uint) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.Participation{}).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Count(&count).Error
	return count > 0, err
}

// AddParticipant runs guard against the locked session and inserts the
// participation in the same transaction.
func (s *Service) AddParticipant(ctx context.Context, sessionID, userID uint, guard MembershipGuard) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, ids, err := lockMembership(tx, sessionID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(session, ids); err != nil {
				return err
			}
		}

		err = tx.Create(&models.Participation{SessionID: sessionID, UserID: userID}).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Wrap(apperror.Conflict("Already joined"), err)
		}
		return err
	})
}

// RemoveParticipant runs guard against the locked session and deletes the
// participation in the same transaction.
func (s *Service) RemoveParticipant(ctx context.Context, sessionID, userID uint, guard MembershipGuard) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, ids, err := lockMembership(tx, sessionID)
		if err != nil {
			return err
		}
		if guard != nil {
			if err := guard(session, ids); err != nil {
				return err
			}
		}

		result := tx.Where("session_id = ? AND user_id = ?", sessionID, userID).Delete(&models.Participation{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperror.Conflict("Not a participant of this session")
		}
		return nil
	})
}

// lockSession loads the session FOR UPDATE (ignored by SQLite, which
// serializes writers anyway).
func lockSession(tx *gorm.DB, sessionID uint) (*models.Session, error) {
	var session models.Session
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&session, sessionID).Error
	if err != nil {
		return nil, notFound(err, "Session not found")
	}
	return &session, nil
}

// lockMembership locks the session and reads the current participant ids.
func lockMembership(tx *gorm.DB, sessionID uint) (*models.Session, []uint, error) {
	session, err := lockSession(tx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	var ids []uint
	err = tx.Model(&models.Participation{}).
		Where("session_id = ?", sessionID).
		Order("joined_at asc").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, nil, err
	}
	return session, ids, nil
}
