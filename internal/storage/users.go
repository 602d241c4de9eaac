package storage

import (
	"context"
	"errors"
	"log"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/models"

	"gorm.io/gorm"
)

// CreateUser inserts a new user. A taken email is a conflict.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	err := s.DB.WithContext(ctx).Create(user).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperror.Wrap(apperror.Conflict("Email already registered"), err)
	}
	if err != nil {
		log.Printf("ERROR: Failed to create user %s: %v", user.Email, err)
		return err
	}
	return nil
}

// GetUserByID returns a user or a NotFound error.
func (s *Service) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &user, nil
}

// GetUserByEmail returns a user or a NotFound error.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err, "User not found")
	}
	return &user, nil
}

// GetUserSummaries returns id+name projections keyed by id. Unknown ids are
// simply absent from the result.
func (s *Service) GetUserSummaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error) {
	result := make(map[uint]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	var rows []models.UserSummary
	err := s.DB.WithContext(ctx).Model(&models.User{}).
		Select("id, name").
		Where("id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[r.ID] = r
	}
	return result, nil
}
