// Package storagetest provides SQLite-backed storage fixtures for tests.
package storagetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"studybuddy/backend/internal/models"
	"studybuddy/backend/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a private in-memory SQLite database with all tables migrated.
// A single connection is used so the database lives as long as the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, storage.Migrate(db))
	return db
}

// NewService returns a storage service over a fresh database.
func NewService(t testing.TB) *storage.Service {
	t.Helper()
	return storage.NewStorageService(NewDB(t))
}

// CreateUser inserts a user with a unique email derived from name.
func CreateUser(t testing.TB, s storage.Storage, name string) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		Email:        fmt.Sprintf("%s-%s@campus.test", name, uuid.NewString()[:8]),
		PasswordHash: "not-a-real-hash",
		Program:      "Computer Science",
		Year:         2,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

// NewSession builds an unsaved in-person session starting in an hour.
func NewSession(creatorID uint, maxParticipants *int) *models.Session {
	start := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	return &models.Session{
		CourseCode:      "CS101",
		Location:        "Library Room 2",
		StartTime:       start,
		EndTime:         start.Add(2 * time.Hour),
		Topics:          "graphs",
		MaxParticipants: maxParticipants,
		CreatorID:       creatorID,
		SessionType:     models.SessionInPerson,
	}
}
