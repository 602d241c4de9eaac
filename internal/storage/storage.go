package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MembershipGuard inspects a session (row-locked where the database supports
// it) and its current participant ids inside the membership transaction.
// Returning an error aborts the change.
type MembershipGuard func(session *models.Session, participantIDs []uint) error

// Storage is the persistence contract used by the lifecycle manager and the
// chat broker.
type Storage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserSummaries(ctx context.Context, ids []uint) (map[uint]models.UserSummary, error)

	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, id uint) (*models.Session, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	ListSessionsForUser(ctx context.Context, userID uint) ([]models.Session, error)
	SaveSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, id uint) error

	ListParticipants(ctx context.Context, sessionID uint) ([]models.UserSummary, error)
	ListParticipantsForSessions(ctx context.Context, sessionIDs []uint) (map[uint][]models.UserSummary, error)
	IsParticipant(ctx context.Context, sessionID, userID uint) (bool, error)
	AddParticipant(ctx context.Context, sessionID, userID uint, guard MembershipGuard) error
	RemoveParticipant(ctx context.Context, sessionID, userID uint, guard MembershipGuard) error

	SaveMessage(ctx context.Context, msg *models.Message) error
	GetChatHistory(ctx context.Context, sessionID uint) ([]models.HistoryEntry, error)

	Ping(ctx context.Context) error
}

// Service implements Storage on top of GORM.
type Service struct {
	DB *gorm.DB
}

// NewStorageService Constructor
func NewStorageService(db *gorm.DB) *Service {
	return &Service{DB: db}
}

// Open connects to the configured database and runs migrations.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.ConnectionString())
	default:
		dialector = postgres.Open(cfg.ConnectionString())
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", cfg.Driver, err)
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Printf("INFO: %s connection established, migrations complete.", cfg.Driver)
	return db, nil
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Participation{},
		&models.Message{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Wrap(apperror.NotFound(message), err)
	}
	return err
}
