// Package session owns every state transition of a study session: creation,
// membership changes, updates and deletion. Membership changes for one
// session are serialized and evaluated against the committed state.
package session

import (
	"context"
	"log"
	"slices"
	"time"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/metrics"
	"studybuddy/backend/internal/models"
	"studybuddy/backend/internal/storage"

	"github.com/go-playground/validator/v10"
)

// Notifier receives committed lifecycle changes. The chat broker implements
// it to push participant lists and deletions to connected clients.
type Notifier interface {
	ParticipantsChanged(sessionID uint, participants []models.UserSummary)
	ParticipantLeft(sessionID, userID uint)
	SessionDeleted(sessionID uint)
}

// LeaveResult reports what a leave did. When Deleted is set the session no
// longer exists and Participants is empty.
type LeaveResult struct {
	Deleted      bool                 `json:"deleted"`
	Participants []models.UserSummary `json:"participants,omitempty"`
}

// Manager is the only component allowed to mutate sessions and memberships.
type Manager struct {
	Storage  storage.Storage
	Notifier Notifier
	Now      func() time.Time

	locks    *KeyedMutex
	validate *validator.Validate
}

// NewManager Constructor
func NewManager(s storage.Storage, n Notifier) *Manager {
	return &Manager{
		Storage:  s,
		Notifier: n,
		Now:      time.Now,
		locks:    NewKeyedMutex(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Create validates the fields and stores a session whose creator is its
// first participant.
func (m *Manager) Create(ctx context.Context, creatorID uint, params CreateParams) (*models.SessionView, error) {
	params = params.normalize()
	if err := m.validate.Struct(params); err != nil {
		return nil, validationError(err)
	}

	s := params.session(creatorID)
	if err := m.Storage.CreateSession(ctx, s); err != nil {
		return nil, err
	}
	log.Printf("INFO: Session %d (%s) created by user %d", s.ID, s.CourseCode, creatorID)

	return m.view(ctx, s)
}

// Join adds userID to the session unless they created it, already joined it
// or it is full.
func (m *Manager) Join(ctx context.Context, sessionID, userID uint) ([]models.UserSummary, error) {
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	err := m.Storage.AddParticipant(ctx, sessionID, userID, func(s *models.Session, ids []uint) error {
		if s.CreatorID == userID {
			return apperror.Conflict("Cannot join your own session")
		}
		if slices.Contains(ids, userID) {
			return apperror.Conflict("Already joined")
		}
		if s.IsFull(len(ids)) {
			return apperror.Capacity("Session full")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	participants, err := m.Storage.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	metrics.MembershipChanges.WithLabelValues(metrics.ActionJoin).Inc()
	log.Printf("INFO: User %d joined session %d (%d participants)", userID, sessionID, len(participants))

	if m.Notifier != nil {
		m.Notifier.ParticipantsChanged(sessionID, participants)
	}
	return participants, nil
}

// Leave removes userID from the session. A creator leaving deletes the
// session; the last remaining participant cannot leave.
func (m *Manager) Leave(ctx context.Context, sessionID, userID uint) (*LeaveResult, error) {
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	s, err := m.Storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.CreatorID == userID {
		if err := m.deleteLocked(ctx, sessionID); err != nil {
			return nil, err
		}
		log.Printf("INFO: Creator %d left session %d, session deleted", userID, sessionID)
		return &LeaveResult{Deleted: true}, nil
	}

	err = m.Storage.RemoveParticipant(ctx, sessionID, userID, func(_ *models.Session, ids []uint) error {
		if !slices.Contains(ids, userID) {
			return apperror.Conflict("Not a participant of this session")
		}
		if len(ids) <= 1 {
			return apperror.Invariant("Cannot leave: would leave session empty")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	participants, err := m.Storage.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	metrics.MembershipChanges.WithLabelValues(metrics.ActionLeave).Inc()
	log.Printf("INFO: User %d left session %d (%d participants)", userID, sessionID, len(participants))

	if m.Notifier != nil {
		m.Notifier.ParticipantLeft(sessionID, userID)
		m.Notifier.ParticipantsChanged(sessionID, participants)
	}
	return &LeaveResult{Participants: participants}, nil
}

// Update applies a partial change. Only the creator may update, and the
// merged session must satisfy the same rules as a new one.
func (m *Manager) Update(ctx context.Context, sessionID, requesterID uint, params UpdateParams) (*models.SessionView, error) {
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	s, err := m.Storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.CreatorID != requesterID {
		return nil, apperror.Forbidden("Only the session creator can modify this session")
	}

	params.apply(s)
	if err := m.validate.Struct(paramsFromSession(s)); err != nil {
		return nil, validationError(err)
	}

	if params.MaxParticipants != nil {
		participants, err := m.Storage.ListParticipants(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if len(participants) > *s.MaxParticipants {
			return nil, apperror.Capacity("maxParticipants cannot be lower than the current participant count")
		}
	}

	if err := m.Storage.SaveSession(ctx, s); err != nil {
		return nil, err
	}
	log.Printf("INFO: Session %d updated by user %d", sessionID, requesterID)

	return m.view(ctx, s)
}

// Delete removes the session with its participations and messages. Only the
// creator may delete.
func (m *Manager) Delete(ctx context.Context, sessionID, requesterID uint) error {
	unlock := m.locks.Lock(sessionID)
	defer unlock()

	s, err := m.Storage.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.CreatorID != requesterID {
		return apperror.Forbidden("Only the session creator can delete this session")
	}

	if err := m.deleteLocked(ctx, sessionID); err != nil {
		return err
	}
	log.Printf("INFO: Session %d deleted by user %d", sessionID, requesterID)
	return nil
}

func (m *Manager) deleteLocked(ctx context.Context, sessionID uint) error {
	if err := m.Storage.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	metrics.MembershipChanges.WithLabelValues(metrics.ActionDelete).Inc()
	if m.Notifier != nil {
		m.Notifier.SessionDeleted(sessionID)
	}
	return nil
}

// Get returns one session projected with its status.
func (m *Manager) Get(ctx context.Context, sessionID uint) (*models.SessionView, error) {
	s, err := m.Storage.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return m.view(ctx, s)
}

// List returns all sessions ordered by start time.
func (m *Manager) List(ctx context.Context) ([]models.SessionView, error) {
	sessions, err := m.Storage.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	return m.views(ctx, sessions)
}

// ListForUser returns the sessions userID participates in.
func (m *Manager) ListForUser(ctx context.Context, userID uint) ([]models.SessionView, error) {
	sessions, err := m.Storage.ListSessionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return m.views(ctx, sessions)
}

// PruneLocks releases per-session locks nobody is holding.
func (m *Manager) PruneLocks() int {
	return m.locks.Prune()
}

// TrackedLocks is the number of per-session locks currently allocated.
func (m *Manager) TrackedLocks() int {
	return m.locks.Len()
}

func (m *Manager) view(ctx context.Context, s *models.Session) (*models.SessionView, error) {
	views, err := m.views(ctx, []models.Session{*s})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (m *Manager) views(ctx context.Context, sessions []models.Session) ([]models.SessionView, error) {
	ids := make([]uint, 0, len(sessions))
	creatorIDs := make([]uint, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
		creatorIDs = append(creatorIDs, s.CreatorID)
	}

	participants, err := m.Storage.ListParticipantsForSessions(ctx, ids)
	if err != nil {
		return nil, err
	}
	creators, err := m.Storage.GetUserSummaries(ctx, creatorIDs)
	if err != nil {
		return nil, err
	}

	now := m.Now()
	views := make([]models.SessionView, 0, len(sessions))
	for _, s := range sessions {
		creator, ok := creators[s.CreatorID]
		if !ok {
			creator = models.UserSummary{ID: s.CreatorID, Name: config.UnknownSenderName}
		}
		members := participants[s.ID]
		if members == nil {
			members = []models.UserSummary{}
		}

		status := models.StatusAt(s.StartTime, s.EndTime, now)
		views = append(views, models.SessionView{
			Session:          s,
			Creator:          creator,
			Participants:     members,
			ParticipantCount: len(members),
			Status:           status.Kind,
			StartsInSeconds:  int64(status.StartsIn / time.Second),
		})
	}
	return views, nil
}
