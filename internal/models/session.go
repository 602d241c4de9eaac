package models

import "time"

// SessionType is either in_person or online.
type SessionType string

const (
	SessionInPerson SessionType = "in_person"
	SessionOnline   SessionType = "online"
)

// Session is a scheduled study meetup. It exists while it has at least one
// participant and is removed together with its participations and messages.
type Session struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	CourseCode string    `gorm:"type:varchar(50);not null" json:"courseCode"`
	Location   string    `gorm:"type:varchar(255);not null" json:"location"`
	StartTime  time.Time `gorm:"not null" json:"startTime"`
	EndTime    time.Time `gorm:"not null" json:"endTime"`
	// Topics is free text describing what will be studied.
	Topics string `gorm:"type:text" json:"topics"`
	// MaxParticipants bounds the participant count when set.
	MaxParticipants *int `json:"maxParticipants"`
	// CreatorID owns the session and holds update/delete rights.
	CreatorID   uint        `gorm:"not null;index" json:"creatorId"`
	SessionType SessionType `gorm:"type:varchar(20);not null;default:in_person" json:"sessionType"`
	// MeetingLink is always nil for in-person sessions.
	MeetingLink *string   `gorm:"type:text" json:"meetingLink"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NormalizeMeetingLink enforces that in-person sessions carry no link.
func (s *Session) NormalizeMeetingLink() {
	if s.SessionType == "" {
		s.SessionType = SessionInPerson
	}
	if s.SessionType == SessionInPerson {
		s.MeetingLink = nil
	}
}

// IsFull reports whether count participants already reach the bound.
func (s *Session) IsFull(count int) bool {
	return s.MaxParticipants != nil && count >= *s.MaxParticipants
}

// Participation is the unique (session, user) membership row.
type Participation struct {
	SessionID uint      `gorm:"primaryKey;autoIncrement:false" json:"sessionId"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"userId"`
	JoinedAt  time.Time `gorm:"autoCreateTime" json:"joinedAt"`
}

// TableName keeps the session_participants join table name.
func (Participation) TableName() string { return "session_participants" }

// SessionView is a session with its creator and participant projections and
// its temporal status computed at read time.
type SessionView struct {
	Session
	Creator          UserSummary   `json:"creator"`
	Participants     []UserSummary `json:"participants"`
	ParticipantCount int           `json:"participantCount"`
	Status           StatusKind    `json:"status"`
	StartsInSeconds  int64         `json:"startsInSeconds,omitempty"`
}
