package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// CreateParams are the caller-supplied fields of a new session.
type CreateParams struct {
	CourseCode      string             `json:"courseCode" validate:"required,max=50"`
	Location        string             `json:"location" validate:"required,max=255"`
	StartTime       time.Time          `json:"startTime" validate:"required"`
	EndTime         time.Time          `json:"endTime" validate:"required,gtfield=StartTime"`
	Topics          string             `json:"topics"`
	MaxParticipants *int               `json:"maxParticipants" validate:"omitempty,min=1"`
	SessionType     models.SessionType `json:"sessionType" validate:"omitempty,oneof=in_person online"`
	MeetingLink     *string            `json:"meetingLink" validate:"omitempty,url"`
}

// UpdateParams carries a partial update; nil fields are left unchanged.
type UpdateParams struct {
	CourseCode      *string             `json:"courseCode"`
	Location        *string             `json:"location"`
	StartTime       *time.Time          `json:"startTime"`
	EndTime         *time.Time          `json:"endTime"`
	Topics          *string             `json:"topics"`
	MaxParticipants *int                `json:"maxParticipants"`
	SessionType     *models.SessionType `json:"sessionType"`
	MeetingLink     *string             `json:"meetingLink"`
}

// apply merges the provided fields onto s and re-derives the meeting link.
func (p UpdateParams) apply(s *models.Session) {
	if p.CourseCode != nil {
		s.CourseCode = strings.TrimSpace(*p.CourseCode)
	}
	if p.Location != nil {
		s.Location = strings.TrimSpace(*p.Location)
	}
	if p.StartTime != nil {
		s.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		s.EndTime = *p.EndTime
	}
	if p.Topics != nil {
		s.Topics = *p.Topics
	}
	if p.MaxParticipants != nil {
		v := *p.MaxParticipants
		s.MaxParticipants = &v
	}
	if p.SessionType != nil {
		s.SessionType = *p.SessionType
	}
	if p.MeetingLink != nil {
		s.MeetingLink = blankToNil(p.MeetingLink)
	}
	s.NormalizeMeetingLink()
}

func (p CreateParams) normalize() CreateParams {
	p.CourseCode = strings.TrimSpace(p.CourseCode)
	p.Location = strings.TrimSpace(p.Location)
	p.MeetingLink = blankToNil(p.MeetingLink)
	if p.SessionType == "" {
		p.SessionType = models.SessionInPerson
	}
	if p.SessionType == models.SessionInPerson {
		p.MeetingLink = nil
	}
	return p
}

func (p CreateParams) session(creatorID uint) *models.Session {
	return &models.Session{
		CourseCode:      p.CourseCode,
		Location:        p.Location,
		StartTime:       p.StartTime,
		EndTime:         p.EndTime,
		Topics:          p.Topics,
		MaxParticipants: p.MaxParticipants,
		CreatorID:       creatorID,
		SessionType:     p.SessionType,
		MeetingLink:     p.MeetingLink,
	}
}

func paramsFromSession(s *models.Session) CreateParams {
	return CreateParams{
		CourseCode:      s.CourseCode,
		Location:        s.Location,
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		Topics:          s.Topics,
		MaxParticipants: s.MaxParticipants,
		SessionType:     s.SessionType,
		MeetingLink:     s.MeetingLink,
	}
}

func blankToNil(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

var fieldNames = map[string]string{
	"CourseCode":      "courseCode",
	"Location":        "location",
	"StartTime":       "startTime",
	"EndTime":         "endTime",
	"MaxParticipants": "maxParticipants",
	"SessionType":     "sessionType",
	"MeetingLink":     "meetingLink",
}

// validationError turns validator output into a single ValidationError whose
// message names the first offending field.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Wrap(apperror.Validation("Invalid session fields"), err)
	}

	fe := verrs[0]
	field := fieldNames[fe.Field()]
	if field == "" {
		field = fe.Field()
	}

	var msg string
	switch fe.Tag() {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "gtfield":
		msg = "endTime must be after startTime"
	case "min":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		msg = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		msg = fmt.Sprintf("%s must be a valid URL", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return apperror.Wrap(apperror.Validation(msg), err)
}
