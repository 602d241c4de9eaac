package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/models"
	"studybuddy/backend/internal/storage"

	"github.com/go-playground/validator/v10"
)

// RegisterParams is the body of POST /auth/register.
type RegisterParams struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Program  string `json:"program" validate:"max=100"`
	Year     int    `json:"year" validate:"omitempty,min=1,max=10"`
}

// LoginParams is the body of POST /auth/login.
type LoginParams struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is returned by register and login.
type Result struct {
	Token string               `json:"token"`
	User  models.PublicProfile `json:"user"`
}

// Service registers and logs in users.
type Service struct {
	Storage storage.Storage
	Tokens  *TokenIssuer

	validate *validator.Validate
}

func NewService(s storage.Storage, tokens *TokenIssuer) *Service {
	return &Service{Storage: s, Tokens: tokens, validate: validator.New()}
}

// Register creates a user and returns a token for it.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*Result, error) {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if err := s.validate.Struct(p); err != nil {
		return nil, apperror.Wrap(apperror.Validation(registerMessage(err)), err)
	}

	hash, err := HashPassword(p.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         p.Name,
		Email:        p.Email,
		PasswordHash: hash,
		Program:      strings.TrimSpace(p.Program),
		Year:         p.Year,
	}
	if err := s.Storage.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.Printf("INFO: User %d registered", user.ID)

	return s.result(user)
}

// Login checks the credentials and returns a fresh token.
func (s *Service) Login(ctx context.Context, p LoginParams) (*Result, error) {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if err := s.validate.Struct(p); err != nil {
		return nil, apperror.Wrap(apperror.Validation("Email and password are required"), err)
	}

	user, err := s.Storage.GetUserByEmail(ctx, p.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid email or password")
		}
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, p.Password) {
		return nil, apperror.Unauthorized("Invalid email or password")
	}

	return s.result(user)
}

func (s *Service) result(user *models.User) (*Result, error) {
	token, err := s.Tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: user.Profile()}, nil
}

func registerMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid registration"
	}
	switch verrs[0].Field() {
	case "Name":
		return "name is required"
	case "Email":
		return "A valid email is required"
	case "Password":
		return "password must be 8 to 72 characters"
	case "Year":
		return "year must be between 1 and 10"
	default:
		return "program is too long"
	}
}
