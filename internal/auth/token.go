// Package auth issues and verifies access tokens, hashes credentials and
// guards gin routes.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/models"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the user's display name next to the registered claims. The
// subject is the decimal user id.
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// UserID parses the subject.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return uint(id), nil
}

// TokenIssuer signs and verifies HS256 access tokens.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
	issuer string
	now    func() time.Time
}

func NewTokenIssuer(cfg config.AuthConfig) *TokenIssuer {
	return &TokenIssuer{
		secret: []byte(cfg.JWTSecret),
		expiry: cfg.JWTExpiry,
		issuer: cfg.Issuer,
		now:    time.Now,
	}
}

// Issue creates a signed token for the user.
func (t *TokenIssuer) Issue(user *models.User) (string, error) {
	now := t.now()
	claims := Claims{
		Name: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse verifies the signature, issuer and expiry of a token.
func (t *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) {
			return t.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		msg := "Invalid token"
		if errors.Is(err, jwt.ErrTokenExpired) {
			msg = "Token expired"
		}
		return nil, apperror.Wrap(apperror.Unauthorized(msg), err)
	}
	if _, err := claims.UserID(); err != nil {
		return nil, apperror.Wrap(apperror.Unauthorized("Invalid token"), err)
	}
	return claims, nil
}
