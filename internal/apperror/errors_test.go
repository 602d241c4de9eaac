package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"studybuddy/backend/internal/apperror"

	"github.com/stretchr/testify/assert"
)

func TestErrorsIs_MatchesByCode(t *testing.T) {
	err := fmt.Errorf("join failed: %w", apperror.Capacity("Session full"))

	assert.ErrorIs(t, err, apperror.ErrCapacity)
	assert.NotErrorIs(t, err, apperror.ErrConflict)
}

func TestWrap_KeepsMessageAndCause(t *testing.T) {
	cause := errors.New("record not found")
	err := apperror.Wrap(apperror.NotFound("Session not found"), cause)

	assert.ErrorIs(t, err, apperror.ErrNotFound)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Session not found", apperror.PublicMessage(err))
	assert.Equal(t, "Session not found: record not found", err.Error())
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperror.Validation("x"), http.StatusBadRequest},
		{apperror.Conflict("x"), http.StatusBadRequest},
		{apperror.Capacity("x"), http.StatusBadRequest},
		{apperror.Invariant("x"), http.StatusBadRequest},
		{apperror.Unauthorized("x"), http.StatusUnauthorized},
		{apperror.Forbidden("x"), http.StatusForbidden},
		{apperror.NotFound("x"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, apperror.StatusCode(tt.err), tt.err.Error())
	}
}

func TestPublicMessage_HidesInternalDetail(t *testing.T) {
	assert.Equal(t, "Server error", apperror.PublicMessage(errors.New("pq: connection refused")))
	assert.Equal(t, "Already joined", apperror.PublicMessage(apperror.Conflict("Already joined")))
	assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(errors.New("boom")))
	assert.Equal(t, apperror.CodeForbidden, apperror.CodeOf(apperror.Forbidden("no")))
}
