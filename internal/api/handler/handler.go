// Package handler exposes the session API, the auth endpoints and the
// WebSocket endpoint over gin.
package handler

import (
	"log"
	"net/http"
	"strconv"

	"studybuddy/backend/internal/apperror"
	"studybuddy/backend/internal/auth"
	"studybuddy/backend/internal/chathub"
	"studybuddy/backend/internal/session"
	"studybuddy/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// Handler holds the services the routes delegate to.
type Handler struct {
	Sessions *session.Manager
	Hub      *chathub.ManagerService
	Auth     *auth.Service
	Storage  storage.Storage
	// Checks are run by /healthz, keyed by component name.
	Checks map[string]HealthCheck
}

func NewHandler(sessions *session.Manager, hub *chathub.ManagerService, authService *auth.Service, s storage.Storage) *Handler {
	return &Handler{
		Sessions: sessions,
		Hub:      hub,
		Auth:     authService,
		Storage:  s,
		Checks:   map[string]HealthCheck{"database": s.Ping},
	}
}

// respondError writes the classified status and public message. Internal
// errors are logged with their detail and never returned to the client.
func respondError(c *gin.Context, err error) {
	status := apperror.StatusCode(err)
	if status == http.StatusInternalServerError {
		log.Printf("ERROR: %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"message": apperror.PublicMessage(err)})
}

// idParam parses a positive numeric path parameter. Anything else is
// reported as NotFound with notFoundMessage, the same as an unknown id.
func idParam(c *gin.Context, name, notFoundMessage string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.NotFound(notFoundMessage)
	}
	return uint(id), nil
}

// bindJSON decodes the body and reports malformed input as a validation
// error.
func bindJSON(c *gin.Context, v any) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return apperror.Wrap(apperror.Validation("Malformed request body"), err)
	}
	return nil
}
