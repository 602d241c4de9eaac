package handler

import (
	"net/http"

	"studybuddy/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// GetMySessions handles GET /api/users/me/sessions.
func (h *Handler) GetMySessions(c *gin.Context) {
	views, err := h.Sessions.ListForUser(c.Request.Context(), auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetUser handles GET /api/users/:id and returns the public profile only.
func (h *Handler) GetUser(c *gin.Context) {
	id, err := idParam(c, "id", "User not found")
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.Storage.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Profile())
}
