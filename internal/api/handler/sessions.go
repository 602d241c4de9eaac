package handler

import (
	"net/http"

	"studybuddy/backend/internal/auth"
	"studybuddy/backend/internal/session"

	"github.com/gin-gonic/gin"
)

// CreateSession handles POST /api/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	var params session.CreateParams
	if err := bindJSON(c, &params); err != nil {
		respondError(c, err)
		return
	}

	view, err := h.Sessions.Create(c.Request.Context(), auth.UserID(c), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ListSessions handles GET /api/sessions.
func (h *Handler) ListSessions(c *gin.Context) {
	views, err := h.Sessions.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// GetSession handles GET /api/sessions/:id.
func (h *Handler) GetSession(c *gin.Context) {
	id, err := idParam(c, "id", "Session not found")
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.Sessions.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateSession handles PUT /api/sessions/:id. Only provided fields change.
func (h *Handler) UpdateSession(c *gin.Context) {
	id, err := idParam(c, "id", "Session not found")
	if err != nil {
		respondError(c, err)
		return
	}
	var params session.UpdateParams
	if err := bindJSON(c, &params); err != nil {
		respondError(c, err)
		return
	}

	view, err := h.Sessions.Update(c.Request.Context(), id, auth.UserID(c), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeleteSession handles DELETE /api/sessions/:id.
func (h *Handler) DeleteSession(c *gin.Context) {
	id, err := idParam(c, "id", "Session not found")
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Sessions.Delete(c.Request.Context(), id, auth.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// JoinSession handles POST /api/sessions/:id/join.
func (h *Handler) JoinSession(c *gin.Context) {
	id, err := idParam(c, "id", "Session not found")
	if err != nil {
		respondError(c, err)
		return
	}

	participants, err := h.Sessions.Join(c.Request.Context(), id, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined session", "participants": participants})
}

// LeaveSession handles POST /api/sessions/:id/leave. A creator leaving
// deletes the session.
func (h *Handler) LeaveSession(c *gin.Context) {
	id, err := idParam(c, "id", "Session not found")
	if err != nil {
		respondError(c, err)
		return
	}

	result, err := h.Sessions.Leave(c.Request.Context(), id, auth.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if result.Deleted {
		c.JSON(http.StatusOK, gin.H{"message": "Session deleted", "outcome": "deleted"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left session", "outcome": "left", "participants": result.Participants})
}

// GetSessionMessages handles GET /api/sessions/:id/messages.
func (h *Handler) GetSessionMessages(c *gin.Context) {
	id, err := idParam(c, "id", "Session not found")
	if err != nil {
		respondError(c, err)
		return
	}

	history, err := h.Hub.GetHistory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}
