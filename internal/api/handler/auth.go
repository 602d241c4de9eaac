package handler

import (
	"net/http"

	"studybuddy/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

// Register handles POST /api/auth/register.
func (h *Handler) Register(c *gin.Context) {
	var params auth.RegisterParams
	if err := bindJSON(c, &params); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.Auth.Register(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var params auth.LoginParams
	if err := bindJSON(c, &params); err != nil {
		respondError(c, err)
		return
	}

	result, err := h.Auth.Login(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
