package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck pings one dependency.
type HealthCheck func(ctx context.Context) error

// Healthz handles GET /healthz.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	components := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			log.Printf("WARNING: Health check %s failed: %v", name, err)
			components[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		components[name] = "up"
	}

	stats := h.Hub.Stats()
	c.JSON(status, gin.H{
		"status":     http.StatusText(status),
		"components": components,
		"clients":    stats.Clients,
		"rooms":      stats.Rooms,
	})
}
