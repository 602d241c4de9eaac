package handler

import (
	"time"

	"studybuddy/backend/internal/auth"
	"studybuddy/backend/internal/config"
	"studybuddy/backend/internal/metrics"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(h *Handler, tokens *auth.TokenIssuer, corsCfg config.CORSConfig) *gin.Engine {
	corsConfig := cors.Config{
		AllowOrigins:     corsCfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(corsCfg.AllowedOrigins) == 0 {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	}

	r := gin.Default()
	r.Use(cors.New(corsConfig))
	r.Use(metrics.Middleware())

	h.RegisterRoutes(r, tokens)
	return r
}

// RegisterRoutes mounts the API under /api plus the WebSocket, health and
// metrics endpoints at the root.
func (h *Handler) RegisterRoutes(r *gin.Engine, tokens *auth.TokenIssuer) {
	requireAuth := auth.Required(tokens)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/ws", requireAuth, h.ServeWebSocket)

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.POST("/register", h.Register)
	authRoutes.POST("/login", h.Login)

	sessions := api.Group("/sessions")
	sessions.GET("", h.ListSessions)
	sessions.GET("/:id", h.GetSession)
	sessions.POST("", requireAuth, h.CreateSession)
	sessions.PUT("/:id", requireAuth, h.UpdateSession)
	sessions.DELETE("/:id", requireAuth, h.DeleteSession)
	sessions.POST("/:id/join", requireAuth, h.JoinSession)
	sessions.POST("/:id/leave", requireAuth, h.LeaveSession)
	sessions.GET("/:id/messages", requireAuth, h.GetSessionMessages)

	users := api.Group("/users", requireAuth)
	users.GET("/me/sessions", h.GetMySessions)
	users.GET("/:id", h.GetUser)
}
