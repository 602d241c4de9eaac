// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Membership actions.
const (
	ActionJoin   = "join"
	ActionLeave  = "leave"
	ActionDelete = "delete"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studybuddy_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Session metrics
	MembershipChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studybuddy_membership_changes_total",
			Help: "Committed session membership changes by action",
		},
		[]string{"action"},
	)

	// Chat metrics
	MessagesPosted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studybuddy_chat_messages_total",
			Help: "Total number of persisted chat messages",
		},
	)

	ConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studybuddy_ws_connected_clients",
			Help: "Number of registered WebSocket connections",
		},
	)

	ActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "studybuddy_chat_active_rooms",
			Help: "Number of session rooms with at least one connection",
		},
	)

	DroppedClients = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studybuddy_ws_dropped_clients_total",
			Help: "Connections dropped because their send buffer was full",
		},
	)

	RejectedRoomJoins = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studybuddy_chat_rejected_joins_total",
			Help: "Room join requests refused by the participation check",
		},
	)

	// Housekeeping
	PrunedLocks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "studybuddy_session_locks_pruned_total",
			Help: "Idle per-session locks released by housekeeping",
		},
	)
)

// Middleware records request count and latency per route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route pattern keeps label cardinality bounded.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
