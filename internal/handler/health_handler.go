package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_donate/internal/service"
	"github.com/GTDGit/gtd_donate/internal/session"
	"github.com/GTDGit/gtd_donate/internal/sse"
	"github.com/GTDGit/gtd_donate/internal/utils"
)

var startTime = time.Now()

// HealthHandler provides health endpoint.
type HealthHandler struct {
	sessions *session.Store
	hub      *sse.Hub
	audit    *service.AuditService
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(sessions *session.Store, hub *sse.Hub, audit *service.AuditService) *HealthHandler {
	return &HealthHandler{sessions: sessions, hub: hub, audit: audit}
}

// GetHealth responds with process level counters.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	utils.Success(c, 200, "Service is healthy", gin.H{
		"status":       "healthy",
		"uptime":       int(time.Since(startTime).Seconds()),
		"sessions":     h.sessions.Tracked(),
		"streams":      h.hub.TabCount(),
		"auditEnabled": h.audit.Enabled(),
	})
}
