package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/middleware"
	"github.com/GTDGit/gtd_donate/internal/service"
	"github.com/GTDGit/gtd_donate/internal/utils"
	"github.com/GTDGit/gtd_donate/internal/web"
)

const auditPageSize = 100

// AdminHandler serves the admin dashboard and audit log.
type AdminHandler struct {
	*PageHandler
	donations *service.DonationService
	audit     *service.AuditService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(pages *PageHandler, donations *service.DonationService, audit *service.AuditService) *AdminHandler {
	return &AdminHandler{PageHandler: pages, donations: donations, audit: audit}
}

// Dashboard handles GET /admin/dashboard. Stats that cannot be fetched
// show as zero.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	sess, _ := middleware.SessionFrom(c)
	stats := h.donations.Stats(c.Request.Context(), sess.Token)

	if utils.WantsJSON(c) {
		utils.Success(c, http.StatusOK, "Stats retrieved", stats)
		return
	}
	p := h.page(c, "Dashboard")
	p.Data = stats
	c.HTML(http.StatusOK, "dashboard.html", p)
}

// Audit handles GET /admin/audit.
func (h *AdminHandler) Audit(c *gin.Context) {
	entries, err := h.audit.Recent(c.Request.Context(), auditPageSize)
	view := web.AuditView{Entries: entries}
	status := http.StatusOK

	switch {
	case errors.Is(err, utils.ErrAuditDisabled):
		view.Disabled = true
	case err != nil:
		log.Error().Err(err).Msg("Failed to list audit entries")
		if utils.WantsJSON(c) {
			utils.Error(c, http.StatusInternalServerError, "AUDIT_UNAVAILABLE", "Failed to load the audit log")
			return
		}
		status = http.StatusInternalServerError
	}

	if utils.WantsJSON(c) {
		utils.Success(c, http.StatusOK, "Audit entries retrieved", gin.H{
			"enabled": !view.Disabled,
			"entries": view.Entries,
		})
		return
	}

	p := h.page(c, "Audit Log")
	if status != http.StatusOK {
		p.Flash = &web.Flash{Kind: web.FlashError, Message: "Failed to load the audit log."}
	}
	p.Data = view
	c.HTML(status, "audit.html", p)
}
