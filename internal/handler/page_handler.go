package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"

	"github.com/GTDGit/gtd_donate/internal/middleware"
	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/utils"
	"github.com/GTDGit/gtd_donate/internal/web"
)

// PageHandler builds the common page data and serves the static pages.
type PageHandler struct {
	flash *web.Flasher
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(flash *web.Flasher) *PageHandler {
	return &PageHandler{flash: flash}
}

// page returns the data shared by every page: navbar, signed-in user,
// pending flash and CSRF field.
func (h *PageHandler) page(c *gin.Context, title string) web.Page {
	p := web.Page{
		Title:     title,
		Flash:     h.flash.Pop(c),
		CSRFField: csrf.TemplateField(c.Request),
	}
	token := ""
	if sess, ok := middleware.SessionFrom(c); ok {
		token = sess.Token
		user := sess.User
		p.User = &user
	}
	p.Nav = web.Navigation(token)
	return p
}

// setFlash stores a flash for the page after the next redirect.
func (h *PageHandler) setFlash(c *gin.Context, kind, message string) {
	h.flash.Set(c, kind, message)
}

// Home handles GET /. Admins land on their dashboard instead.
func (h *PageHandler) Home(c *gin.Context) {
	if sess, ok := middleware.SessionFrom(c); ok && sess.User.Role == models.RoleAdmin {
		c.Redirect(http.StatusFound, "/admin/dashboard")
		return
	}
	c.HTML(http.StatusOK, "home.html", h.page(c, ""))
}

// Forbidden handles GET /forbidden.
func (h *PageHandler) Forbidden(c *gin.Context) {
	c.HTML(http.StatusForbidden, "forbidden.html", h.page(c, "Forbidden"))
}

// NotFound renders the 404 page for unknown routes.
func (h *PageHandler) NotFound(c *gin.Context) {
	if utils.WantsJSON(c) {
		utils.Error(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
		return
	}
	c.HTML(http.StatusNotFound, "notfound.html", h.page(c, "Not Found"))
}
