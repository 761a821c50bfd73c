package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/GTDGit/gtd_donate/internal/middleware"
	"github.com/GTDGit/gtd_donate/internal/models"
)

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Pages       *PageHandler
	Health      *HealthHandler
	Auth        *AuthHandler
	Donate      *DonateHandler
	AdminReport *ReportHandler
	UserReport  *ReportHandler
	Admin       *AdminHandler
	SSE         *SSEHandler
}

// RegisterRoutes registers all routes. The session cookie is resolved for
// every request; report and admin pages additionally require a role.
func RegisterRoutes(router *gin.Engine, h *Handlers, authMw *middleware.AuthMiddleware, limiter *middleware.InvalidAuthRateLimiter) {
	router.GET("/healthz", h.Health.GetHealth)

	site := router.Group("/")
	site.Use(authMw.LoadSession())
	{
		site.GET("/", h.Pages.Home)
		site.GET("/forbidden", h.Pages.Forbidden)
		site.GET("/donate", h.Donate.Show)
		site.POST("/donate", h.Donate.Submit)
		site.GET("/session/events", h.SSE.Stream)
	}

	auth := site.Group("/auth")
	{
		auth.GET("/sign-in", h.Auth.SignInPage)
		auth.POST("/sign-in", limiter.Guard(), h.Auth.SignIn)
		auth.GET("/sign-up", h.Auth.SignUpPage)
		auth.POST("/sign-up", h.Auth.SignUp)
		auth.POST("/logout", h.Auth.Logout)
	}

	registerReport(site, authMw, h.UserReport)
	registerReport(site, authMw, h.AdminReport)

	admin := site.Group("/admin")
	admin.Use(authMw.Require(models.RoleAdmin))
	{
		admin.GET("/dashboard", h.Admin.Dashboard)
		admin.GET("/audit", h.Admin.Audit)
	}

	router.NoRoute(authMw.LoadSession(), h.Pages.NotFound)
}

// registerReport mounts a report variant under its base path, gated by the
// variant's roles. Only the admin variant deletes.
func registerReport(site *gin.RouterGroup, authMw *middleware.AuthMiddleware, h *ReportHandler) {
	g := site.Group(h.variant.BasePath)
	g.Use(authMw.Require(h.variant.Roles...))

	g.GET("", h.View)
	g.GET("/export.csv", h.Export)
	g.GET("/donations/:id", h.Show)
	g.GET("/donations/:id/edit", h.EditPage)
	g.POST("/donations/:id/edit", h.Edit)
	if h.variant.IsAdmin() {
		g.GET("/donations/:id/delete", h.DeletePage)
		g.POST("/donations/:id/delete", h.Delete)
	}
}
