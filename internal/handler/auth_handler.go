package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/authguard"
	"github.com/GTDGit/gtd_donate/internal/middleware"
	"github.com/GTDGit/gtd_donate/internal/service"
	"github.com/GTDGit/gtd_donate/internal/validation"
	"github.com/GTDGit/gtd_donate/internal/web"
)

type AuthHandler struct {
	*PageHandler
	authService *service.AuthService
	limiter     *middleware.InvalidAuthRateLimiter
	cookie      middleware.SessionCookie
}

func NewAuthHandler(pages *PageHandler, authService *service.AuthService, limiter *middleware.InvalidAuthRateLimiter, cookie middleware.SessionCookie) *AuthHandler {
	return &AuthHandler{PageHandler: pages, authService: authService, limiter: limiter, cookie: cookie}
}

// redirectSignedIn sends visitors that already hold a live token to their
// landing page.
func (h *AuthHandler) redirectSignedIn(c *gin.Context) bool {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		return false
	}
	claims, err := authguard.Decode(sess.Token)
	if err != nil || !claims.Unexpired(time.Now()) {
		return false
	}
	c.Redirect(http.StatusFound, authguard.LandingPath(claims.Role))
	return true
}

// SignInPage handles GET /auth/sign-in.
func (h *AuthHandler) SignInPage(c *gin.Context) {
	if h.redirectSignedIn(c) {
		return
	}
	p := h.page(c, "Sign In")
	p.Form = validation.SignInForm{}
	c.HTML(http.StatusOK, "signin.html", p)
}

// SignIn handles POST /auth/sign-in.
func (h *AuthHandler) SignIn(c *gin.Context) {
	if h.redirectSignedIn(c) {
		return
	}

	var form validation.SignInForm
	_ = c.ShouldBind(&form)

	p := h.page(c, "Sign In")
	p.Form = validation.SignInForm{Email: form.Email}

	if err := validation.Validate(form); err != nil {
		p.Errors = fieldErrors(err)
		c.HTML(http.StatusUnprocessableEntity, "signin.html", p)
		return
	}

	sess, err := h.authService.SignIn(c.Request.Context(), form)
	if err != nil {
		h.limiter.Fail(c.ClientIP())
		p.Flash = &web.Flash{Kind: web.FlashError, Message: service.UserMessage(err, service.MsgSignInFailed)}
		c.HTML(userStatus(err), "signin.html", p)
		return
	}

	h.limiter.Reset(c.ClientIP())
	h.cookie.Set(c, sess)
	h.setFlash(c, web.FlashSuccess, "Signed in successfully!")
	c.Redirect(http.StatusSeeOther, authguard.LandingPath(sess.User.Role))
}

// SignUpPage handles GET /auth/sign-up.
func (h *AuthHandler) SignUpPage(c *gin.Context) {
	if h.redirectSignedIn(c) {
		return
	}
	p := h.page(c, "Sign Up")
	p.Form = validation.SignUpForm{}
	c.HTML(http.StatusOK, "signup.html", p)
}

// SignUp handles POST /auth/sign-up.
func (h *AuthHandler) SignUp(c *gin.Context) {
	if h.redirectSignedIn(c) {
		return
	}

	var form validation.SignUpForm
	_ = c.ShouldBind(&form)

	p := h.page(c, "Sign Up")
	p.Form = validation.SignUpForm{Name: form.Name, Email: form.Email}

	if err := validation.Validate(form); err != nil {
		p.Errors = fieldErrors(err)
		c.HTML(http.StatusUnprocessableEntity, "signup.html", p)
		return
	}

	sess, err := h.authService.SignUp(c.Request.Context(), form)
	if err != nil {
		p.Flash = &web.Flash{Kind: web.FlashError, Message: service.UserMessage(err, service.MsgSignUpFailed)}
		c.HTML(userStatus(err), "signup.html", p)
		return
	}

	h.cookie.Set(c, sess)
	h.setFlash(c, web.FlashSuccess, "Signed up successfully!")
	c.Redirect(http.StatusSeeOther, authguard.LandingPath(sess.User.Role))
}

// Logout handles POST /auth/logout. Every open tab of the session is told
// through the session events stream.
func (h *AuthHandler) Logout(c *gin.Context) {
	if sess, ok := middleware.SessionFrom(c); ok {
		if err := h.authService.Logout(c.Request.Context(), sess.ID); err != nil {
			log.Error().Err(err).Msg("Failed to end session")
		}
	}
	h.cookie.Clear(c)
	c.Redirect(http.StatusSeeOther, "/")
}

// fieldErrors extracts the per-field messages of a validation error.
func fieldErrors(err error) validation.FieldErrors {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return validation.FieldErrors{"form": err.Error()}
}

// userStatus is the HTTP status of a failed submission.
func userStatus(err error) int {
	var ue *service.UserError
	if errors.As(err, &ue) && ue.Status != 0 {
		return ue.Status
	}
	return http.StatusInternalServerError
}
