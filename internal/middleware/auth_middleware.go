package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/authguard"
	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/session"
	"github.com/GTDGit/gtd_donate/internal/utils"
)

// ContextSession is the gin context key of the request's session.
const ContextSession = "session"

// SessionCookie describes the browser cookie carrying the session id.
type SessionCookie struct {
	Name   string
	Secure bool
}

// Set writes the session cookie for sess.
func (sc SessionCookie) Set(c *gin.Context, sess *models.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, sess.ID, maxAge, "/", "", sc.Secure, true)
}

// Clear removes the session cookie.
func (sc SessionCookie) Clear(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sc.Name, "", -1, "/", "", sc.Secure, true)
}

// AuthMiddleware resolves the session cookie and guards pages by role.
type AuthMiddleware struct {
	store  *session.Store
	cookie SessionCookie
	clock  func() time.Time
}

func NewAuthMiddleware(store *session.Store, cookie SessionCookie) *AuthMiddleware {
	return &AuthMiddleware{store: store, cookie: cookie, clock: time.Now}
}

// WithClock replaces time.Now for token expiry checks.
func (m *AuthMiddleware) WithClock(now func() time.Time) *AuthMiddleware {
	m.clock = now
	return m
}

// Cookie returns the session cookie settings.
func (m *AuthMiddleware) Cookie() SessionCookie { return m.cookie }

// LoadSession attaches the session of the request's cookie, if any. It never
// aborts; a cookie naming an unknown session is cleared.
func (m *AuthMiddleware) LoadSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(m.cookie.Name)
		if err != nil || id == "" {
			c.Next()
			return
		}

		sess, err := m.store.Get(c.Request.Context(), id)
		if err != nil {
			if err != session.ErrSessionNotFound {
				log.Warn().Err(err).Msg("Failed to load session")
			}
			m.cookie.Clear(c)
			c.Next()
			return
		}

		c.Set(ContextSession, sess)
		c.Next()
	}
}

// Require admits only sessions whose token is unexpired and carries one of
// roles. Pages are redirected to sign-in or forbidden; JSON callers get 401
// or 403.
func (m *AuthMiddleware) Require(roles ...string) gin.HandlerFunc {
	guard := authguard.New(roles...).WithClock(m.clock)

	return func(c *gin.Context) {
		sess, _ := SessionFrom(c)
		token := ""
		if sess != nil {
			token = sess.Token
		}

		decision := guard.Evaluate(token)
		switch decision {
		case authguard.Allow:
			c.Next()
			return

		case authguard.RedirectSignIn:
			if sess != nil {
				// The token ran out before the session record did.
				if err := m.store.Expire(c.Request.Context(), sess.ID); err != nil {
					log.Warn().Err(err).Msg("Failed to expire session")
				}
				m.cookie.Clear(c)
			}
			if utils.WantsJSON(c) {
				utils.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
			} else {
				c.Redirect(http.StatusFound, decision.Target())
			}

		default:
			if utils.WantsJSON(c) {
				utils.Error(c, http.StatusForbidden, "FORBIDDEN", "You do not have access to this page")
			} else {
				c.Redirect(http.StatusFound, decision.Target())
			}
		}
		c.Abort()
	}
}

// SessionFrom returns the session attached by LoadSession.
func SessionFrom(c *gin.Context) (*models.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*models.Session)
	return sess, ok && sess != nil
}
