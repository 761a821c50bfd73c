// Package authguard decides whether a session token may open a role-gated
// page. Tokens are decoded without signature verification: the portal does
// not hold the issuer's key, the donation API verifies every call it serves.
package authguard

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/models"
)

// Redirect targets of a denied request.
const (
	SignInPath    = "/auth/sign-in"
	ForbiddenPath = "/forbidden"
)

// ErrEmptyToken is returned by Decode for an empty token.
var ErrEmptyToken = errors.New("empty token")

// Claims is the decoded payload of a donation API token.
type Claims struct {
	Role  string `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses the token payload without verifying its signature.
func Decode(token string) (*Claims, error) {
	if token == "" {
		return nil, ErrEmptyToken
	}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	return claims, nil
}

// Unexpired reports whether claims carry an exp that is still in the future.
// A token without exp never counts as authenticated.
func (c *Claims) Unexpired(now time.Time) bool {
	if c == nil || c.ExpiresAt == nil {
		return false
	}
	return c.ExpiresAt.Time.UnixMilli() > now.UnixMilli()
}

// Decision is the outcome of evaluating a token against a guard.
type Decision int

const (
	Allow Decision = iota
	RedirectSignIn
	RedirectForbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectSignIn:
		return "redirect_sign_in"
	case RedirectForbidden:
		return "redirect_forbidden"
	}
	return fmt.Sprintf("decision(%d)", int(d))
}

// Target returns the redirect path of a denying decision, or "".
func (d Decision) Target() string {
	switch d {
	case RedirectSignIn:
		return SignInPath
	case RedirectForbidden:
		return ForbiddenPath
	}
	return ""
}

// Guard restricts access to a set of roles.
type Guard struct {
	roles []string
	now   func() time.Time
}

// New returns a guard admitting the given roles. A guard with no roles
// admits nobody.
func New(roles ...string) *Guard {
	return &Guard{roles: slices.Clone(roles), now: time.Now}
}

// WithClock returns a copy of the guard that reads time from now.
func (g *Guard) WithClock(now func() time.Time) *Guard {
	return &Guard{roles: g.roles, now: now}
}

// Evaluate decides what to do with a request carrying token.
func (g *Guard) Evaluate(token string) Decision {
	d, _ := g.Check(token)
	return d
}

// Check is Evaluate that also returns the decoded claims when the token
// could be decoded.
func (g *Guard) Check(token string) (Decision, *Claims) {
	claims, err := Decode(token)
	if err != nil {
		if token != "" {
			log.Debug().Err(err).Msg("Rejecting malformed session token")
		}
		return RedirectSignIn, nil
	}
	if !claims.Unexpired(g.now()) {
		return RedirectSignIn, claims
	}
	if !slices.Contains(g.roles, claims.Role) {
		return RedirectForbidden, claims
	}
	return Allow, claims
}

// LandingPath is where a freshly signed-in user is sent.
func LandingPath(role string) string {
	if role == models.RoleAdmin {
		return "/admin/report"
	}
	return "/donate"
}
