package models

import "time"

// Roles issued by the donation API.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// UserProfile is the signed-in user as returned by the donation API.
type UserProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is one signed-in browser: the bearer token issued by the donation
// API plus the profile that came with it.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	User      UserProfile `json:"user"`
	CreatedAt time.Time   `json:"createdAt"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

// Expired reports whether the session outlived its token.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
