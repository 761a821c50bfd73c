package web

import (
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/authguard"
	"github.com/GTDGit/gtd_donate/internal/models"
)

// NavItem is one navbar entry. Post items are rendered as forms.
type NavItem struct {
	Label string
	Href  string
	Post  bool
}

var (
	navHome   = NavItem{Label: "Home", Href: "/"}
	navLogout = NavItem{Label: "Logout", Href: "/auth/logout", Post: true}
)

// Navigation returns the navbar of a visitor holding token. An empty or
// undecodable token gets the anonymous navbar.
func Navigation(token string) []NavItem {
	if token == "" {
		return anonymousNav()
	}
	claims, err := authguard.Decode(token)
	if err != nil {
		log.Debug().Err(err).Msg("Navbar token not decodable")
		return anonymousNav()
	}
	if claims.Role == models.RoleAdmin {
		return []NavItem{
			navHome,
			{Label: "Dashboard", Href: "/admin/dashboard"},
			{Label: "Donation Report", Href: "/admin/report"},
			navLogout,
		}
	}
	return []NavItem{
		navHome,
		{Label: "Donate", Href: "/donate"},
		{Label: "My Donations", Href: "/user/report"},
		navLogout,
	}
}

func anonymousNav() []NavItem {
	return []NavItem{
		navHome,
		{Label: "Sign In", Href: "/auth/sign-in"},
		{Label: "Sign Up", Href: "/auth/sign-up"},
	}
}
