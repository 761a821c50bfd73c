package donationapi

import (
	"context"
	"net/http"
	"net/url"
)

// Scope selects which list endpoint a report reads from.
type Scope string

const (
	// ScopeAll lists every donation (admin).
	ScopeAll Scope = "/donations"
	// ScopeUser lists the donations of the token's owner.
	ScopeUser Scope = "/donations/user"
)

// ListDonations fetches one page of donations. query carries page, limit and
// the optional search, sortKey, sortDirection, from and to parameters.
func (c *Client) ListDonations(ctx context.Context, token string, scope Scope, query url.Values) (*ListResponse, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	var resp ListResponse
	if err := c.doRequest(ctx, http.MethodGet, string(scope), token, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetStats fetches the admin dashboard aggregates.
func (c *Client) GetStats(ctx context.Context, token string) (*Stats, error) {
	if token == "" {
		return nil, ErrMissingToken
	}
	var resp Stats
	if err := c.doRequest(ctx, http.MethodGet, "/donations/stats", token, nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateDonation submits a donation. token is optional: anonymous donors
// donate without one.
func (c *Client) CreateDonation(ctx context.Context, token string, req DonationRequest) error {
	return c.doRequest(ctx, http.MethodPost, "/donations", token, nil, req, nil)
}

// UpdateDonation sends the mutable subset of a donation. body is either a
// RemarksUpdate (admin) or a DonorUpdate (donor).
func (c *Client) UpdateDonation(ctx context.Context, token, id string, body any) error {
	if token == "" {
		return ErrMissingToken
	}
	return c.doRequest(ctx, http.MethodPut, "/donations/"+url.PathEscape(id), token, nil, body, nil)
}

// DeleteDonation removes a donation.
func (c *Client) DeleteDonation(ctx context.Context, token, id string) error {
	if token == "" {
		return ErrMissingToken
	}
	return c.doRequest(ctx, http.MethodDelete, "/donations/"+url.PathEscape(id), token, nil, nil, nil)
}

// SignIn exchanges credentials for a token and user profile.
func (c *Client) SignIn(ctx context.Context, req SignInRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/signin", "", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SignUp registers a new account and returns its token and profile.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.doRequest(ctx, http.MethodPost, "/auth/signup", "", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
