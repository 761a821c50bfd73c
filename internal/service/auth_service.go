package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/session"
	"github.com/GTDGit/gtd_donate/internal/validation"
	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

// AuthAPI is the part of the donation API that issues tokens.
type AuthAPI interface {
	SignIn(ctx context.Context, req donationapi.SignInRequest) (*donationapi.AuthResponse, error)
	SignUp(ctx context.Context, req donationapi.SignUpRequest) (*donationapi.AuthResponse, error)
}

// AuthService exchanges credentials for a session.
type AuthService struct {
	api      AuthAPI
	sessions *session.Store
}

// NewAuthService constructs a new AuthService.
func NewAuthService(api AuthAPI, sessions *session.Store) *AuthService {
	return &AuthService{api: api, sessions: sessions}
}

// SignIn authenticates against the donation API and opens a session.
func (s *AuthService) SignIn(ctx context.Context, form validation.SignInForm) (*models.Session, error) {
	resp, err := s.api.SignIn(ctx, donationapi.SignInRequest{Email: form.Email, Password: form.Password})
	if err != nil {
		log.Warn().Err(err).Msg("Sign-in rejected")
		return nil, apiFailure(err, MsgSignInFailed, true)
	}
	return s.open(ctx, resp, MsgSignInFailed)
}

// SignUp registers an account and opens a session for it.
func (s *AuthService) SignUp(ctx context.Context, form validation.SignUpForm) (*models.Session, error) {
	resp, err := s.api.SignUp(ctx, donationapi.SignUpRequest{
		Name:            form.Name,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Sign-up rejected")
		return nil, apiFailure(err, MsgSignUpFailed, true)
	}
	return s.open(ctx, resp, MsgSignUpFailed)
}

// Logout ends the session; every tab of it is notified.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, sessionID)
	if err != nil && !errors.Is(err, session.ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) open(ctx context.Context, resp *donationapi.AuthResponse, fallback string) (*models.Session, error) {
	if resp == nil || resp.Token == "" {
		return nil, &UserError{Message: fallback, Status: http.StatusBadGateway, Err: errors.New("donation api returned no token")}
	}
	user := models.UserProfile{
		ID:    resp.User.ID,
		Name:  resp.User.Name,
		Email: resp.User.Email,
		Role:  resp.User.Role,
	}
	sess, err := s.sessions.Create(ctx, resp.Token, user)
	if err != nil {
		return nil, &UserError{Message: fallback, Status: http.StatusInternalServerError, Err: err}
	}
	log.Info().Str("role", sess.User.Role).Msg("Session opened")
	return sess, nil
}
