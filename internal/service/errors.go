package service

import (
	"errors"
	"net/http"

	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

// Messages shown when the donation API fails without explaining why.
const (
	MsgDonateFailed = "Failed to process the donation. Please try again later."
	MsgSignInFailed = "Failed to sign in. Please try again."
	MsgSignUpFailed = "Failed to sign up. Please try again."
	MsgUpdateFailed = "Failed to update the donation. Please try again."
	MsgDeleteFailed = "Failed to delete the donation. Please try again."
)

// UserError is an error whose Message can be shown to the visitor.
type UserError struct {
	Message string
	Status  int
	Err     error
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *UserError) Unwrap() error { return e.Err }

// UserMessage returns the visitor facing message of err, or fallback.
func UserMessage(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) && ue.Message != "" {
		return ue.Message
	}
	return fallback
}

// apiFailure wraps a donation API error. The API's own message is preferred
// over fallback when surfaceAPIMessage is set.
func apiFailure(err error, fallback string, surfaceAPIMessage bool) *UserError {
	msg := fallback
	if surfaceAPIMessage {
		if m := donationapi.Message(err); m != "" {
			msg = m
		}
	}
	status := donationapi.StatusCode(err)
	if status == 0 || status >= 500 {
		status = http.StatusBadGateway
	}
	return &UserError{Message: msg, Status: status, Err: err}
}
