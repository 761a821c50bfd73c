package utils

import "errors"

// Common portal errors used across services and handlers.
var (
	ErrDonationNotFound = errors.New("DONATION_NOT_FOUND")
	ErrNotConfirmed     = errors.New("DELETE_NOT_CONFIRMED")
	ErrTooManyAttempts  = errors.New("TOO_MANY_ATTEMPTS")
	ErrAuditDisabled    = errors.New("AUDIT_DISABLED")
)
