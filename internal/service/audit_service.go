package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/utils"
)

// AuditStore persists audit entries.
type AuditStore interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
	ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error)
}

// AuditService records admin mutations. Without a store it only logs them.
type AuditService struct {
	store AuditStore
}

// NewAuditService constructs an AuditService. store may be nil.
func NewAuditService(store AuditStore) *AuditService {
	return &AuditService{store: store}
}

// Enabled reports whether entries are persisted.
func (s *AuditService) Enabled() bool { return s != nil && s.store != nil }

// Record stores an audit entry. Failures are logged and never returned: a
// mutation that already reached the API must not be reported as failed.
func (s *AuditService) Record(ctx context.Context, sess *models.Session, action models.AuditAction, donationID string, detail any) {
	if sess == nil {
		return
	}
	entry := &models.AuditEntry{
		Action:     action,
		ActorEmail: sess.User.Email,
		ActorRole:  sess.User.Role,
	}
	if donationID != "" {
		entry.DonationID = &donationID
	}
	if detail != nil {
		raw, err := json.Marshal(detail)
		if err != nil {
			log.Warn().Err(err).Str("action", string(action)).Msg("Failed to encode audit detail")
		} else {
			entry.Detail = raw
		}
	}

	ev := log.Info().Str("action", string(action)).Str("actor_role", entry.ActorRole)
	if donationID != "" {
		ev = ev.Str("donation_id", donationID)
	}
	ev.Msg("Admin action")

	if !s.Enabled() {
		return
	}
	if err := s.store.Insert(ctx, entry); err != nil {
		log.Error().Err(err).Str("action", string(action)).Msg("Failed to write audit entry")
	}
}

// Recent returns the newest audit entries.
func (s *AuditService) Recent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if !s.Enabled() {
		return nil, utils.ErrAuditDisabled
	}
	return s.store.ListRecent(ctx, limit)
}
