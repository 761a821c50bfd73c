package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/gtd_donate/internal/models"
)

// AuditRepository persists admin mutations to admin_audit_log.
type AuditRepository struct {
	db *sqlx.DB
}

func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Insert stores entry and fills its ID and CreatedAt.
func (r *AuditRepository) Insert(ctx context.Context, entry *models.AuditEntry) error {
	detail := entry.Detail
	if len(detail) == 0 {
		detail = json.RawMessage(`{}`)
	}
	query := `
		INSERT INTO admin_audit_log (action, donation_id, actor_email, actor_role, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		string(entry.Action), entry.DonationID, entry.ActorEmail, entry.ActorRole, []byte(detail),
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	entry.Detail = detail
	return nil
}

// ListRecent returns the newest entries first.
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries := []models.AuditEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT id, action, donation_id, actor_email, actor_role, detail, created_at
		FROM admin_audit_log
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	return entries, nil
}
