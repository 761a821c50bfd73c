package models

import (
	"encoding/json"
	"time"
)

// AuditAction names an admin mutation recorded in the audit log.
type AuditAction string

const (
	AuditRemarksUpdated AuditAction = "donation.remarks_updated"
	AuditDonationEdited AuditAction = "donation.edited"
	AuditDonationDelete AuditAction = "donation.deleted"
	AuditReportExported AuditAction = "report.exported"
)

// AuditEntry is one row of admin_audit_log.
type AuditEntry struct {
	ID         int64           `db:"id" json:"id"`
	Action     AuditAction     `db:"action" json:"action"`
	DonationID *string         `db:"donation_id" json:"donationId,omitempty"`
	ActorEmail string          `db:"actor_email" json:"actorEmail"`
	ActorRole  string          `db:"actor_role" json:"actorRole"`
	Detail     json.RawMessage `db:"detail" json:"detail,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}
