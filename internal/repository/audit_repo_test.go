package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/gtd_donate/internal/models"
)

func newAuditRepoWithMock(t *testing.T) (*AuditRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewAuditRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestAuditInsert_FillsIDAndDefaultsDetail(t *testing.T) {
	repo, mock := newAuditRepoWithMock(t)

	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+admin_audit_log\s*\(action,\s*donation_id,\s*actor_email,\s*actor_role,\s*detail\)`).
		WithArgs("donation.deleted", "d-1", "admin@x.com", "admin", []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), created))

	id := "d-1"
	entry := &models.AuditEntry{
		Action:     models.AuditDonationDelete,
		DonationID: &id,
		ActorEmail: "admin@x.com",
		ActorRole:  models.RoleAdmin,
	}
	require.NoError(t, repo.Insert(context.Background(), entry))

	assert.Equal(t, int64(7), entry.ID)
	assert.Equal(t, created, entry.CreatedAt)
	assert.JSONEq(t, `{}`, string(entry.Detail))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditInsert_WrapsDBError(t *testing.T) {
	repo, mock := newAuditRepoWithMock(t)

	mock.ExpectQuery(`INSERT\s+INTO\s+admin_audit_log`).
		WillReturnError(errors.New("db down"))

	err := repo.Insert(context.Background(), &models.AuditEntry{
		Action:     models.AuditReportExported,
		ActorEmail: "admin@x.com",
		ActorRole:  models.RoleAdmin,
		Detail:     json.RawMessage(`{"rows":3}`),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert audit entry: db down")
}

func TestAuditListRecent(t *testing.T) {
	repo, mock := newAuditRepoWithMock(t)

	at := time.Date(2024, 3, 2, 8, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "action", "donation_id", "actor_email", "actor_role", "detail", "created_at"}).
		AddRow(int64(2), "donation.remarks_updated", "d-9", "admin@x.com", "admin", []byte(`{"adminRemarks":"ok"}`), at).
		AddRow(int64(1), "report.exported", nil, "admin@x.com", "admin", []byte(`{}`), at.Add(-time.Hour))
	mock.ExpectQuery(`(?s)SELECT\s+id,\s*action.*FROM\s+admin_audit_log.*LIMIT\s+\$1`).
		WithArgs(100).
		WillReturnRows(rows)

	entries, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, models.AuditRemarksUpdated, entries[0].Action)
	require.NotNil(t, entries[0].DonationID)
	assert.Equal(t, "d-9", *entries[0].DonationID)
	assert.JSONEq(t, `{"adminRemarks":"ok"}`, string(entries[0].Detail))
	assert.Nil(t, entries[1].DonationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
