package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/export"
	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

// ExportArchiver stores a copy of an export.
type ExportArchiver interface {
	ArchiveExport(ctx context.Context, data []byte) (string, error)
}

// ExportService renders report pages as CSV.
type ExportService struct {
	archiver ExportArchiver
	audit    *AuditService
}

// NewExportService constructs an ExportService. archiver may be nil.
func NewExportService(archiver ExportArchiver, audit *AuditService) *ExportService {
	return &ExportService{archiver: archiver, audit: audit}
}

// Export encodes rows. Admin exports are archived and audited; archive
// failures are logged and never fail the download.
func (s *ExportService) Export(ctx context.Context, sess *models.Session, rows []donationapi.Donation, admin bool) ([]byte, error) {
	data, err := export.Encode(rows, admin)
	if err != nil {
		return nil, err
	}
	if !admin {
		return data, nil
	}

	detail := map[string]any{"rows": len(rows)}
	if s.archiver != nil {
		key, err := s.archiver.ArchiveExport(ctx, data)
		if err != nil {
			log.Error().Err(err).Msg("Failed to archive export")
		} else {
			detail["archiveKey"] = key
		}
	}
	s.audit.Record(ctx, sess, models.AuditReportExported, "", detail)
	return data, nil
}
