package web

import (
	"html/template"

	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/report"
	"github.com/GTDGit/gtd_donate/internal/validation"
	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

// Page is the data every template receives.
type Page struct {
	Title     string
	Nav       []NavItem
	User      *models.UserProfile
	Flash     *Flash
	CSRFField template.HTML
	// Live marks pages that reload when donations change elsewhere.
	Live   string
	Form   any
	Errors validation.FieldErrors
	Data   any
}

// Column is a sortable report column.
type Column struct {
	Key   string
	Label string
}

// ReportColumns are the sortable columns of the report table.
var ReportColumns = []Column{
	{Key: "name", Label: "Name"},
	{Key: "email", Label: "Email"},
	{Key: "amount", Label: "Amount (BDT)"},
	{Key: "createdAt", Label: "Paid On"},
}

// ReportView is the data of report.html.
type ReportView struct {
	Variant    report.Variant
	Snapshot   report.Snapshot
	Columns    []Column
	PageSizes  []int
	TotalPages int
}

// NewReportView builds the report page data. An empty result still shows
// one page.
func NewReportView(v report.Variant, snap report.Snapshot) ReportView {
	return ReportView{
		Variant:    v,
		Snapshot:   snap,
		Columns:    ReportColumns,
		PageSizes:  report.PageSizes,
		TotalPages: max(snap.Page.TotalPages, 1),
	}
}

// DonationView is the data of the single donation pages.
type DonationView struct {
	Variant  report.Variant
	Donation donationapi.Donation
}

// AuditView is the data of audit.html.
type AuditView struct {
	Entries  []models.AuditEntry
	Disabled bool
}
