// Package export renders a loaded report page as CSV.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

const (
	// Placeholder stands in for an empty message or remark.
	Placeholder = "—"
	Filename    = "donation_report.csv"
	ContentType = "text/csv; charset=utf-8"

	paidOnLayout = "2006-01-02 15:04"
)

// Header returns the column names. The admin report adds Admin Remarks.
func Header(admin bool) []string {
	h := []string{"#", "Name", "Email", "Amount (BDT)", "Message", "Paid On"}
	if admin {
		h = append(h, "Admin Remarks")
	}
	return h
}

// Write encodes rows as CSV with a header line. Fields with separators,
// quotes or newlines are quoted.
func Write(w io.Writer, rows []donationapi.Donation, admin bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(admin)); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, d := range rows {
		record := []string{
			strconv.Itoa(i + 1),
			d.Name,
			d.Email,
			strconv.FormatFloat(d.Amount.Float64(), 'f', 2, 64),
			orPlaceholder(d.Message),
			paidOn(d),
		}
		if admin {
			record = append(record, orPlaceholder(d.AdminRemarks))
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Encode returns the CSV of rows.
func Encode(rows []donationapi.Donation, admin bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, rows, admin); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

func paidOn(d donationapi.Donation) string {
	if d.CreatedAt.IsZero() {
		return Placeholder
	}
	return d.CreatedAt.Format(paidOnLayout)
}
