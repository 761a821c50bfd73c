// Package mailer sends donation receipts.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"time"
)

// The category tag names the kind of email.
const (
	TagCategory     = "category"
	CategoryReceipt = "donation_receipt"
)

// SendRequest is one outgoing email. Tag names and values may only hold
// ASCII letters, digits, underscores and dashes.
type SendRequest struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Tags    map[string]string
}

// SendResult identifies a delivered email.
type SendResult struct {
	MessageID string
	SentAt    time.Time
}

// Sender delivers email.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}

var receiptTmpl = template.Must(template.New("receipt").Parse(`<p>Dear {{.Name}},</p>
<p>Thank you for your donation of <strong>BDT {{.Amount}}</strong>.</p>
{{- if .Message}}
<p>Your message: <em>{{.Message}}</em></p>
{{- end}}
<p>GTD Donate</p>
`))

// Receipt builds the thank-you email of a donation. ok is false when the
// donor left no email address.
func Receipt(name, email string, amount float64, message string) (SendRequest, bool, error) {
	if email == "" {
		return SendRequest{}, false, nil
	}
	var buf bytes.Buffer
	err := receiptTmpl.Execute(&buf, struct {
		Name, Amount, Message string
	}{
		Name:    name,
		Amount:  strconv.FormatFloat(amount, 'f', 2, 64),
		Message: message,
	})
	if err != nil {
		return SendRequest{}, false, fmt.Errorf("render receipt: %w", err)
	}
	return SendRequest{
		To:      []string{email},
		Subject: "Thank you for your donation!",
		HTML:    buf.String(),
		Tags:    map[string]string{TagCategory: CategoryReceipt},
	}, true, nil
}
