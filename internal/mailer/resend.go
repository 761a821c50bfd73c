package mailer

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog/log"
)

// ResendSender delivers receipts through the Resend API. Request tags are
// forwarded so receipts can be filtered in the Resend dashboard.
type ResendSender struct {
	client   *resend.Client
	fromAddr string
}

// NewResendSender returns a sender using apiKey. from is used for requests
// that carry no sender of their own.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), fromAddr: from}
}

func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, s.email(req))
	if err != nil {
		return SendResult{}, fmt.Errorf("deliver %s via resend: %w", cmp.Or(req.Tags[TagCategory], "email"), err)
	}

	log.Info().
		Str("resend_id", sent.Id).
		Int("recipients", len(req.To)).
		Str("category", req.Tags[TagCategory]).
		Msg("Receipt delivered")
	return SendResult{MessageID: sent.Id, SentAt: time.Now().UTC()}, nil
}

func (s *ResendSender) email(req SendRequest) *resend.SendEmailRequest {
	email := &resend.SendEmailRequest{
		From:    cmp.Or(req.From, s.fromAddr),
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
	}
	for _, name := range slices.Sorted(maps.Keys(req.Tags)) {
		email.Tags = append(email.Tags, resend.Tag{Name: name, Value: req.Tags[name]})
	}
	return email
}
