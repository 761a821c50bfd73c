package mailer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// NoopSender stands in when no Resend API key is configured. Receipts are
// logged and dropped.
type NoopSender struct{}

func NewNoopSender() *NoopSender {
	return &NoopSender{}
}

func (NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	log.Info().
		Int("recipients", len(req.To)).
		Str("category", req.Tags[TagCategory]).
		Msg("Mail disabled, receipt dropped")
	return SendResult{MessageID: "noop-" + uuid.NewString(), SentAt: time.Now().UTC()}, nil
}
