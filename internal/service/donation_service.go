package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_donate/internal/mailer"
	"github.com/GTDGit/gtd_donate/internal/models"
	"github.com/GTDGit/gtd_donate/internal/sse"
	"github.com/GTDGit/gtd_donate/internal/validation"
	"github.com/GTDGit/gtd_donate/pkg/donationapi"
)

// DonationAPI is the part of the donation API that changes donations.
type DonationAPI interface {
	CreateDonation(ctx context.Context, token string, req donationapi.DonationRequest) error
	UpdateDonation(ctx context.Context, token, id string, body any) error
	DeleteDonation(ctx context.Context, token, id string) error
	GetStats(ctx context.Context, token string) (*donationapi.Stats, error)
}

// DonationService submits, edits and deletes donations.
type DonationService struct {
	api      DonationAPI
	audit    *AuditService
	sender   mailer.Sender
	notifier sse.DonationNotifier
}

// NewDonationService constructs a DonationService. sender may be nil to skip
// receipts.
func NewDonationService(api DonationAPI, audit *AuditService, sender mailer.Sender, notifier sse.DonationNotifier) *DonationService {
	if notifier == nil {
		notifier = &sse.NopNotifier{}
	}
	return &DonationService{api: api, audit: audit, sender: sender, notifier: notifier}
}

// Donate submits a validated donation form. token is empty for anonymous
// donors. The form values are sent as typed.
func (s *DonationService) Donate(ctx context.Context, token string, form validation.DonateForm) error {
	err := s.api.CreateDonation(ctx, token, donationapi.DonationRequest{
		Name:    form.Name,
		Email:   form.Email,
		Amount:  form.Amount,
		Message: form.Message,
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create donation")
		return apiFailure(err, MsgDonateFailed, false)
	}

	s.notifier.NotifyDonationsChanged("", "created")
	s.sendReceipt(ctx, form)
	return nil
}

func (s *DonationService) sendReceipt(ctx context.Context, form validation.DonateForm) {
	if s.sender == nil {
		return
	}
	amount, _ := validation.ParseAmount(form.Amount)
	req, ok, err := mailer.Receipt(form.Name, form.Email, amount, form.Message)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build donation receipt")
		return
	}
	if !ok {
		return
	}

	// The donation is already stored; a slow mail provider must not hold
	// the response for long.
	mailCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if _, err := s.sender.Send(mailCtx, req); err != nil {
		log.Error().Err(err).Msg("Failed to send donation receipt")
	}
}

// UpdateRemarks sets the admin remarks of a donation.
func (s *DonationService) UpdateRemarks(ctx context.Context, sess *models.Session, id string, form validation.RemarksForm) error {
	body := donationapi.RemarksUpdate{AdminRemarks: form.AdminRemarks}
	if err := s.api.UpdateDonation(ctx, sess.Token, id, body); err != nil {
		log.Error().Err(err).Str("donation_id", id).Msg("Failed to update remarks")
		return apiFailure(err, MsgUpdateFailed, true)
	}
	s.audit.Record(ctx, sess, models.AuditRemarksUpdated, id, body)
	s.notifier.NotifyDonationsChanged(id, "updated")
	return nil
}

// UpdateDonor edits the donor facing fields of a donation.
func (s *DonationService) UpdateDonor(ctx context.Context, sess *models.Session, id string, form validation.DonorEditForm) error {
	body := donationapi.DonorUpdate{Name: form.Name, Email: form.Email, Message: form.Message}
	if err := s.api.UpdateDonation(ctx, sess.Token, id, body); err != nil {
		log.Error().Err(err).Str("donation_id", id).Msg("Failed to update donation")
		return apiFailure(err, MsgUpdateFailed, true)
	}
	if sess.User.Role == models.RoleAdmin {
		s.audit.Record(ctx, sess, models.AuditDonationEdited, id, body)
	}
	s.notifier.NotifyDonationsChanged(id, "updated")
	return nil
}

// Delete removes a donation.
func (s *DonationService) Delete(ctx context.Context, sess *models.Session, id string) error {
	if err := s.api.DeleteDonation(ctx, sess.Token, id); err != nil {
		log.Error().Err(err).Str("donation_id", id).Msg("Failed to delete donation")
		return apiFailure(err, MsgDeleteFailed, true)
	}
	s.audit.Record(ctx, sess, models.AuditDonationDelete, id, nil)
	s.notifier.NotifyDonationsChanged(id, "deleted")
	return nil
}

// Stats returns the dashboard aggregates. Failures are logged and yield
// zero stats.
func (s *DonationService) Stats(ctx context.Context, token string) models.DashboardStats {
	st, err := s.api.GetStats(ctx, token)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch donation stats")
		return models.DashboardStats{}
	}
	return models.DashboardStats{
		TodayDonation: st.TodayDonation.Float64(),
		TotalDonation: st.TotalDonation.Float64(),
		TotalUsers:    st.TotalUsers,
		TodayUsers:    st.TodayUsers,
	}
}
