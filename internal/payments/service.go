package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/internal/donors"
	"github.com/troupekit/troupe-backend/internal/mailer"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/metrics"
	"github.com/troupekit/troupe-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ReceiptSender delivers donor thank-you email. Sends are fire-and-forget;
// a nil sender disables them.
type ReceiptSender interface {
	SendDonationReceipt(ctx context.Context, receipt mailer.DonationReceipt)
}

// Service is the payment-confirmation sink. Per external reference the
// state machine is UNSEEN then RECORDED, nothing else: a replayed delivery
// is a silent no-op and never a double credit.
type Service interface {
	ProcessConfirmation(ctx context.Context, input ConfirmationInput) (*Outcome, error)
	RecordManualDonation(ctx context.Context, input ManualDonationInput) (*Outcome, error)
}

type service struct {
	repo    Repository
	donors  donors.Repository
	tx      txRunner
	logg    *logger.Logger
	metrics *metrics.PaymentMetrics
	mail    ReceiptSender
	now     func() time.Time
}

// NewService wires the payments service.
func NewService(repo Repository, donorsRepo donors.Repository, tx txRunner, logg *logger.Logger, pm *metrics.PaymentMetrics, mail ReceiptSender) Service {
	return &service{repo: repo, donors: donorsRepo, tx: tx, logg: logg, metrics: pm, mail: mail, now: time.Now}
}

// ProcessConfirmation applies one delivery of a confirmation event. The
// donation insert, the participant credit and the donor recompute share one
// transaction; a replay is detected by the insert-or-ignore and leaves no
// trace. Unresolvable metadata yields a reconciliation warning the caller
// must acknowledge rather than retry: the channel is at-least-once, and a
// poisoned event must not block the deliveries behind it.
func (s *service) ProcessConfirmation(ctx context.Context, input ConfirmationInput) (*Outcome, error) {
	ctx = s.logg.WithPaymentRef(ctx, input.ExternalRef)

	if warn := s.validateMetadata(input); warn != nil {
		s.metrics.IncReconciliationWarning()
		s.logg.Warn(ctx, fmt.Sprintf("confirmation needs manual reconciliation: %s", warn.Message()))
		return nil, warn
	}

	var outcome Outcome
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		donorsRepo := s.donors.WithTx(tx)

		participant, err := repo.FindParticipant(ctx, *input.ParticipantID)
		if err != nil {
			if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeReconciliation, err, "confirmation references unknown participant")
			}
			return err
		}
		if *input.CampaignID != participant.CampaignID {
			return pkgerrors.New(pkgerrors.CodeReconciliation, "confirmation participant belongs to another campaign")
		}

		var donor *models.Donor
		if email := donorEmail(input); email != "" {
			// donors need an ensemble; campaigns without one (e.g.
			// director-personal drives) skip donor tracking
			if ensembleID := s.donorEnsemble(ctx, repo, participant); ensembleID != uuid.Nil {
				donor, _, err = donors.FindOrCreate(ctx, donorsRepo, donors.Identity{
					EnsembleID: ensembleID,
					Email:      email,
					FirstName:  firstNameOf(input.DonorName),
					LastName:   lastNameOf(input.DonorName),
				})
				if err != nil {
					return err
				}
			}
		}

		donation := &models.Donation{
			CampaignID:         *input.CampaignID,
			ParticipantID:      input.ParticipantID,
			StudentID:          input.StudentID,
			ExternalPaymentRef: input.ExternalRef,
			AmountCents:        input.AmountCents,
			Currency:           currencyOr(input.Currency),
			DonorName:          input.DonorName,
			DonorEmail:         input.DonorEmail,
			IsAnonymous:        input.IsAnonymous,
			Message:            input.Message,
		}
		if donor != nil {
			donation.DonorID = &donor.ID
		}

		inserted, err := repo.InsertIgnoreDonation(ctx, donation)
		if err != nil {
			return err
		}
		if !inserted {
			existing, findErr := repo.FindDonationByRef(ctx, input.ExternalRef)
			if findErr != nil {
				return findErr
			}
			outcome = Outcome{Donation: existing, Duplicate: true}
			return nil
		}

		if err := repo.CreditParticipant(ctx, participant.ID, input.AmountCents, s.now()); err != nil {
			return err
		}

		if donor != nil {
			if _, err := donors.Recompute(ctx, donorsRepo, donor.ID, s.now()); err != nil {
				return err
			}
			activity := &models.DonorActivity{
				EnsembleID: donor.EnsembleID,
				DonorID:    donor.ID,
				Type:       enums.DonorActivityDonation,
				Summary:    fmt.Sprintf("Donated %d cents", input.AmountCents),
				Details: types.JSONMap{
					"donation_id":  donation.ID.String(),
					"amount_cents": input.AmountCents,
					"campaign_id":  donation.CampaignID.String(),
				},
				RelatedID: &donation.ID,
			}
			if err := donorsRepo.CreateActivity(ctx, activity); err != nil {
				return err
			}
		}

		outcome = Outcome{Donation: donation, Applied: true}
		return nil
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeReconciliation) {
			s.metrics.IncReconciliationWarning()
			s.logg.Warn(ctx, "confirmation needs manual reconciliation")
			return nil, err
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "process confirmation")
	}

	if outcome.Duplicate {
		s.metrics.IncDuplicate()
		s.logg.Info(ctx, "duplicate confirmation ignored")
	} else {
		s.metrics.IncApplied()
		s.logg.Info(ctx, "confirmation applied")
		s.sendReceipt(ctx, input)
	}
	return &outcome, nil
}

func (s *service) sendReceipt(ctx context.Context, input ConfirmationInput) {
	if s.mail == nil || input.IsAnonymous {
		return
	}
	email := donorEmail(input)
	if email == "" {
		return
	}
	campaignName := "your campaign"
	if campaign, err := s.repo.FindCampaign(ctx, *input.CampaignID); err == nil {
		campaignName = campaign.Name
	}
	name := "Friend"
	if input.DonorName != nil && *input.DonorName != "" {
		name = *input.DonorName
	}
	s.mail.SendDonationReceipt(ctx, mailer.DonationReceipt{
		DonorName:    name,
		DonorEmail:   email,
		CampaignName: campaignName,
		AmountCents:  input.AmountCents,
	})
}

// RecordManualDonation pushes an offline gift through the confirmation sink
// under a synthetic reference, so manual entries obey the same invariants
// as processor events. Unlike the asynchronous path, bad input here is the
// director's typo and fails loudly as a validation error.
func (s *service) RecordManualDonation(ctx context.Context, input ManualDonationInput) (*Outcome, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "donation amount must be positive")
	}
	if _, err := s.repo.FindCampaign(ctx, input.CampaignID); err != nil {
		return nil, err
	}
	if input.ParticipantID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "participant is required for manual donations")
	}
	participant, err := s.repo.FindParticipant(ctx, *input.ParticipantID)
	if err != nil {
		return nil, err
	}
	if participant.CampaignID != input.CampaignID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "participant belongs to another campaign")
	}

	campaignID := input.CampaignID
	outcome, err := s.ProcessConfirmation(ctx, ConfirmationInput{
		ExternalRef:   "manual-" + uuid.NewString(),
		CampaignID:    &campaignID,
		ParticipantID: input.ParticipantID,
		StudentID:     &participant.StudentID,
		AmountCents:   input.AmountCents,
		DonorName:     input.DonorName,
		DonorEmail:    input.DonorEmail,
		IsAnonymous:   input.IsAnonymous,
		Message:       input.Message,
	})
	if err != nil && pkgerrors.IsCode(err, pkgerrors.CodeReconciliation) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "manual donation metadata is invalid")
	}
	return outcome, err
}

// validateMetadata decides whether the event can be credited at all.
func (s *service) validateMetadata(input ConfirmationInput) *pkgerrors.Error {
	switch {
	case strings.TrimSpace(input.ExternalRef) == "":
		return pkgerrors.New(pkgerrors.CodeReconciliation, "confirmation has no payment reference")
	case input.CampaignID == nil:
		return pkgerrors.New(pkgerrors.CodeReconciliation, "confirmation has no campaign")
	case input.ParticipantID == nil:
		return pkgerrors.New(pkgerrors.CodeReconciliation, "confirmation has no participant")
	case input.AmountCents <= 0:
		return pkgerrors.New(pkgerrors.CodeReconciliation, "confirmation amount is not positive")
	}
	return nil
}

// donorEnsemble resolves which ensemble the donor identity belongs to. The
// campaign carries the ensemble; participants only point at the campaign.
func (s *service) donorEnsemble(ctx context.Context, repo Repository, participant *models.CampaignParticipant) uuid.UUID {
	campaign, err := repo.FindCampaign(ctx, participant.CampaignID)
	if err != nil || campaign.EnsembleID == nil {
		return uuid.Nil
	}
	return *campaign.EnsembleID
}

func donorEmail(input ConfirmationInput) string {
	if input.IsAnonymous || input.DonorEmail == nil {
		return ""
	}
	return strings.TrimSpace(*input.DonorEmail)
}

func firstNameOf(full *string) *string {
	if full == nil {
		return nil
	}
	parts := strings.Fields(*full)
	if len(parts) == 0 {
		return nil
	}
	return &parts[0]
}

func lastNameOf(full *string) *string {
	if full == nil {
		return nil
	}
	parts := strings.Fields(*full)
	if len(parts) < 2 {
		return nil
	}
	last := strings.Join(parts[1:], " ")
	return &last
}

func currencyOr(currency string) string {
	if currency == "" {
		return "usd"
	}
	return currency
}
