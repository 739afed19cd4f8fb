// Package webhooks terminates signed callbacks from external payment
// processors.
package webhooks

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/troupekit/troupe-backend/api/responses"
	"github.com/troupekit/troupe-backend/internal/payments"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

const maxWebhookBody = 1 << 16

// confirmationEvent is the processor's wire shape for a settled payment.
// Routing metadata travels alongside the charge because the processor knows
// nothing about campaigns or participants.
type confirmationEvent struct {
	PaymentRef    string     `json:"payment_ref"`
	CampaignID    *uuid.UUID `json:"campaign_id"`
	ParticipantID *uuid.UUID `json:"participant_id"`
	StudentID     *uuid.UUID `json:"student_id"`
	AmountCents   int64      `json:"amount_cents"`
	Currency      string     `json:"currency"`
	DonorName     *string    `json:"donor_name"`
	DonorEmail    *string    `json:"donor_email"`
	IsAnonymous   bool       `json:"is_anonymous"`
	Message       *string    `json:"message"`
}

// PaymentConfirmation verifies the processor's signature and hands the
// confirmation to the idempotent sink. Duplicates and reconciliation
// warnings are both acknowledged so the processor stops redelivering.
func PaymentConfirmation(svc payments.Service, signingSecret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		if signingSecret == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook signing secret not configured"))
			return
		}

		payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "webhook signature missing"))
			return
		}

		event, err := webhook.ConstructEvent(payload, sigHeader, signingSecret)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "verify webhook signature"))
			return
		}

		var confirmation confirmationEvent
		if err := json.Unmarshal(event.Data.Raw, &confirmation); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode confirmation payload"))
			return
		}

		outcome, err := svc.ProcessConfirmation(ctx, payments.ConfirmationInput{
			ExternalRef:   confirmation.PaymentRef,
			CampaignID:    confirmation.CampaignID,
			ParticipantID: confirmation.ParticipantID,
			StudentID:     confirmation.StudentID,
			AmountCents:   confirmation.AmountCents,
			Currency:      confirmation.Currency,
			DonorName:     confirmation.DonorName,
			DonorEmail:    confirmation.DonorEmail,
			IsAnonymous:   confirmation.IsAnonymous,
			Message:       confirmation.Message,
		})
		if err != nil {
			// Reconciliation warnings map to 202: acknowledged, not retried.
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"applied":   outcome.Applied,
			"duplicate": outcome.Duplicate,
		})
	}
}
