package payments

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

// confirmationMessage is the processor's Pub/Sub wire shape. It mirrors the
// webhook payload; the channel delivers at-least-once, so the sink's
// payment-reference dedupe is the real idempotency boundary.
type confirmationMessage struct {
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

// Consumer drains payment confirmations from the processor's Pub/Sub
// subscription into the idempotent sink.
type Consumer struct {
	svc          Service
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewConsumer builds a confirmation consumer.
func NewConsumer(svc Service, subscription *pubsub.Subscriber, logg *logger.Logger) (*Consumer, error) {
	if svc == nil {
		return nil, fmt.Errorf("payments service required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("confirmation subscription required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{svc: svc, subscription: subscription, logg: logg}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked. Malformed payloads
// and reconciliation warnings are acked: redelivery cannot fix either, and
// the warning path has already logged and counted them. Only transient
// failures are nacked for retry.
func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) bool {
	logCtx := c.logg.WithField(ctx, "message_id", msg.ID)

	var confirmation confirmationMessage
	if err := json.Unmarshal(msg.Data, &confirmation); err != nil {
		c.logg.Error(logCtx, "failed to decode confirmation", err)
		return true
	}

	outcome, err := c.svc.ProcessConfirmation(ctx, ConfirmationInput{
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
		if pkgerrors.IsCode(err, pkgerrors.CodeReconciliation) {
			return true
		}
		c.logg.Error(logCtx, "confirmation processing failed", err)
		return false
	}

	if outcome.Duplicate {
		c.logg.Info(logCtx, "confirmation already recorded")
	}
	return true
}
