package payments

import (
	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

// ConfirmationInput is one payment-confirmation event from the external
// processor's at-least-once channel. ExternalRef is the idempotency key.
type ConfirmationInput struct {
	ExternalRef   string
	CampaignID    *uuid.UUID
	ParticipantID *uuid.UUID
	StudentID     *uuid.UUID
	AmountCents   int64
	Currency      string
	DonorName     *string
	DonorEmail    *string
	IsAnonymous   bool
	Message       *string
}

// ManualDonationInput records an offline gift (cash, check) against a
// campaign. It flows through the same sink as processor confirmations,
// under a synthetic payment reference.
type ManualDonationInput struct {
	CampaignID    uuid.UUID
	ParticipantID *uuid.UUID
	AmountCents   int64
	DonorName     *string
	DonorEmail    *string
	IsAnonymous   bool
	Message       *string
}

// Outcome reports what a confirmation delivery did.
type Outcome struct {
	Donation  *models.Donation
	Applied   bool
	Duplicate bool
}
