package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

// Repository defines the persistence operations of the confirmation sink.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	InsertIgnoreDonation(ctx context.Context, donation *models.Donation) (bool, error)
	FindDonationByRef(ctx context.Context, externalRef string) (*models.Donation, error)
	FindCampaign(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error)
	FindParticipant(ctx context.Context, participantID uuid.UUID) (*models.CampaignParticipant, error)
	CreditParticipant(ctx context.Context, participantID uuid.UUID, amountCents int64, at time.Time) error
}
