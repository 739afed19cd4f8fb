package campaigns

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

// Repository defines persistence operations for campaigns and their
// participants.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	FindCampaign(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error)
	UpsertParticipant(ctx context.Context, participant *models.CampaignParticipant) (bool, error)
	FindParticipant(ctx context.Context, campaignID, studentID uuid.UUID) (*models.CampaignParticipant, error)
	ListParticipants(ctx context.Context, campaignID uuid.UUID) ([]models.CampaignParticipant, error)
}
