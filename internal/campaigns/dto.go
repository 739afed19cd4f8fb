package campaigns

import (
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

// CreateCampaignInput carries everything needed to open a fundraising drive.
// EnsembleID is optional; when present the active roster is seeded as
// participants inside the same transaction.
type CreateCampaignInput struct {
	DirectorID          uuid.UUID
	EnsembleID          *uuid.UUID
	Name                string
	Description         *string
	GoalCents           *int64
	PerStudentGoalCents *int64
	StartsAt            *time.Time
	EndsAt              *time.Time
}

// CampaignResult is the created campaign with its seeded participants.
type CampaignResult struct {
	Campaign     *models.Campaign
	Participants []models.CampaignParticipant
	Seeded       int
}
