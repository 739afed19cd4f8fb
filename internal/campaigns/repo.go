package campaigns

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/troupekit/troupe-backend/pkg/db"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a campaigns repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// CreateCampaign maps a slug collision onto a conflict error so the caller
// can disambiguate and try again.
func (r *repository) CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if err := r.db.WithContext(ctx).Create(campaign).Error; err != nil {
		if db.IsUniqueViolation(err, "uq_campaigns_slug") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "campaign slug already taken")
		}
		return nil, err
	}
	return campaign, nil
}

func (r *repository) FindCampaign(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	var campaign models.Campaign
	err := r.db.WithContext(ctx).
		Where("id = ?", campaignID).
		First(&campaign).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
		}
		return nil, err
	}
	return &campaign, nil
}

// UpsertParticipant inserts-or-ignores on (campaign_id, student_id). The
// returned bool reports whether a new row was written. A token collision
// against another participant surfaces as a conflict for the retry budget.
func (r *repository) UpsertParticipant(ctx context.Context, participant *models.CampaignParticipant) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "student_id"}},
			DoNothing: true,
		}).
		Create(participant)
	if result.Error != nil {
		if db.IsUniqueViolation(result.Error, "uq_participants_token") {
			return false, pkgerrors.Wrap(pkgerrors.CodeConflict, result.Error, "participant token already taken")
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindParticipant(ctx context.Context, campaignID, studentID uuid.UUID) (*models.CampaignParticipant, error) {
	var participant models.CampaignParticipant
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND student_id = ?", campaignID, studentID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign participant not found")
		}
		return nil, err
	}
	return &participant, nil
}

func (r *repository) ListParticipants(ctx context.Context, campaignID uuid.UUID) ([]models.CampaignParticipant, error) {
	var participants []models.CampaignParticipant
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&participants).Error
	if err != nil {
		return nil, err
	}
	return participants, nil
}
