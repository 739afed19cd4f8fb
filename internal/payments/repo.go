package payments

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/troupekit/troupe-backend/pkg/db/models"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payments repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// InsertIgnoreDonation inserts-or-ignores on the external payment reference.
// The unique index is the arbiter: false means this reference was already
// recorded and the delivery is a replay.
func (r *repository) InsertIgnoreDonation(ctx context.Context, donation *models.Donation) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_payment_ref"}},
			DoNothing: true,
		}).
		Create(donation)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindDonationByRef(ctx context.Context, externalRef string) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).
		Where("external_payment_ref = ?", externalRef).
		First(&donation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donation not found")
		}
		return nil, err
	}
	return &donation, nil
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

func (r *repository) FindParticipant(ctx context.Context, participantID uuid.UUID) (*models.CampaignParticipant, error) {
	var participant models.CampaignParticipant
	err := r.db.WithContext(ctx).
		Where("id = ?", participantID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign participant not found")
		}
		return nil, err
	}
	return &participant, nil
}

// CreditParticipant bumps the running total in place. The increment relies
// on the surrounding transaction for atomicity with the donation insert.
func (r *repository) CreditParticipant(ctx context.Context, participantID uuid.UUID, amountCents int64, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.CampaignParticipant{}).
		Where("id = ?", participantID).
		Updates(map[string]any{
			"total_raised_cents": gorm.Expr("total_raised_cents + ?", amountCents),
			"last_donation_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "campaign participant not found")
	}
	return nil
}
