package roster

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a roster repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindEnsemble(ctx context.Context, ensembleID uuid.UUID) (*models.Ensemble, error) {
	var ensemble models.Ensemble
	err := r.db.WithContext(ctx).
		Where("id = ?", ensembleID).
		First(&ensemble).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ensemble not found")
		}
		return nil, err
	}
	return &ensemble, nil
}

func (r *repository) ListActiveMembers(ctx context.Context, ensembleID uuid.UUID) ([]models.RosterMember, error) {
	var members []models.RosterMember
	err := r.db.WithContext(ctx).
		Where("ensemble_id = ? AND status = ?", ensembleID, enums.MemberStatusActive).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) FindMember(ctx context.Context, memberID uuid.UUID) (*models.RosterMember, error) {
	var member models.RosterMember
	err := r.db.WithContext(ctx).
		Where("id = ?", memberID).
		First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "roster member not found")
		}
		return nil, err
	}
	return &member, nil
}
