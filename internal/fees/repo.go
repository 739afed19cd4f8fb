package fees

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

// NewRepository builds a fees repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateDefinition(ctx context.Context, definition *models.FeeDefinition) (*models.FeeDefinition, error) {
	if err := r.db.WithContext(ctx).Create(definition).Error; err != nil {
		return nil, err
	}
	return definition, nil
}

func (r *repository) FindDefinition(ctx context.Context, definitionID uuid.UUID) (*models.FeeDefinition, error) {
	var definition models.FeeDefinition
	err := r.db.WithContext(ctx).
		Where("id = ?", definitionID).
		First(&definition).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fee definition not found")
		}
		return nil, err
	}
	return &definition, nil
}

func (r *repository) ListDefinitions(ctx context.Context, ensembleID uuid.UUID) ([]models.FeeDefinition, error) {
	var definitions []models.FeeDefinition
	err := r.db.WithContext(ctx).
		Where("ensemble_id = ? AND active = ?", ensembleID, true).
		Order("created_at ASC").
		Find(&definitions).Error
	if err != nil {
		return nil, err
	}
	return definitions, nil
}

func (r *repository) UpdateDefinition(ctx context.Context, definitionID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.FeeDefinition{}).
		Where("id = ?", definitionID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "fee definition not found")
	}
	return nil
}

func (r *repository) CreateAssignments(ctx context.Context, assignments []models.FeeAssignment) error {
	if len(assignments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&assignments).Error
}

func (r *repository) FindAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.FeeAssignment, error) {
	var assignment models.FeeAssignment
	err := r.db.WithContext(ctx).
		Where("id = ?", assignmentID).
		First(&assignment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "fee assignment not found")
		}
		return nil, err
	}
	return &assignment, nil
}

func (r *repository) ListAssignmentsByStudent(ctx context.Context, ensembleID, studentID uuid.UUID) ([]models.FeeAssignment, error) {
	var assignments []models.FeeAssignment
	err := r.db.WithContext(ctx).
		Where("ensemble_id = ? AND student_id = ?", ensembleID, studentID).
		Order("created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) ListAssignmentsByEnsemble(ctx context.Context, ensembleID uuid.UUID) ([]models.FeeAssignment, error) {
	var assignments []models.FeeAssignment
	err := r.db.WithContext(ctx).
		Where("ensemble_id = ?", ensembleID).
		Order("created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repository) UpdateAssignmentStatus(ctx context.Context, assignmentID uuid.UUID, status enums.FeeStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.FeeAssignment{}).
		Where("id = ?", assignmentID).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "fee assignment not found")
	}
	return nil
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.FeePayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) ListPayments(ctx context.Context, assignmentID uuid.UUID) ([]models.FeePayment, error) {
	var payments []models.FeePayment
	err := r.db.WithContext(ctx).
		Where("fee_assignment_id = ?", assignmentID).
		Order("paid_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repository) SumPayments(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.FeePayment{}).
		Select("COALESCE(SUM(amount_cents), 0)").
		Where("fee_assignment_id = ?", assignmentID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
