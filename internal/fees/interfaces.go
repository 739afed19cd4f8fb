package fees

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
)

// Repository defines persistence operations for the fees tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateDefinition(ctx context.Context, definition *models.FeeDefinition) (*models.FeeDefinition, error)
	FindDefinition(ctx context.Context, definitionID uuid.UUID) (*models.FeeDefinition, error)
	ListDefinitions(ctx context.Context, ensembleID uuid.UUID) ([]models.FeeDefinition, error)
	UpdateDefinition(ctx context.Context, definitionID uuid.UUID, updates map[string]any) error

	CreateAssignments(ctx context.Context, assignments []models.FeeAssignment) error
	FindAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.FeeAssignment, error)
	ListAssignmentsByStudent(ctx context.Context, ensembleID, studentID uuid.UUID) ([]models.FeeAssignment, error)
	ListAssignmentsByEnsemble(ctx context.Context, ensembleID uuid.UUID) ([]models.FeeAssignment, error)
	UpdateAssignmentStatus(ctx context.Context, assignmentID uuid.UUID, status enums.FeeStatus) error

	CreatePayment(ctx context.Context, payment *models.FeePayment) error
	ListPayments(ctx context.Context, assignmentID uuid.UUID) ([]models.FeePayment, error)
	SumPayments(ctx context.Context, assignmentID uuid.UUID) (int64, error)
}
