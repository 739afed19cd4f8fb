package fees

import (
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
)

// DefinitionInput creates a reusable fee template.
type DefinitionInput struct {
	EnsembleID     uuid.UUID
	Name           string
	Description    *string
	AmountCents    int64
	DefaultDueDate *time.Time
}

// AssignmentInput binds a definition to one or many roster members in one
// transaction. AmountCents overrides the definition amount when set.
type AssignmentInput struct {
	DefinitionID  uuid.UUID
	StudentIDs    []uuid.UUID
	AmountCents   *int64
	DiscountCents int64
	DueDate       *time.Time
	Notes         *string
}

// PaymentInput records one manual payment against an assignment.
type PaymentInput struct {
	AssignmentID     uuid.UUID
	AmountCents      int64
	PaymentProvider  *string
	ProviderChargeID *string
	PaidAt           *time.Time
}

// AssignmentSummary is one assignment with its derived balance.
type AssignmentSummary struct {
	Assignment models.FeeAssignment
	Definition *models.FeeDefinition
	PaidCents  int64
	DueCents   int64
}

// MemberSummary rolls up a student's fee standing.
type MemberSummary struct {
	StudentID       uuid.UUID
	Assignments     []AssignmentSummary
	TotalOwedCents  int64
	TotalPaidCents  int64
	BalanceDueCents int64
}

// EnsembleSummary rolls up every assignment in an ensemble. Waived
// assignments count toward the status tally but not the money totals.
type EnsembleSummary struct {
	EnsembleID          uuid.UUID
	TotalInvoicedCents  int64
	TotalCollectedCents int64
	OutstandingCents    int64
	AssignmentsByStatus map[enums.FeeStatus]int
}

// PaymentResult is the appended payment and the status it drove the
// assignment to.
type PaymentResult struct {
	Payment    *models.FeePayment
	Assignment *models.FeeAssignment
	Status     enums.FeeStatus
}
