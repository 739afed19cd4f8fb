package fees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the fees subsystem: definitions, assignments and the
// append-and-derive payment ledger.
type Service interface {
	CreateDefinition(ctx context.Context, input DefinitionInput) (*models.FeeDefinition, error)
	ListDefinitions(ctx context.Context, ensembleID uuid.UUID) ([]models.FeeDefinition, error)
	Assign(ctx context.Context, input AssignmentInput) ([]models.FeeAssignment, error)
	MemberSummary(ctx context.Context, ensembleID, studentID uuid.UUID) (*MemberSummary, error)
	EnsembleSummary(ctx context.Context, ensembleID uuid.UUID) (*EnsembleSummary, error)
	RecordManualFeePayment(ctx context.Context, input PaymentInput) (*PaymentResult, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the fees service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) Service {
	return &service{repo: repo, tx: tx, logg: logg, now: time.Now}
}

func (s *service) CreateDefinition(ctx context.Context, input DefinitionInput) (*models.FeeDefinition, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee name is required")
	}
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "fee amount must be positive")
	}

	definition := &models.FeeDefinition{
		EnsembleID:     input.EnsembleID,
		Name:           input.Name,
		Description:    input.Description,
		AmountCents:    input.AmountCents,
		DefaultDueDate: input.DefaultDueDate,
		Active:         true,
	}
	return s.repo.CreateDefinition(ctx, definition)
}

func (s *service) ListDefinitions(ctx context.Context, ensembleID uuid.UUID) ([]models.FeeDefinition, error) {
	return s.repo.ListDefinitions(ctx, ensembleID)
}

// Assign invoices one or many students for a definition in a single
// transaction; a failure on any row voids the whole batch.
func (s *service) Assign(ctx context.Context, input AssignmentInput) ([]models.FeeAssignment, error) {
	if len(input.StudentIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one student is required")
	}
	if input.DiscountCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount cannot be negative")
	}

	definition, err := s.repo.FindDefinition(ctx, input.DefinitionID)
	if err != nil {
		return nil, err
	}

	amount := definition.AmountCents
	if input.AmountCents != nil {
		if *input.AmountCents <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment amount must be positive")
		}
		amount = *input.AmountCents
	}
	if input.DiscountCents > amount {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount exceeds the fee amount")
	}

	dueDate := input.DueDate
	if dueDate == nil {
		dueDate = definition.DefaultDueDate
	}

	assignments := make([]models.FeeAssignment, 0, len(input.StudentIDs))
	for _, studentID := range input.StudentIDs {
		assignments = append(assignments, models.FeeAssignment{
			EnsembleID:      definition.EnsembleID,
			FeeDefinitionID: definition.ID,
			StudentID:       studentID,
			AmountCents:     amount,
			DiscountCents:   input.DiscountCents,
			Status:          enums.FeeStatusInvoiced,
			DueDate:         dueDate,
			Notes:           input.Notes,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).CreateAssignments(ctx, assignments)
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "assign fees")
	}
	return assignments, nil
}

func (s *service) MemberSummary(ctx context.Context, ensembleID, studentID uuid.UUID) (*MemberSummary, error) {
	assignments, err := s.repo.ListAssignmentsByStudent(ctx, ensembleID, studentID)
	if err != nil {
		return nil, err
	}

	summary := &MemberSummary{StudentID: studentID}
	for _, assignment := range assignments {
		paid, err := s.repo.SumPayments(ctx, assignment.ID)
		if err != nil {
			return nil, err
		}
		definition, err := s.repo.FindDefinition(ctx, assignment.FeeDefinitionID)
		if err != nil {
			return nil, err
		}

		owed := owedCents(assignment)
		due := owed - paid
		if due < 0 {
			due = 0
		}
		summary.Assignments = append(summary.Assignments, AssignmentSummary{
			Assignment: assignment,
			Definition: definition,
			PaidCents:  paid,
			DueCents:   due,
		})
		if assignment.Status != enums.FeeStatusWaived {
			summary.TotalOwedCents += owed
			summary.TotalPaidCents += paid
			summary.BalanceDueCents += due
		}
	}
	return summary, nil
}

// EnsembleSummary totals the ensemble's fee standing across every
// assignment. Balances are derived from the payment ledger, never stored.
func (s *service) EnsembleSummary(ctx context.Context, ensembleID uuid.UUID) (*EnsembleSummary, error) {
	assignments, err := s.repo.ListAssignmentsByEnsemble(ctx, ensembleID)
	if err != nil {
		return nil, err
	}

	summary := &EnsembleSummary{
		EnsembleID:          ensembleID,
		AssignmentsByStatus: map[enums.FeeStatus]int{},
	}
	for _, assignment := range assignments {
		summary.AssignmentsByStatus[assignment.Status]++
		if assignment.Status == enums.FeeStatusWaived {
			continue
		}

		paid, err := s.repo.SumPayments(ctx, assignment.ID)
		if err != nil {
			return nil, err
		}
		owed := owedCents(assignment)
		due := owed - paid
		if due < 0 {
			due = 0
		}
		summary.TotalInvoicedCents += owed
		summary.TotalCollectedCents += paid
		summary.OutstandingCents += due
	}
	return summary, nil
}

// RecordManualFeePayment appends one payment and re-derives the assignment
// status from the payment sum. History is never rewritten: corrections are
// new rows, and the status always follows from the ledger.
func (s *service) RecordManualFeePayment(ctx context.Context, input PaymentInput) (*PaymentResult, error) {
	if input.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment amount must be positive")
	}

	assignment, err := s.repo.FindAssignment(ctx, input.AssignmentID)
	if err != nil {
		return nil, err
	}
	if assignment.Status == enums.FeeStatusWaived {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "assignment is no longer payable")
	}

	paidAt := s.now()
	if input.PaidAt != nil {
		paidAt = *input.PaidAt
	}

	var result PaymentResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payment := &models.FeePayment{
			FeeAssignmentID:  assignment.ID,
			AmountCents:      input.AmountCents,
			PaymentProvider:  input.PaymentProvider,
			ProviderChargeID: input.ProviderChargeID,
			PaidAt:           paidAt,
		}
		if err := repo.CreatePayment(ctx, payment); err != nil {
			return err
		}

		total, err := repo.SumPayments(ctx, assignment.ID)
		if err != nil {
			return err
		}
		status := deriveStatus(owedCents(*assignment), total)
		if status != assignment.Status {
			if err := repo.UpdateAssignmentStatus(ctx, assignment.ID, status); err != nil {
				return err
			}
		}

		updated := *assignment
		updated.Status = status
		result = PaymentResult{Payment: payment, Assignment: &updated, Status: status}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "record fee payment")
	}

	return &result, nil
}

func owedCents(assignment models.FeeAssignment) int64 {
	owed := assignment.AmountCents - assignment.DiscountCents
	if owed < 0 {
		return 0
	}
	return owed
}

// deriveStatus maps the payment sum onto the assignment lifecycle:
// nothing paid is invoiced, something paid is partial, covered is paid.
func deriveStatus(owed, paid int64) enums.FeeStatus {
	switch {
	case paid <= 0:
		return enums.FeeStatusInvoiced
	case paid < owed:
		return enums.FeeStatusPartial
	default:
		return enums.FeeStatusPaid
	}
}
