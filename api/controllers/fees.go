package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/api/responses"
	"github.com/troupekit/troupe-backend/api/validators"
	"github.com/troupekit/troupe-backend/internal/fees"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

// CreateFeeDefinition registers a reusable fee template for an ensemble.
func CreateFeeDefinition(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload feeDefinitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		definition, err := svc.CreateDefinition(r.Context(), fees.DefinitionInput{
			EnsembleID:     payload.EnsembleID,
			Name:           payload.Name,
			Description:    payload.Description,
			AmountCents:    payload.AmountCents,
			DefaultDueDate: payload.DefaultDueDate,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, definition)
	}
}

// ListFeeDefinitions returns the active fee templates for an ensemble.
func ListFeeDefinitions(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ensembleID, err := uuid.Parse(r.URL.Query().Get("ensemble_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ensemble_id"))
			return
		}

		definitions, err := svc.ListDefinitions(r.Context(), ensembleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, definitions)
	}
}

// AssignFees invoices one fee definition to one or many roster members.
func AssignFees(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload feeAssignmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assignments, err := svc.Assign(r.Context(), fees.AssignmentInput{
			DefinitionID:  payload.DefinitionID,
			StudentIDs:    payload.StudentIDs,
			AmountCents:   payload.AmountCents,
			DiscountCents: payload.DiscountCents,
			DueDate:       payload.DueDate,
			Notes:         payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, assignments)
	}
}

// FeeMemberSummary returns one member's assignments with derived balances.
func FeeMemberSummary(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		studentID, err := pathUUID(r, "studentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ensembleID, err := uuid.Parse(r.URL.Query().Get("ensemble_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ensemble_id"))
			return
		}

		summary, err := svc.MemberSummary(r.Context(), ensembleID, studentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// FeeEnsembleSummary totals the fee standing across an ensemble.
func FeeEnsembleSummary(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ensembleID, err := uuid.Parse(r.URL.Query().Get("ensemble_id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ensemble_id"))
			return
		}

		summary, err := svc.EnsembleSummary(r.Context(), ensembleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// RecordFeePayment books one manual payment against an assignment and
// rolls the assignment status forward.
func RecordFeePayment(svc fees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload feePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RecordManualFeePayment(r.Context(), fees.PaymentInput{
			AssignmentID:     payload.AssignmentID,
			AmountCents:      payload.AmountCents,
			PaymentProvider:  payload.PaymentProvider,
			ProviderChargeID: payload.ProviderChargeID,
			PaidAt:           payload.PaidAt,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

type feeDefinitionRequest struct {
	EnsembleID     uuid.UUID  `json:"ensemble_id" validate:"required"`
	Name           string     `json:"name" validate:"required"`
	Description    *string    `json:"description,omitempty"`
	AmountCents    int64      `json:"amount_cents" validate:"required,min=1"`
	DefaultDueDate *time.Time `json:"default_due_date,omitempty"`
}

type feeAssignmentRequest struct {
	DefinitionID  uuid.UUID   `json:"definition_id" validate:"required"`
	StudentIDs    []uuid.UUID `json:"student_ids" validate:"required,min=1"`
	AmountCents   *int64      `json:"amount_cents,omitempty" validate:"omitempty,min=1"`
	DiscountCents int64       `json:"discount_cents,omitempty" validate:"min=0"`
	DueDate       *time.Time  `json:"due_date,omitempty"`
	Notes         *string     `json:"notes,omitempty"`
}

type feePaymentRequest struct {
	AssignmentID     uuid.UUID  `json:"assignment_id" validate:"required"`
	AmountCents      int64      `json:"amount_cents" validate:"required,min=1"`
	PaymentProvider  *string    `json:"payment_provider,omitempty"`
	ProviderChargeID *string    `json:"provider_charge_id,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}
