package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/api/responses"
	"github.com/troupekit/troupe-backend/api/validators"
	"github.com/troupekit/troupe-backend/internal/campaigns"
	"github.com/troupekit/troupe-backend/internal/payments"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

// CreateCampaign opens a fundraising drive and seeds the active roster as
// participants when an ensemble is attached.
func CreateCampaign(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		director, err := actingDirector(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createCampaignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateCampaign(r.Context(), payload.toInput(director))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// GetCampaign returns a campaign with its participant ledger.
func GetCampaign(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		campaignID, err := pathUUID(r, "campaignID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetCampaign(r.Context(), campaignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// SeedParticipants re-runs roster seeding for a campaign. Members added to
// the roster after campaign creation get participant rows; existing rows
// keep their tokens and raised totals.
func SeedParticipants(svc campaigns.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaignID, err := pathUUID(r, "campaignID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.SeedParticipants(r.Context(), campaignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// RecordManualDonation books an offline gift (cash, check) against a
// campaign through the same idempotent sink as processor confirmations.
func RecordManualDonation(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		campaignID, err := pathUUID(r, "campaignID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload manualDonationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		outcome, err := svc.RecordManualDonation(r.Context(), payments.ManualDonationInput{
			CampaignID:    campaignID,
			ParticipantID: payload.ParticipantID,
			AmountCents:   payload.AmountCents,
			DonorName:     payload.DonorName,
			DonorEmail:    payload.DonorEmail,
			IsAnonymous:   payload.IsAnonymous,
			Message:       payload.Message,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, outcome)
	}
}

type createCampaignRequest struct {
	EnsembleID          *uuid.UUID `json:"ensemble_id,omitempty"`
	Name                string     `json:"name" validate:"required"`
	Description         *string    `json:"description,omitempty"`
	GoalCents           *int64     `json:"goal_cents,omitempty" validate:"omitempty,min=1"`
	PerStudentGoalCents *int64     `json:"per_student_goal_cents,omitempty" validate:"omitempty,min=1"`
	StartsAt            *time.Time `json:"starts_at,omitempty"`
	EndsAt              *time.Time `json:"ends_at,omitempty"`
}

type manualDonationRequest struct {
	ParticipantID *uuid.UUID `json:"participant_id,omitempty"`
	AmountCents   int64      `json:"amount_cents" validate:"required,min=1"`
	DonorName     *string    `json:"donor_name,omitempty"`
	DonorEmail    *string    `json:"donor_email,omitempty" validate:"omitempty,email"`
	IsAnonymous   bool       `json:"is_anonymous,omitempty"`
	Message       *string    `json:"message,omitempty"`
}

func (p createCampaignRequest) toInput(director uuid.UUID) campaigns.CreateCampaignInput {
	return campaigns.CreateCampaignInput{
		DirectorID:          director,
		EnsembleID:          p.EnsembleID,
		Name:                p.Name,
		Description:         p.Description,
		GoalCents:           p.GoalCents,
		PerStudentGoalCents: p.PerStudentGoalCents,
		StartsAt:            p.StartsAt,
		EndsAt:              p.EndsAt,
	}
}
