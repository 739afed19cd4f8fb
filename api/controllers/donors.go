package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/api/responses"
	"github.com/troupekit/troupe-backend/api/validators"
	"github.com/troupekit/troupe-backend/internal/donors"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/pagination"
)

// ListDonors serves a filtered, cursor-paginated donor roll for one ensemble.
func ListDonors(svc donors.Service, logg *logger.Logger) http.HandlerFunc {
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

		filters, err := donorFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{Limit: limit, Cursor: r.URL.Query().Get("cursor")}

		list, err := svc.ListDonors(r.Context(), ensembleID, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// GetDonor returns a donor with giving history and recent activity.
func GetDonor(svc donors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donorID, err := pathUUID(r, "donorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		detail, err := svc.GetDonor(r.Context(), donorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, detail)
	}
}

// UpdateDonor applies a partial update to donor contact fields. Aggregate
// columns are owned by the recompute path and rejected here.
func UpdateDonor(svc donors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donorID, err := pathUUID(r, "donorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var updates map[string]any
		if err := validators.DecodeJSONBody(r, &updates); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donor, err := svc.UpdateDonor(r.Context(), donorID, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, donor)
	}
}

// AppendDonorActivity adds one timeline entry to a donor.
func AppendDonorActivity(svc donors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donorID, err := pathUUID(r, "donorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload donorActivityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		activity, err := svc.AppendActivity(r.Context(), donorID, donors.ActivityInput{
			Type:      payload.Type,
			Summary:   payload.Summary,
			Details:   payload.Details,
			RelatedID: payload.RelatedID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, activity)
	}
}

// LinkDonation attributes an existing donation to a donor and recomputes
// both sides of the move.
func LinkDonation(svc donors.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		donorID, err := pathUUID(r, "donorID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload linkDonationRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.LinkDonation(r.Context(), donorID, payload.DonationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "linked"})
	}
}

type donorActivityRequest struct {
	Type      string         `json:"type" validate:"required"`
	Summary   string         `json:"summary" validate:"required"`
	Details   map[string]any `json:"details,omitempty"`
	RelatedID *uuid.UUID     `json:"related_id,omitempty"`
}

type linkDonationRequest struct {
	DonationID uuid.UUID `json:"donation_id" validate:"required"`
}

func donorFiltersFromQuery(r *http.Request) (donors.ListFilters, error) {
	filters := donors.ListFilters{
		Search: validators.SanitizeString(r.URL.Query().Get("search"), 120),
		Tag:    validators.SanitizeString(r.URL.Query().Get("tag"), 60),
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("min_lifetime_cents")); raw != "" {
		value, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || value < 0 {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "min_lifetime_cents must be a non-negative integer")
		}
		filters.MinLifetimeCents = &value
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("active_since")); raw != "" {
		stamp, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "active_since must be RFC3339")
		}
		filters.ActiveSince = &stamp
	}

	return filters, nil
}
