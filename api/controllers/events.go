package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/api/responses"
	"github.com/troupekit/troupe-backend/api/validators"
	"github.com/troupekit/troupe-backend/internal/ticketing"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

// CreateEvent handles ticketed event creation with nested performances and
// ticket types.
func CreateEvent(svc ticketing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		director, err := actingDirector(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createEventRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.CreateEvent(r.Context(), payload.toInput(director))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, event)
	}
}

// UpdateEvent applies a partial update to an event the director owns.
func UpdateEvent(svc ticketing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		director, err := actingDirector(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var updates map[string]any
		if err := validators.DecodeJSONBody(r, &updates); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		event, err := svc.UpdateEvent(r.Context(), eventID, director, updates)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, event)
	}
}

// DeleteEvent removes an event the director owns.
func DeleteEvent(svc ticketing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		director, err := actingDirector(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteEvent(r.Context(), eventID, director); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ListPublicTicketTypes serves the buyer-facing ticket menu for an event.
func ListPublicTicketTypes(svc ticketing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		types, err := svc.ListPublicTicketTypes(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, types)
	}
}

// ListPerformanceSales reports per-performance sold counts for an event.
func ListPerformanceSales(svc ticketing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sales, err := svc.ListPerformanceSales(r.Context(), eventID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, sales)
	}
}

// GenerateStudentLinks mints (or returns existing) per-student sale links
// for an event.
func GenerateStudentLinks(svc ticketing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventID, err := pathUUID(r, "eventID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload generateLinksRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		links, err := svc.GenerateStudentLinks(r.Context(), eventID, payload.EnsembleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, links)
	}
}

type createEventRequest struct {
	EnsembleID          *uuid.UUID                 `json:"ensemble_id,omitempty"`
	Title               string                     `json:"title" validate:"required"`
	Subtitle            *string                    `json:"subtitle,omitempty"`
	Description         *string                    `json:"description,omitempty"`
	ProgramNotes        *string                    `json:"program_notes,omitempty"`
	VenueName           *string                    `json:"venue_name,omitempty"`
	VenueAddress        *string                    `json:"venue_address,omitempty"`
	ParkingInstructions *string                    `json:"parking_instructions,omitempty"`
	DressCode           *string                    `json:"dress_code,omitempty"`
	Performances        []createPerformanceRequest `json:"performances" validate:"required,min=1,dive"`
	TicketTypes         []createTicketTypeRequest  `json:"ticket_types" validate:"required,min=1,dive"`
}

type createPerformanceRequest struct {
	Date          time.Time `json:"date" validate:"required"`
	DoorsOpenTime *string   `json:"doors_open_time,omitempty"`
	StartTime     string    `json:"start_time" validate:"required"`
	EndTime       *string   `json:"end_time,omitempty"`
	Capacity      *int      `json:"capacity,omitempty" validate:"omitempty,min=1"`
}

type createTicketTypeRequest struct {
	Name              string  `json:"name" validate:"required"`
	Description       *string `json:"description,omitempty"`
	PriceCents        int64   `json:"price_cents" validate:"min=0"`
	SeatingType       string  `json:"seating_type,omitempty"`
	QuantityAvailable *int    `json:"quantity_available,omitempty" validate:"omitempty,min=1"`
	IsPublic          *bool   `json:"is_public,omitempty"`
	SortOrder         int     `json:"sort_order,omitempty"`
}

type generateLinksRequest struct {
	EnsembleID uuid.UUID `json:"ensemble_id" validate:"required"`
}

func (p createEventRequest) toInput(director uuid.UUID) ticketing.CreateEventInput {
	input := ticketing.CreateEventInput{
		DirectorID:          director,
		EnsembleID:          p.EnsembleID,
		Title:               p.Title,
		Subtitle:            p.Subtitle,
		Description:         p.Description,
		ProgramNotes:        p.ProgramNotes,
		VenueName:           p.VenueName,
		VenueAddress:        p.VenueAddress,
		ParkingInstructions: p.ParkingInstructions,
		DressCode:           p.DressCode,
	}
	for _, perf := range p.Performances {
		input.Performances = append(input.Performances, ticketing.PerformanceInput{
			Date:          perf.Date,
			DoorsOpenTime: perf.DoorsOpenTime,
			StartTime:     perf.StartTime,
			EndTime:       perf.EndTime,
			Capacity:      perf.Capacity,
		})
	}
	for _, tt := range p.TicketTypes {
		isPublic := true
		if tt.IsPublic != nil {
			isPublic = *tt.IsPublic
		}
		input.TicketTypes = append(input.TicketTypes, ticketing.TicketTypeInput{
			Name:              tt.Name,
			Description:       tt.Description,
			PriceCents:        tt.PriceCents,
			SeatingType:       tt.SeatingType,
			QuantityAvailable: tt.QuantityAvailable,
			IsPublic:          isPublic,
			SortOrder:         tt.SortOrder,
		})
	}
	return input
}
