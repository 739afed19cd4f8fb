package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/api/responses"
	"github.com/troupekit/troupe-backend/api/validators"
	"github.com/troupekit/troupe-backend/internal/ticketing"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

// CreateOrder records a completed ticket sale: one order row plus one
// order item per physical ticket. It sits behind the idempotency
// middleware so buyers can safely retry.
func CreateOrder(svc ticketing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orderResponse{
			Order: result.Order,
			Items: result.Items,
		})
	}
}

// CheckIn redeems one ticket by its redemption code. Scanning a ticket a
// second time reports the earlier redemption instead of failing.
func CheckIn(svc ticketing.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := actingDirector(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload checkInRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CheckIn(r.Context(), payload.RedemptionCode)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkInResponse{
			Item:             result.Item,
			AlreadyCheckedIn: result.AlreadyCheckedIn,
		})
	}
}

type createOrderRequest struct {
	EventID            uuid.UUID          `json:"event_id" validate:"required"`
	PerformanceID      uuid.UUID          `json:"performance_id" validate:"required"`
	SaleLinkID         *uuid.UUID         `json:"sale_link_id,omitempty"`
	BuyerName          string             `json:"buyer_name" validate:"required"`
	BuyerEmail         string             `json:"buyer_email" validate:"required,email"`
	BuyerPhone         *string            `json:"buyer_phone,omitempty"`
	Items              []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	DonationCents      int64              `json:"donation_cents,omitempty" validate:"min=0"`
	ExternalPaymentRef *string            `json:"external_payment_ref,omitempty"`
}

type orderItemRequest struct {
	TicketTypeID uuid.UUID `json:"ticket_type_id" validate:"required"`
	Quantity     int       `json:"quantity" validate:"required,min=1"`
}

type checkInRequest struct {
	RedemptionCode string `json:"redemption_code" validate:"required"`
}

type orderResponse struct {
	Order *models.Order      `json:"order"`
	Items []models.OrderItem `json:"items"`
}

type checkInResponse struct {
	Item             *models.OrderItem `json:"item"`
	AlreadyCheckedIn bool              `json:"already_checked_in"`
}

func (p createOrderRequest) toInput() ticketing.CreateOrderInput {
	input := ticketing.CreateOrderInput{
		EventID:       p.EventID,
		PerformanceID: p.PerformanceID,
		SaleLinkID:    p.SaleLinkID,
		Buyer: ticketing.Buyer{
			Name:  p.BuyerName,
			Email: p.BuyerEmail,
			Phone: p.BuyerPhone,
		},
		DonationCents:      p.DonationCents,
		ExternalPaymentRef: p.ExternalPaymentRef,
	}
	for _, item := range p.Items {
		input.Items = append(input.Items, ticketing.OrderItemInput{
			TicketTypeID: item.TicketTypeID,
			Quantity:     item.Quantity,
		})
	}
	return input
}
