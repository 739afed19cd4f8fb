package ticketing

import (
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

// PerformanceInput describes one showing supplied at event creation.
type PerformanceInput struct {
	Date          time.Time
	DoorsOpenTime *string
	StartTime     string
	EndTime       *string
	Capacity      *int
}

// TicketTypeInput describes one admission category supplied at event creation.
type TicketTypeInput struct {
	Name              string
	Description       *string
	PriceCents        int64
	SeatingType       string
	QuantityAvailable *int
	IsPublic          bool
	SortOrder         int
}

// CreateEventInput carries everything needed to create a ticketed production.
type CreateEventInput struct {
	DirectorID          uuid.UUID
	EnsembleID          *uuid.UUID
	Title               string
	Subtitle            *string
	Description         *string
	ProgramNotes        *string
	VenueName           *string
	VenueAddress        *string
	ParkingInstructions *string
	DressCode           *string
	Performances        []PerformanceInput
	TicketTypes         []TicketTypeInput
}

// Buyer is the purchaser's contact block on an order.
type Buyer struct {
	Name  string
	Email string
	Phone *string
}

// OrderItemInput is one cart line: a ticket type and how many of it.
type OrderItemInput struct {
	TicketTypeID uuid.UUID
	Quantity     int
}

// CreateOrderInput models "record a completed sale": the payment is assumed
// already confirmed by the caller.
type CreateOrderInput struct {
	EventID            uuid.UUID
	PerformanceID      uuid.UUID
	SaleLinkID         *uuid.UUID
	Buyer              Buyer
	Items              []OrderItemInput
	DonationCents      int64
	ExternalPaymentRef *string
}

// OrderResult is the persisted order with its per-ticket items.
type OrderResult struct {
	Order *models.Order
	Items []models.OrderItem
}

// PerformanceSales pairs a performance with how many tickets it has sold.
// Read-only: nothing enforces capacity against this count.
type PerformanceSales struct {
	Performance models.Performance
	SoldCount   int64
}

// CheckInResult reports the outcome of scanning a redemption code.
type CheckInResult struct {
	Item             *models.OrderItem
	AlreadyCheckedIn bool
}
