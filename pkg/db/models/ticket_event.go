package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/troupekit/troupe-backend/pkg/enums"
)

// TicketEvent is a director-owned production: a concert, musical or showcase
// that sells tickets. Owns its Performances and TicketTypes; deleting the
// event cascades to both.
type TicketEvent struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DirectorID          uuid.UUID         `gorm:"column:director_id;type:uuid;not null"`
	EnsembleID          *uuid.UUID        `gorm:"column:ensemble_id;type:uuid"`
	Title               string            `gorm:"column:title;not null"`
	Subtitle            *string           `gorm:"column:subtitle"`
	Description         *string           `gorm:"column:description"`
	ProgramNotes        *string           `gorm:"column:program_notes"`
	VenueName           *string           `gorm:"column:venue_name"`
	VenueAddress        *string           `gorm:"column:venue_address"`
	ParkingInstructions *string           `gorm:"column:parking_instructions"`
	DressCode           *string           `gorm:"column:dress_code"`
	Status              enums.EventStatus `gorm:"column:status;type:text;not null;default:'draft'"`
	Performances        []Performance     `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	TicketTypes         []TicketType      `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// Performance is one scheduled showing of a TicketEvent. Capacity is
// advisory only: order volume is not reconciled against it.
type Performance struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID         uuid.UUID `gorm:"column:event_id;type:uuid;not null"`
	PerformanceDate time.Time `gorm:"column:performance_date;type:date;not null"`
	DoorsOpenTime   *string   `gorm:"column:doors_open_time"`
	StartTime       string    `gorm:"column:start_time;not null"`
	EndTime         *string   `gorm:"column:end_time"`
	Capacity        *int      `gorm:"column:capacity"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TicketType is a priced admission category. Price is a legacy decimal
// column; application logic converts to cents at the repo boundary.
type TicketType struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID           uuid.UUID         `gorm:"column:event_id;type:uuid;not null"`
	Name              string            `gorm:"column:name;not null"`
	Description       *string           `gorm:"column:description"`
	Price             decimal.Decimal   `gorm:"column:price;type:decimal(10,2);not null"`
	SeatingType       enums.SeatingType `gorm:"column:seating_type;type:text;not null;default:'general_admission'"`
	QuantityAvailable *int              `gorm:"column:quantity_available"`
	// No default tag: gorm skips zero-valued fields that carry one, which
	// would silently store hidden ticket types as public.
	IsPublic  bool      `gorm:"column:is_public;not null"`
	SortOrder int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
