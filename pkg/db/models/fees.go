package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/pkg/enums"
)

// FeeDefinition is a reusable fee template for an ensemble (uniform fee,
// trip deposit, instrument rental).
type FeeDefinition struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EnsembleID     uuid.UUID  `gorm:"column:ensemble_id;type:uuid;not null"`
	Name           string     `gorm:"column:name;not null"`
	Description    *string    `gorm:"column:description"`
	AmountCents    int64      `gorm:"column:amount_cents;not null"`
	Currency       string     `gorm:"column:currency;not null;default:'USD'"`
	DefaultDueDate *time.Time `gorm:"column:default_due_date;type:date"`
	Active         bool       `gorm:"column:active;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// FeeAssignment binds a fee definition to one roster member. Status is
// derived from the sum of payments against the assignment, never set by
// hand except for waived/canceled.
type FeeAssignment struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EnsembleID      uuid.UUID       `gorm:"column:ensemble_id;type:uuid;not null"`
	FeeDefinitionID uuid.UUID       `gorm:"column:fee_definition_id;type:uuid;not null"`
	StudentID       uuid.UUID       `gorm:"column:student_id;type:uuid;not null"`
	AmountCents     int64           `gorm:"column:amount_cents;not null"`
	DiscountCents   int64           `gorm:"column:discount_cents;not null;default:0"`
	Status          enums.FeeStatus `gorm:"column:status;type:text;not null;default:'invoiced'"`
	DueDate         *time.Time      `gorm:"column:due_date;type:date"`
	Notes           *string         `gorm:"column:notes"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// FeePayment is one append-only payment against an assignment. History is
// never mutated; balances are derived.
type FeePayment struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FeeAssignmentID  uuid.UUID `gorm:"column:fee_assignment_id;type:uuid;not null"`
	AmountCents      int64     `gorm:"column:amount_cents;not null"`
	Currency         string    `gorm:"column:currency;not null;default:'USD'"`
	PaymentProvider  *string   `gorm:"column:payment_provider"`
	ProviderChargeID *string   `gorm:"column:provider_charge_id"`
	PaidAt           time.Time `gorm:"column:paid_at;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}
