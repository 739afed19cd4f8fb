package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/troupekit/troupe-backend/pkg/enums"
	"github.com/troupekit/troupe-backend/pkg/types"
)

// Donor is a cross-campaign identity keyed by (ensemble, lower(email)). The
// aggregate columns are denormalized rollups over the donor's donations and
// are recomputed, never incremented.
type Donor struct {
	ID                     uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EnsembleID             uuid.UUID      `gorm:"column:ensemble_id;type:uuid;not null"`
	FirstName              *string        `gorm:"column:first_name"`
	LastName               *string        `gorm:"column:last_name"`
	OrganizationName       *string        `gorm:"column:organization_name"`
	Email                  *string        `gorm:"column:email"`
	Phone                  *string        `gorm:"column:phone"`
	AddressLine1           *string        `gorm:"column:address_line1"`
	AddressLine2           *string        `gorm:"column:address_line2"`
	City                   *string        `gorm:"column:city"`
	State                  *string        `gorm:"column:state"`
	PostalCode             *string        `gorm:"column:postal_code"`
	Country                string         `gorm:"column:country;not null;default:'US'"`
	Employer               *string        `gorm:"column:employer"`
	PreferredContactMethod string         `gorm:"column:preferred_contact_method;not null;default:'email'"`
	Tags                   pq.StringArray `gorm:"column:tags;type:text[]"`
	Notes                  *string        `gorm:"column:notes"`
	LifetimeDonationCents  int64          `gorm:"column:lifetime_donation_cents;not null;default:0"`
	YTDDonationCents       int64          `gorm:"column:ytd_donation_cents;not null;default:0"`
	FirstDonationAt        *time.Time     `gorm:"column:first_donation_at"`
	LastDonationAt         *time.Time     `gorm:"column:last_donation_at"`
	CreatedAt              time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt              time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// DonorActivity is one entry in a donor's timeline: a donation, a ticket
// purchase, a note, an email send, or a manual log.
type DonorActivity struct {
	ID         uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EnsembleID uuid.UUID               `gorm:"column:ensemble_id;type:uuid;not null"`
	DonorID    uuid.UUID               `gorm:"column:donor_id;type:uuid;not null"`
	Type       enums.DonorActivityType `gorm:"column:type;type:text;not null"`
	Summary    string                  `gorm:"column:summary;not null"`
	Details    types.JSONMap           `gorm:"column:details;type:jsonb;serializer:json"`
	RelatedID  *uuid.UUID              `gorm:"column:related_id;type:uuid"`
	CreatedAt  time.Time               `gorm:"column:created_at;autoCreateTime"`
}
