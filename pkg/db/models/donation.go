package models

import (
	"time"

	"github.com/google/uuid"
)

// Donation is one confirmed external payment attributed to a campaign.
// ExternalPaymentRef is the idempotency boundary: at most one row per
// confirmation identifier, enforced by the unique index and nothing else.
type Donation struct {
	ID                 uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID         uuid.UUID  `gorm:"column:campaign_id;type:uuid;not null"`
	StudentID          *uuid.UUID `gorm:"column:student_id;type:uuid"`
	ParticipantID      *uuid.UUID `gorm:"column:participant_id;type:uuid"`
	DonorID            *uuid.UUID `gorm:"column:donor_id;type:uuid"`
	ExternalPaymentRef string     `gorm:"column:external_payment_ref;not null;uniqueIndex:uq_donations_external_payment_ref"`
	AmountCents        int64      `gorm:"column:amount_cents;not null"`
	Currency           string     `gorm:"column:currency;not null;default:'usd'"`
	DonorName          *string    `gorm:"column:donor_name"`
	DonorEmail         *string    `gorm:"column:donor_email"`
	IsAnonymous        bool       `gorm:"column:is_anonymous;not null;default:false"`
	Message            *string    `gorm:"column:message"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
}
