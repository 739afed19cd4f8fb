package models

import (
	"time"

	"github.com/google/uuid"
)

// Campaign is a fundraising drive. Slug is unique across the whole system.
type Campaign struct {
	ID                  uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DirectorID          uuid.UUID  `gorm:"column:director_id;type:uuid;not null"`
	EnsembleID          *uuid.UUID `gorm:"column:ensemble_id;type:uuid"`
	Name                string     `gorm:"column:name;not null"`
	Slug                string     `gorm:"column:slug;not null;uniqueIndex:uq_campaigns_slug"`
	Description         *string    `gorm:"column:description"`
	GoalAmountCents     *int64     `gorm:"column:goal_amount_cents"`
	PerStudentGoalCents *int64     `gorm:"column:per_student_goal_cents"`
	StartsAt            *time.Time `gorm:"column:starts_at"`
	EndsAt              *time.Time `gorm:"column:ends_at"`
	IsActive            bool       `gorm:"column:is_active;not null"`
	CreatedAt           time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// CampaignParticipant joins a campaign to one roster member and carries the
// member's public solicitation token. TotalRaisedCents is derived: it must
// always equal the sum of donations attributed to the participant.
type CampaignParticipant struct {
	ID                uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CampaignID        uuid.UUID  `gorm:"column:campaign_id;type:uuid;not null;uniqueIndex:uq_participants_campaign_student"`
	StudentID         uuid.UUID  `gorm:"column:student_id;type:uuid;not null;uniqueIndex:uq_participants_campaign_student"`
	Token             string     `gorm:"column:token;not null;uniqueIndex:uq_participants_token"`
	PersonalGoalCents *int64     `gorm:"column:personal_goal_cents"`
	TotalRaisedCents  int64      `gorm:"column:total_raised_cents;not null;default:0"`
	LastDonationAt    *time.Time `gorm:"column:last_donation_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
