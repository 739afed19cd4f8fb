package models

import (
	"time"

	"github.com/google/uuid"
)

// StudentSaleLink is the durable one-per-(event, roster member) solicitation
// code; regenerating for the same pair is an upsert no-op.
type StudentSaleLink struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventID    uuid.UUID `gorm:"column:event_id;type:uuid;not null;uniqueIndex:uq_sale_links_event_member"`
	RosterID   uuid.UUID `gorm:"column:roster_id;type:uuid;not null;uniqueIndex:uq_sale_links_event_member"`
	UniqueCode string    `gorm:"column:unique_code;not null;uniqueIndex:uq_sale_links_unique_code"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
