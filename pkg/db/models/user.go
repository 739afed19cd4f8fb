package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a director account. Auth lives elsewhere; the ledger only needs
// identity for ownership checks.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:uq_users_email"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
