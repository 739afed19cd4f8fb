package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/pkg/enums"
)

// Ensemble is the organization unit everything hangs off: roster, events,
// campaigns, fees. CRUD lives outside this service; the ledger only reads.
type Ensemble struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DirectorID uuid.UUID `gorm:"column:director_id;type:uuid;not null"`
	Name       string    `gorm:"column:name;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// RosterMember is one student in an ensemble. The ledger reads active
// members when seeding campaign participants and sale links.
type RosterMember struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EnsembleID uuid.UUID          `gorm:"column:ensemble_id;type:uuid;not null"`
	FirstName  string             `gorm:"column:first_name;not null"`
	LastName   string             `gorm:"column:last_name;not null"`
	Email      *string            `gorm:"column:email"`
	Status     enums.MemberStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
