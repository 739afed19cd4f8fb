package roster

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

// Repository defines the roster reads the commerce ledger depends on. Roster
// CRUD itself lives in another service; this side only looks up.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindEnsemble(ctx context.Context, ensembleID uuid.UUID) (*models.Ensemble, error)
	ListActiveMembers(ctx context.Context, ensembleID uuid.UUID) ([]models.RosterMember, error)
	FindMember(ctx context.Context, memberID uuid.UUID) (*models.RosterMember, error)
}
