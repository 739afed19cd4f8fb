package donors

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/pagination"
)

// Repository defines persistence operations for the donor CRM tables and
// the donation reads the aggregate engine depends on.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	InsertIgnoreDonor(ctx context.Context, donor *models.Donor) (bool, error)
	FindDonor(ctx context.Context, donorID uuid.UUID) (*models.Donor, error)
	FindDonorByEmail(ctx context.Context, ensembleID uuid.UUID, email string) (*models.Donor, error)
	ListDonors(ctx context.Context, ensembleID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Donor, error)
	ListDonorIDs(ctx context.Context, ensembleID uuid.UUID) ([]uuid.UUID, error)
	ListAllDonorIDs(ctx context.Context) ([]uuid.UUID, error)
	UpdateDonor(ctx context.Context, donorID uuid.UUID, updates map[string]any) error

	CreateActivity(ctx context.Context, activity *models.DonorActivity) error
	ListActivities(ctx context.Context, donorID uuid.UUID, limit int) ([]models.DonorActivity, error)

	FindDonation(ctx context.Context, donationID uuid.UUID) (*models.Donation, error)
	ListDonations(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error)
	AttachDonationDonor(ctx context.Context, donationID, donorID uuid.UUID) error
	DonationAggregates(ctx context.Context, donorID uuid.UUID, ytdStart time.Time) (*Aggregates, error)
	SaveAggregates(ctx context.Context, donorID uuid.UUID, agg Aggregates) error
}
