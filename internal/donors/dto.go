package donors

import (
	"time"

	"github.com/google/uuid"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

// Identity is the natural key and contact block used to find or create a
// donor. Email is matched case-insensitively within the ensemble.
type Identity struct {
	EnsembleID uuid.UUID
	Email      string
	FirstName  *string
	LastName   *string
}

// Aggregates is the recomputed rollup over a donor's donations.
type Aggregates struct {
	LifetimeCents   int64
	YTDCents        int64
	FirstDonationAt *time.Time
	LastDonationAt  *time.Time
}

// ListFilters narrows the donor list. All fields are optional and combine
// with AND; Search matches name, organization and email.
type ListFilters struct {
	Search           string
	Tag              string
	MinLifetimeCents *int64
	ActiveSince      *time.Time
}

// ActivityInput is one new timeline entry.
type ActivityInput struct {
	Type      string
	Summary   string
	Details   map[string]any
	RelatedID *uuid.UUID
}

// Detail is a donor with their giving history and recent timeline.
type Detail struct {
	Donor      *models.Donor
	Donations  []models.Donation
	Activities []models.DonorActivity
}
