package donors

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
	"github.com/troupekit/troupe-backend/pkg/pagination"
	"github.com/troupekit/troupe-backend/pkg/types"
)

// recentActivityLimit bounds the timeline slice on the donor detail view.
const recentActivityLimit = 20

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the donor CRM and aggregate operations.
type Service interface {
	GetDonor(ctx context.Context, donorID uuid.UUID) (*Detail, error)
	ListDonors(ctx context.Context, ensembleID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Donor, error)
	UpdateDonor(ctx context.Context, donorID uuid.UUID, updates map[string]any) (*models.Donor, error)
	AppendActivity(ctx context.Context, donorID uuid.UUID, input ActivityInput) (*models.DonorActivity, error)
	LinkDonation(ctx context.Context, donorID, donationID uuid.UUID) error
	Recompute(ctx context.Context, donorID uuid.UUID) (*Aggregates, error)
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewService wires the donors service.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) Service {
	return &service{repo: repo, tx: tx, logg: logg, now: time.Now}
}

// FindOrCreate resolves a donor by (ensemble, lower(email)), creating the
// row on first sight. Concurrency-safe: two racing callers both end up with
// the same donor because the insert-or-ignore leaves exactly one row and
// the loser falls through to the fetch. The repo may be transaction-bound.
func FindOrCreate(ctx context.Context, repo Repository, identity Identity) (*models.Donor, bool, error) {
	email := strings.TrimSpace(identity.Email)
	if email == "" {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "donor email is required")
	}

	donor := &models.Donor{
		EnsembleID: identity.EnsembleID,
		Email:      &email,
		FirstName:  identity.FirstName,
		LastName:   identity.LastName,
	}
	inserted, err := repo.InsertIgnoreDonor(ctx, donor)
	if err != nil {
		return nil, false, err
	}
	if inserted {
		return donor, true, nil
	}

	existing, err := repo.FindDonorByEmail(ctx, identity.EnsembleID, email)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Recompute rebuilds a donor's aggregate columns from the donation rows.
// It is a full recompute rather than an increment, so it is safe to call
// after any donation mutation, including re-attribution. The repo may be
// transaction-bound; the recompute then commits with the mutation.
func Recompute(ctx context.Context, repo Repository, donorID uuid.UUID, now time.Time) (*Aggregates, error) {
	ytdStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	agg, err := repo.DonationAggregates(ctx, donorID, ytdStart)
	if err != nil {
		return nil, err
	}
	if err := repo.SaveAggregates(ctx, donorID, *agg); err != nil {
		return nil, err
	}
	return agg, nil
}

func (s *service) GetDonor(ctx context.Context, donorID uuid.UUID) (*Detail, error) {
	donor, err := s.repo.FindDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}
	donations, err := s.repo.ListDonations(ctx, donorID)
	if err != nil {
		return nil, err
	}
	activities, err := s.repo.ListActivities(ctx, donorID, recentActivityLimit)
	if err != nil {
		return nil, err
	}
	return &Detail{Donor: donor, Donations: donations, Activities: activities}, nil
}

func (s *service) ListDonors(ctx context.Context, ensembleID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Donor, error) {
	return s.repo.ListDonors(ctx, ensembleID, filters, params)
}

var donorUpdatableFields = map[string]bool{
	"first_name": true, "last_name": true, "organization_name": true,
	"email": true, "phone": true,
	"address_line1": true, "address_line2": true, "city": true,
	"state": true, "postal_code": true, "country": true,
	"employer": true, "preferred_contact_method": true,
	"tags": true, "notes": true,
}

func (s *service) UpdateDonor(ctx context.Context, donorID uuid.UUID, updates map[string]any) (*models.Donor, error) {
	for key := range updates {
		if !donorUpdatableFields[key] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "field cannot be updated").
				WithDetails(map[string]string{key: "is not updatable"})
		}
	}
	if len(updates) == 0 {
		return s.repo.FindDonor(ctx, donorID)
	}
	if err := s.repo.UpdateDonor(ctx, donorID, updates); err != nil {
		return nil, err
	}
	return s.repo.FindDonor(ctx, donorID)
}

func (s *service) AppendActivity(ctx context.Context, donorID uuid.UUID, input ActivityInput) (*models.DonorActivity, error) {
	activityType, err := enums.ParseDonorActivityType(input.Type)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid activity type").
			WithDetails(map[string]string{"type": "is invalid"})
	}
	if strings.TrimSpace(input.Summary) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "activity summary is required")
	}

	donor, err := s.repo.FindDonor(ctx, donorID)
	if err != nil {
		return nil, err
	}

	activity := &models.DonorActivity{
		EnsembleID: donor.EnsembleID,
		DonorID:    donorID,
		Type:       activityType,
		Summary:    input.Summary,
		Details:    types.JSONMap(input.Details),
		RelatedID:  input.RelatedID,
	}
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// LinkDonation attributes a donation to a donor after the fact. Both the
// new donor and, on re-attribution, the previous one get a full recompute
// in the same transaction as the pointer swap.
func (s *service) LinkDonation(ctx context.Context, donorID, donationID uuid.UUID) error {
	donor, err := s.repo.FindDonor(ctx, donorID)
	if err != nil {
		return err
	}
	donation, err := s.repo.FindDonation(ctx, donationID)
	if err != nil {
		return err
	}
	if donation.DonorID != nil && *donation.DonorID == donorID {
		return nil
	}
	previousDonorID := donation.DonorID

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.AttachDonationDonor(ctx, donationID, donorID); err != nil {
			return err
		}
		if _, err := Recompute(ctx, repo, donorID, s.now()); err != nil {
			return err
		}
		if previousDonorID != nil {
			if _, err := Recompute(ctx, repo, *previousDonorID, s.now()); err != nil {
				return err
			}
		}

		summary := "Donation linked to donor"
		return repo.CreateActivity(ctx, &models.DonorActivity{
			EnsembleID: donor.EnsembleID,
			DonorID:    donorID,
			Type:       enums.DonorActivityDonation,
			Summary:    summary,
			Details: types.JSONMap{
				"donation_id":  donationID.String(),
				"amount_cents": donation.AmountCents,
			},
			RelatedID: &donationID,
		})
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return err
		}
		return pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "link donation")
	}

	s.logg.Info(s.logg.WithDonorID(ctx, donorID.String()), "donation re-attributed")
	return nil
}

func (s *service) Recompute(ctx context.Context, donorID uuid.UUID) (*Aggregates, error) {
	if _, err := s.repo.FindDonor(ctx, donorID); err != nil {
		return nil, err
	}

	var agg *Aggregates
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		recomputed, err := Recompute(ctx, s.repo.WithTx(tx), donorID, s.now())
		if err != nil {
			return err
		}
		agg = recomputed
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "recompute donor aggregates")
	}
	return agg, nil
}
