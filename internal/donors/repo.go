package donors

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/troupekit/troupe-backend/pkg/db"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a donors repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// InsertIgnoreDonor inserts-or-ignores against the (ensemble_id,
// lower(email)) partial unique index. The returned bool reports whether a
// new row was written; false means a concurrent or earlier insert won and
// the caller should fetch.
func (r *repository) InsertIgnoreDonor(ctx context.Context, donor *models.Donor) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "ensemble_id"},
				{Name: "lower(email)", Raw: true},
			},
			TargetWhere: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "email IS NOT NULL"},
			}},
			DoNothing: true,
		}).
		Create(donor)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindDonor(ctx context.Context, donorID uuid.UUID) (*models.Donor, error) {
	var donor models.Donor
	err := r.db.WithContext(ctx).
		Where("id = ?", donorID).
		First(&donor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donor not found")
		}
		return nil, err
	}
	return &donor, nil
}

func (r *repository) FindDonorByEmail(ctx context.Context, ensembleID uuid.UUID, email string) (*models.Donor, error) {
	var donor models.Donor
	err := r.db.WithContext(ctx).
		Where("ensemble_id = ? AND lower(email) = lower(?)", ensembleID, email).
		First(&donor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donor not found")
		}
		return nil, err
	}
	return &donor, nil
}

func (r *repository) ListDonors(ctx context.Context, ensembleID uuid.UUID, filters ListFilters, params pagination.Params) ([]models.Donor, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Donor{}).
		Where("ensemble_id = ?", ensembleID)

	if filters.Search != "" {
		needle := "%" + filters.Search + "%"
		query = query.Where(
			"first_name LIKE ? OR last_name LIKE ? OR organization_name LIKE ? OR email LIKE ?",
			needle, needle, needle, needle,
		)
	}
	if filters.Tag != "" {
		query = query.Where("? = ANY(tags)", filters.Tag)
	}
	if filters.MinLifetimeCents != nil {
		query = query.Where("lifetime_donation_cents >= ?", *filters.MinLifetimeCents)
	}
	if filters.ActiveSince != nil {
		query = query.Where("last_donation_at >= ?", *filters.ActiveSince)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var donors []models.Donor
	err = query.
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&donors).Error
	if err != nil {
		return nil, err
	}
	return donors, nil
}

func (r *repository) ListDonorIDs(ctx context.Context, ensembleID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Donor{}).
		Where("ensemble_id = ?", ensembleID).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ListAllDonorIDs feeds the aggregate reconciliation job.
func (r *repository) ListAllDonorIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.Donor{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) UpdateDonor(ctx context.Context, donorID uuid.UUID, updates map[string]any) error {
	result := r.db.WithContext(ctx).
		Model(&models.Donor{}).
		Where("id = ?", donorID).
		Updates(updates)
	if result.Error != nil {
		if db.IsUniqueViolation(result.Error, "uq_donors_ensemble_email") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, result.Error, "another donor already uses this email")
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "donor not found")
	}
	return nil
}

func (r *repository) CreateActivity(ctx context.Context, activity *models.DonorActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *repository) ListActivities(ctx context.Context, donorID uuid.UUID, limit int) ([]models.DonorActivity, error) {
	var activities []models.DonorActivity
	err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *repository) FindDonation(ctx context.Context, donationID uuid.UUID) (*models.Donation, error) {
	var donation models.Donation
	err := r.db.WithContext(ctx).
		Where("id = ?", donationID).
		First(&donation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "donation not found")
		}
		return nil, err
	}
	return &donation, nil
}

func (r *repository) ListDonations(ctx context.Context, donorID uuid.UUID) ([]models.Donation, error) {
	var donations []models.Donation
	err := r.db.WithContext(ctx).
		Where("donor_id = ?", donorID).
		Order("created_at DESC").
		Find(&donations).Error
	if err != nil {
		return nil, err
	}
	return donations, nil
}

func (r *repository) AttachDonationDonor(ctx context.Context, donationID, donorID uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("id = ?", donationID).
		Update("donor_id", donorID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "donation not found")
	}
	return nil
}

// DonationAggregates recomputes the rollup from the donation rows. The
// year-to-date window boundary is computed by the caller so the query stays
// portable.
func (r *repository) DonationAggregates(ctx context.Context, donorID uuid.UUID, ytdStart time.Time) (*Aggregates, error) {
	var row struct {
		LifetimeCents int64
		YTDCents      int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Select(
			"COALESCE(SUM(amount_cents), 0) AS lifetime_cents, "+
				"COALESCE(SUM(CASE WHEN created_at >= ? THEN amount_cents ELSE 0 END), 0) AS ytd_cents",
			ytdStart,
		).
		Where("donor_id = ?", donorID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	first, err := r.donationBoundary(ctx, donorID, "ASC")
	if err != nil {
		return nil, err
	}
	last, err := r.donationBoundary(ctx, donorID, "DESC")
	if err != nil {
		return nil, err
	}

	return &Aggregates{
		LifetimeCents:   row.LifetimeCents,
		YTDCents:        row.YTDCents,
		FirstDonationAt: first,
		LastDonationAt:  last,
	}, nil
}

func (r *repository) donationBoundary(ctx context.Context, donorID uuid.UUID, direction string) (*time.Time, error) {
	var stamps []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.Donation{}).
		Where("donor_id = ?", donorID).
		Order("created_at "+direction).
		Limit(1).
		Pluck("created_at", &stamps).Error
	if err != nil {
		return nil, err
	}
	if len(stamps) == 0 {
		return nil, nil
	}
	return &stamps[0], nil
}

func (r *repository) SaveAggregates(ctx context.Context, donorID uuid.UUID, agg Aggregates) error {
	result := r.db.WithContext(ctx).
		Model(&models.Donor{}).
		Where("id = ?", donorID).
		Updates(map[string]any{
			"lifetime_donation_cents": agg.LifetimeCents,
			"ytd_donation_cents":      agg.YTDCents,
			"first_donation_at":       agg.FirstDonationAt,
			"last_donation_at":        agg.LastDonationAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "donor not found")
	}
	return nil
}
