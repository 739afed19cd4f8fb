package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/internal/donors"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

const donorReconcileJobName = "donor_aggregate_reconcile"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// DonorReconcileJob sweeps every donor and recomputes the lifetime/YTD
// rollups from the donation rows. Aggregates are maintained inline on every
// donation write, so a non-zero repair count means some write path skipped
// the recompute and needs investigating.
type DonorReconcileJob struct {
	repo donors.Repository
	tx   txRunner
	logg *logger.Logger
	now  func() time.Time
}

// NewDonorReconcileJob builds the nightly aggregate sweep.
func NewDonorReconcileJob(repo donors.Repository, tx txRunner, logg *logger.Logger) (*DonorReconcileJob, error) {
	if repo == nil {
		return nil, errors.New("donors repository is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &DonorReconcileJob{repo: repo, tx: tx, logg: logg, now: time.Now}, nil
}

// Name implements Job.
func (j *DonorReconcileJob) Name() string { return donorReconcileJobName }

// Run implements Job. A failed donor does not stop the sweep; failures are
// collected and reported together so one bad row cannot shadow the rest.
func (j *DonorReconcileJob) Run(ctx context.Context) error {
	ids, err := j.repo.ListAllDonorIDs(ctx)
	if err != nil {
		return fmt.Errorf("list donor ids: %w", err)
	}

	var errs error
	repaired := 0
	for _, donorID := range ids {
		if ctx.Err() != nil {
			return multierr.Append(errs, ctx.Err())
		}
		drifted, err := j.reconcileDonor(ctx, donorID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("donor %s: %w", donorID, err))
			continue
		}
		if drifted {
			repaired++
			j.logg.Warn(j.logg.WithDonorID(ctx, donorID.String()), "donor aggregates drifted; repaired")
		}
	}

	ctx = j.logg.WithField(ctx, "donors_checked", len(ids))
	ctx = j.logg.WithField(ctx, "donors_repaired", repaired)
	j.logg.Info(ctx, "donor aggregate sweep complete")
	return errs
}

func (j *DonorReconcileJob) reconcileDonor(ctx context.Context, donorID uuid.UUID) (bool, error) {
	drifted := false
	err := j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := j.repo.WithTx(tx)
		donor, err := repo.FindDonor(ctx, donorID)
		if err != nil {
			return err
		}
		agg, err := donors.Recompute(ctx, repo, donorID, j.now())
		if err != nil {
			return err
		}
		drifted = donor.LifetimeDonationCents != agg.LifetimeCents ||
			donor.YTDDonationCents != agg.YTDCents ||
			!equalStamp(donor.FirstDonationAt, agg.FirstDonationAt) ||
			!equalStamp(donor.LastDonationAt, agg.LastDonationAt)
		return nil
	})
	return drifted, err
}

func equalStamp(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
