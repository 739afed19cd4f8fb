package campaigns

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/internal/roster"
	"github.com/troupekit/troupe-backend/pkg/codes"
	"github.com/troupekit/troupe-backend/pkg/db"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

// slugAttempts bounds the campaign-slug insert loop. The first retry swaps
// to a timestamped seed so slugs stay readable instead of piling up random
// suffixes.
const slugAttempts = 3

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the campaign ledger operations.
type Service interface {
	CreateCampaign(ctx context.Context, input CreateCampaignInput) (*CampaignResult, error)
	GetCampaign(ctx context.Context, campaignID uuid.UUID) (*CampaignResult, error)
	SeedParticipants(ctx context.Context, campaignID uuid.UUID) (*CampaignResult, error)
}

type service struct {
	repo   Repository
	roster roster.Repository
	tx     txRunner
	logg   *logger.Logger
}

// NewService wires the campaigns service.
func NewService(repo Repository, rosterRepo roster.Repository, tx txRunner, logg *logger.Logger) Service {
	return &service{repo: repo, roster: rosterRepo, tx: tx, logg: logg}
}

// CreateCampaign opens a fundraising drive and seeds one participant per
// active roster member, all in one transaction. A failure anywhere rolls the
// whole campaign back; a campaign with half a roster is never visible.
func (s *service) CreateCampaign(ctx context.Context, input CreateCampaignInput) (*CampaignResult, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign name is required")
	}
	if input.GoalCents != nil && *input.GoalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign goal cannot be negative")
	}
	if input.PerStudentGoalCents != nil && *input.PerStudentGoalCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "per-student goal cannot be negative")
	}

	var result CampaignResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		campaign, err := s.insertWithUniqueSlug(ctx, tx, repo, input)
		if err != nil {
			return err
		}
		ctx := s.logg.WithCampaignID(ctx, campaign.ID.String())

		result = CampaignResult{Campaign: campaign}
		if input.EnsembleID == nil {
			return nil
		}

		participants, seeded, err := s.seed(ctx, tx, repo, campaign)
		if err != nil {
			return err
		}
		result.Participants = participants
		result.Seeded = seeded
		s.logg.Info(ctx, fmt.Sprintf("campaign created with %d participants", seeded))
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "create campaign")
	}

	return &result, nil
}

// insertWithUniqueSlug draws a slug from the campaign name and inserts. On
// the first collision the seed gains a timestamp; the budget is three
// attempts total.
func (s *service) insertWithUniqueSlug(ctx context.Context, tx *gorm.DB, repo Repository, input CreateCampaignInput) (*models.Campaign, error) {
	seed := fmt.Sprintf("%s %d", input.Name, time.Now().Year())
	var lastErr error
	for attempt := 0; attempt < slugAttempts; attempt++ {
		slugValue, err := codes.Generate(seed)
		if err != nil {
			return nil, err
		}

		campaign := &models.Campaign{
			DirectorID:          input.DirectorID,
			EnsembleID:          input.EnsembleID,
			Name:                input.Name,
			Slug:                slugValue,
			Description:         input.Description,
			GoalAmountCents:     input.GoalCents,
			PerStudentGoalCents: input.PerStudentGoalCents,
			StartsAt:            input.StartsAt,
			EndsAt:              input.EndsAt,
			IsActive:            true,
		}
		var created *models.Campaign
		err = db.WithSavepoint(tx, "campaign_slug", func() error {
			var insertErr error
			created, insertErr = repo.CreateCampaign(ctx, campaign)
			return insertErr
		})
		if err == nil {
			return created, nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
			return nil, err
		}
		lastErr = err
		seed = fmt.Sprintf("%s %d", input.Name, time.Now().Unix())
	}
	return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, lastErr, "exhausted campaign slug attempts")
}

// seed inserts one participant per active roster member, skipping members
// that already have a row for this campaign.
func (s *service) seed(ctx context.Context, tx *gorm.DB, repo Repository, campaign *models.Campaign) ([]models.CampaignParticipant, int, error) {
	if campaign.EnsembleID == nil {
		return nil, 0, nil
	}
	members, err := s.roster.ListActiveMembers(ctx, *campaign.EnsembleID)
	if err != nil {
		return nil, 0, err
	}

	participants := make([]models.CampaignParticipant, 0, len(members))
	seeded := 0
	for _, member := range members {
		seedText := fmt.Sprintf("%s %s", member.FirstName, member.LastName)
		var participant models.CampaignParticipant
		inserted := false
		_, err := codes.InsertUnique(ctx, seedText, func(ctx context.Context, token string) error {
			participant = models.CampaignParticipant{
				CampaignID:        campaign.ID,
				StudentID:         member.ID,
				Token:             token,
				PersonalGoalCents: campaign.PerStudentGoalCents,
			}
			return db.WithSavepoint(tx, "participant_token", func() error {
				wrote, upsertErr := repo.UpsertParticipant(ctx, &participant)
				inserted = wrote
				return upsertErr
			})
		})
		if err != nil {
			return nil, 0, err
		}
		if inserted {
			seeded++
		} else {
			existing, findErr := repo.FindParticipant(ctx, campaign.ID, member.ID)
			if findErr != nil {
				return nil, 0, findErr
			}
			participant = *existing
		}
		participants = append(participants, participant)
	}
	return participants, seeded, nil
}

func (s *service) GetCampaign(ctx context.Context, campaignID uuid.UUID) (*CampaignResult, error) {
	campaign, err := s.repo.FindCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	participants, err := s.repo.ListParticipants(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return &CampaignResult{Campaign: campaign, Participants: participants}, nil
}

// SeedParticipants re-runs roster seeding for an existing campaign. Members
// seeded earlier keep their token and raised total; only newcomers get rows.
func (s *service) SeedParticipants(ctx context.Context, campaignID uuid.UUID) (*CampaignResult, error) {
	campaign, err := s.repo.FindCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.EnsembleID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "campaign has no ensemble to seed from")
	}

	var result CampaignResult
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		participants, seeded, seedErr := s.seed(ctx, tx, repo, campaign)
		if seedErr != nil {
			return seedErr
		}
		result = CampaignResult{Campaign: campaign, Participants: participants, Seeded: seeded}
		return nil
	})
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeTransactionFailed, err, "seed participants")
	}
	return &result, nil
}
