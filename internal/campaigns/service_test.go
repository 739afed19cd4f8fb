package campaigns

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/internal/roster"
	"github.com/troupekit/troupe-backend/pkg/db/models"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
	"github.com/troupekit/troupe-backend/pkg/logger"
)

type stubCampaignsRepo struct {
	campaign          *models.Campaign
	participants      []models.CampaignParticipant
	createCampaign    func(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error)
	upsertParticipant func(ctx context.Context, participant *models.CampaignParticipant) (bool, error)
	findParticipant   func(ctx context.Context, campaignID, studentID uuid.UUID) (*models.CampaignParticipant, error)
}

func (s *stubCampaignsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCampaignsRepo) CreateCampaign(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
	if s.createCampaign != nil {
		return s.createCampaign(ctx, campaign)
	}
	if campaign.ID == uuid.Nil {
		campaign.ID = uuid.New()
	}
	s.campaign = campaign
	return campaign, nil
}

func (s *stubCampaignsRepo) FindCampaign(ctx context.Context, campaignID uuid.UUID) (*models.Campaign, error) {
	if s.campaign == nil || s.campaign.ID != campaignID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign not found")
	}
	return s.campaign, nil
}

func (s *stubCampaignsRepo) UpsertParticipant(ctx context.Context, participant *models.CampaignParticipant) (bool, error) {
	if s.upsertParticipant != nil {
		return s.upsertParticipant(ctx, participant)
	}
	if participant.ID == uuid.Nil {
		participant.ID = uuid.New()
	}
	s.participants = append(s.participants, *participant)
	return true, nil
}

func (s *stubCampaignsRepo) FindParticipant(ctx context.Context, campaignID, studentID uuid.UUID) (*models.CampaignParticipant, error) {
	if s.findParticipant != nil {
		return s.findParticipant(ctx, campaignID, studentID)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "campaign participant not found")
}

func (s *stubCampaignsRepo) ListParticipants(ctx context.Context, campaignID uuid.UUID) ([]models.CampaignParticipant, error) {
	return s.participants, nil
}

type fakeRoster struct {
	members []models.RosterMember
	listErr error
}

func (f *fakeRoster) WithTx(tx *gorm.DB) roster.Repository { return f }

func (f *fakeRoster) FindEnsemble(ctx context.Context, ensembleID uuid.UUID) (*models.Ensemble, error) {
	return &models.Ensemble{ID: ensembleID}, nil
}

func (f *fakeRoster) ListActiveMembers(ctx context.Context, ensembleID uuid.UUID) ([]models.RosterMember, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.members, nil
}

func (f *fakeRoster) FindMember(ctx context.Context, memberID uuid.UUID) (*models.RosterMember, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "member not found")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func members(n int) []models.RosterMember {
	out := make([]models.RosterMember, 0, n)
	names := []string{"Ana", "Ben", "Cleo", "Dev", "Elif"}
	for i := 0; i < n; i++ {
		out = append(out, models.RosterMember{ID: uuid.New(), FirstName: names[i%len(names)], LastName: "Reyes"})
	}
	return out
}

func TestCreateCampaign_SeedsOneParticipantPerMember(t *testing.T) {
	repo := &stubCampaignsRepo{}
	ensembleID := uuid.New()
	goal := int64(10000)
	svc := NewService(repo, &fakeRoster{members: members(3)}, stubTxRunner{}, testLogger())

	result, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		DirectorID:          uuid.New(),
		EnsembleID:          &ensembleID,
		Name:                "Spring Trip Fund",
		PerStudentGoalCents: &goal,
	})
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}

	if result.Seeded != 3 {
		t.Fatalf("seeded = %d, want 3", result.Seeded)
	}
	if len(result.Participants) != 3 {
		t.Fatalf("participants = %d, want 3", len(result.Participants))
	}
	tokens := map[string]bool{}
	for _, p := range result.Participants {
		if p.Token == "" {
			t.Fatal("participant missing token")
		}
		if tokens[p.Token] {
			t.Fatalf("duplicate participant token %q", p.Token)
		}
		tokens[p.Token] = true
		if p.PersonalGoalCents == nil || *p.PersonalGoalCents != 10000 {
			t.Fatalf("personal goal = %v, want 10000", p.PersonalGoalCents)
		}
		if p.TotalRaisedCents != 0 {
			t.Fatalf("total raised = %d, want 0", p.TotalRaisedCents)
		}
	}
	if result.Campaign.Slug == "" {
		t.Fatal("campaign missing slug")
	}
}

func TestCreateCampaign_NoEnsembleSkipsSeeding(t *testing.T) {
	repo := &stubCampaignsRepo{}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger())

	result, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		DirectorID: uuid.New(),
		Name:       "Alumni Drive",
	})
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	if result.Seeded != 0 || len(result.Participants) != 0 {
		t.Fatalf("expected no seeding, got %d participants", len(result.Participants))
	}
}

func TestCreateCampaign_SlugCollisionGetsTimestampSeed(t *testing.T) {
	attempts := 0
	var slugs []string
	repo := &stubCampaignsRepo{
		createCampaign: func(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
			attempts++
			slugs = append(slugs, campaign.Slug)
			if attempts == 1 {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "campaign slug already taken")
			}
			campaign.ID = uuid.New()
			return campaign, nil
		},
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger())

	result, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		DirectorID: uuid.New(),
		Name:       "Spring Trip Fund",
	})
	if err != nil {
		t.Fatalf("CreateCampaign returned error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 insert attempts, got %d", attempts)
	}
	if len(slugs[1]) <= len(slugs[0]) {
		t.Fatalf("expected timestamped retry slug to be longer: %q then %q", slugs[0], slugs[1])
	}
	if result.Campaign.Slug != slugs[1] {
		t.Fatalf("result slug %q does not match inserted %q", result.Campaign.Slug, slugs[1])
	}
}

func TestCreateCampaign_SlugExhaustionIsConflict(t *testing.T) {
	repo := &stubCampaignsRepo{
		createCampaign: func(ctx context.Context, campaign *models.Campaign) (*models.Campaign, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "campaign slug already taken")
		},
	}
	svc := NewService(repo, &fakeRoster{}, stubTxRunner{}, testLogger())

	_, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		DirectorID: uuid.New(),
		Name:       "Spring Trip Fund",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}

func TestCreateCampaign_RosterFailureRollsBack(t *testing.T) {
	ensembleID := uuid.New()
	repo := &stubCampaignsRepo{}
	svc := NewService(repo, &fakeRoster{listErr: pkgerrors.New(pkgerrors.CodeDependency, "roster unavailable")}, stubTxRunner{}, testLogger())

	_, err := svc.CreateCampaign(context.Background(), CreateCampaignInput{
		DirectorID: uuid.New(),
		EnsembleID: &ensembleID,
		Name:       "Spring Trip Fund",
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestSeedParticipants_ReRunKeepsExistingRows(t *testing.T) {
	ensembleID := uuid.New()
	roster := members(2)
	campaign := &models.Campaign{ID: uuid.New(), EnsembleID: &ensembleID, Name: "Spring Trip Fund", Slug: "spring-trip-fund-aaaaa"}
	existing := models.CampaignParticipant{
		ID: uuid.New(), CampaignID: campaign.ID, StudentID: roster[0].ID,
		Token: "ana-reyes-k3m2q", TotalRaisedCents: 2500,
	}
	repo := &stubCampaignsRepo{
		campaign: campaign,
		upsertParticipant: func(ctx context.Context, participant *models.CampaignParticipant) (bool, error) {
			if participant.StudentID == existing.StudentID {
				return false, nil
			}
			participant.ID = uuid.New()
			return true, nil
		},
		findParticipant: func(ctx context.Context, campaignID, studentID uuid.UUID) (*models.CampaignParticipant, error) {
			return &existing, nil
		},
	}
	svc := NewService(repo, &fakeRoster{members: roster}, stubTxRunner{}, testLogger())

	result, err := svc.SeedParticipants(context.Background(), campaign.ID)
	if err != nil {
		t.Fatalf("SeedParticipants returned error: %v", err)
	}
	if result.Seeded != 1 {
		t.Fatalf("seeded = %d, want 1", result.Seeded)
	}
	if len(result.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(result.Participants))
	}
	if result.Participants[0].Token != existing.Token {
		t.Fatalf("existing token %q not preserved, got %q", existing.Token, result.Participants[0].Token)
	}
	if result.Participants[0].TotalRaisedCents != 2500 {
		t.Fatalf("existing raised total not preserved: %d", result.Participants[0].TotalRaisedCents)
	}
}
