package payments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`CREATE TABLE campaigns (
		id TEXT PRIMARY KEY,
		director_id TEXT NOT NULL,
		ensemble_id TEXT,
		name TEXT NOT NULL,
		slug TEXT NOT NULL,
		description TEXT,
		goal_amount_cents INTEGER,
		per_student_goal_cents INTEGER,
		starts_at DATETIME,
		ends_at DATETIME,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	require.NoError(t, conn.Exec(`CREATE TABLE campaign_participants (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		student_id TEXT NOT NULL,
		token TEXT NOT NULL,
		personal_goal_cents INTEGER,
		total_raised_cents INTEGER NOT NULL DEFAULT 0,
		last_donation_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	require.NoError(t, conn.Exec(`CREATE TABLE donations (
		id TEXT PRIMARY KEY,
		campaign_id TEXT NOT NULL,
		student_id TEXT,
		participant_id TEXT,
		donor_id TEXT,
		external_payment_ref TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		currency TEXT NOT NULL DEFAULT 'usd',
		donor_name TEXT,
		donor_email TEXT,
		is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
		message TEXT,
		created_at DATETIME,
		CONSTRAINT uq_donations_external_payment_ref UNIQUE (external_payment_ref)
	)`).Error)
	return conn
}

func TestInsertIgnoreDonation_ReplayLeavesOneRow(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)
	campaignID := uuid.New()

	first := &models.Donation{ID: uuid.New(), CampaignID: campaignID, ExternalPaymentRef: "p1", AmountCents: 2500}
	inserted, err := repo.InsertIgnoreDonation(context.Background(), first)
	require.NoError(t, err)
	assert.True(t, inserted)

	replay := &models.Donation{ID: uuid.New(), CampaignID: campaignID, ExternalPaymentRef: "p1", AmountCents: 2500}
	inserted, err = repo.InsertIgnoreDonation(context.Background(), replay)
	require.NoError(t, err)
	assert.False(t, inserted)

	var count int64
	require.NoError(t, conn.Model(&models.Donation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	recorded, err := repo.FindDonationByRef(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, recorded.ID)
	assert.Equal(t, int64(2500), recorded.AmountCents)
}

func TestCreditParticipant_Accumulates(t *testing.T) {
	conn := newTestDB(t)
	repo := NewRepository(conn)

	participant := &models.CampaignParticipant{ID: uuid.New(), CampaignID: uuid.New(), StudentID: uuid.New(), Token: "ana-k3m2q"}
	require.NoError(t, conn.Create(participant).Error)

	now := time.Now().UTC()
	require.NoError(t, repo.CreditParticipant(context.Background(), participant.ID, 2500, now))
	require.NoError(t, repo.CreditParticipant(context.Background(), participant.ID, 1000, now.Add(time.Minute)))

	credited, err := repo.FindParticipant(context.Background(), participant.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3500), credited.TotalRaisedCents)
	require.NotNil(t, credited.LastDonationAt)
	assert.WithinDuration(t, now.Add(time.Minute), *credited.LastDonationAt, time.Second)
}
