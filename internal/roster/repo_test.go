package roster

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/troupekit/troupe-backend/pkg/db/models"
	"github.com/troupekit/troupe-backend/pkg/enums"
	pkgerrors "github.com/troupekit/troupe-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	require.NoError(t, conn.Exec(`CREATE TABLE ensembles (
		id TEXT PRIMARY KEY,
		director_id TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	require.NoError(t, conn.Exec(`CREATE TABLE roster_members (
		id TEXT PRIMARY KEY,
		ensemble_id TEXT NOT NULL,
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		created_at DATETIME,
		updated_at DATETIME
	)`).Error)
	return conn
}

func seedEnsemble(t *testing.T, db *gorm.DB) *models.Ensemble {
	t.Helper()
	ensemble := &models.Ensemble{ID: uuid.New(), DirectorID: uuid.New(), Name: "Wind Symphony"}
	require.NoError(t, db.Create(ensemble).Error)
	return ensemble
}

func TestListActiveMembers_FiltersInactive(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ensemble := seedEnsemble(t, db)

	active := &models.RosterMember{ID: uuid.New(), EnsembleID: ensemble.ID, FirstName: "Ana", LastName: "Reyes", Status: enums.MemberStatusActive}
	alumni := &models.RosterMember{ID: uuid.New(), EnsembleID: ensemble.ID, FirstName: "Ben", LastName: "Okafor", Status: enums.MemberStatusAlumni}
	require.NoError(t, db.Create(active).Error)
	require.NoError(t, db.Create(alumni).Error)

	members, err := repo.ListActiveMembers(context.Background(), ensemble.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, active.ID, members[0].ID)
}

func TestFindEnsemble_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)

	_, err := repo.FindEnsemble(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestFindMember(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	ensemble := seedEnsemble(t, db)

	member := &models.RosterMember{ID: uuid.New(), EnsembleID: ensemble.ID, FirstName: "Cleo", LastName: "Vance", Status: enums.MemberStatusActive}
	require.NoError(t, db.Create(member).Error)

	found, err := repo.FindMember(context.Background(), member.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cleo", found.FirstName)

	_, err = repo.FindMember(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
