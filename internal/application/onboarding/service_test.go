package onboarding

import (
	"context"
	"testing"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func count(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestBootstrap_CreatesOrgPortfolioAndDemoAsset(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db, DemoAsset: true}
	id := uuid.New()

	res, err := s.Bootstrap(context.Background(), id, "founder@gmail.com")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.Joined)
	assert.Equal(t, "founder@gmail.com's Organization", res.Organization.Name)
	assert.Nil(t, res.Organization.Domain)
	assert.Equal(t, domain.DefaultPortfolioName, res.Portfolio.Name)
	require.NotNil(t, res.Asset)
	assert.Equal(t, "Demo Office Building", res.Asset.Name)
	assert.Equal(t, float64(50000), res.Asset.TotalArea)
	assert.Equal(t, "owner", res.Profile.RoleName())

	var p domain.Profile
	require.NoError(t, db.First(&p, "id = ?", id).Error)
	require.NotNil(t, p.OrganizationID)
	assert.Equal(t, res.Organization.ID, *p.OrganizationID)
}

func TestBootstrap_Idempotent(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db, DemoAsset: true}
	id := uuid.New()

	first, err := s.Bootstrap(context.Background(), id, "solo@gmail.com")
	require.NoError(t, err)
	second, err := s.Bootstrap(context.Background(), id, "solo@gmail.com")
	require.NoError(t, err)

	assert.Equal(t, first.Organization.ID, second.Organization.ID)
	assert.Equal(t, first.Portfolio.ID, second.Portfolio.ID)
	assert.False(t, second.Created)
	assert.Equal(t, int64(1), count(t, db, &domain.Organization{}))
	assert.Equal(t, int64(1), count(t, db, &domain.Portfolio{}))
	assert.Equal(t, int64(1), count(t, db, &domain.Asset{}))
}

func TestBootstrap_ResumesPartialRunByBootstrapKey(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	id := uuid.New()
	key := id.String()
	// Organization left behind by an earlier run that never attached the profile.
	org := domain.Organization{Name: "left over", BootstrapKey: &key}
	require.NoError(t, db.Create(&org).Error)

	res, err := s.Bootstrap(context.Background(), id, "someone@gmail.com")
	require.NoError(t, err)
	assert.Equal(t, org.ID, res.Organization.ID)
	assert.False(t, res.Created)
	assert.Equal(t, int64(1), count(t, db, &domain.Organization{}))
	assert.Nil(t, res.Asset)
}

func TestBootstrap_JoinsByBusinessDomain(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db, DemoAsset: true}

	first, err := s.Bootstrap(context.Background(), uuid.New(), "ceo@acme.com")
	require.NoError(t, err)
	require.NotNil(t, first.Organization.Domain)
	assert.Equal(t, "acme.com", *first.Organization.Domain)

	second, err := s.Bootstrap(context.Background(), uuid.New(), "analyst@ACME.com")
	require.NoError(t, err)
	assert.True(t, second.Joined)
	assert.Equal(t, first.Organization.ID, second.Organization.ID)
	assert.Equal(t, first.Portfolio.ID, second.Portfolio.ID)
	assert.Equal(t, "consultant", second.Profile.RoleName())
	assert.Equal(t, int64(1), count(t, db, &domain.Organization{}))
}

func TestBootstrap_PublicDomainsNeverJoin(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}

	a, err := s.Bootstrap(context.Background(), uuid.New(), "a@gmail.com")
	require.NoError(t, err)
	b, err := s.Bootstrap(context.Background(), uuid.New(), "b@gmail.com")
	require.NoError(t, err)
	assert.NotEqual(t, a.Organization.ID, b.Organization.ID)
	assert.Equal(t, int64(2), count(t, db, &domain.Organization{}))
}

func TestBootstrap_ExistingOrgWithoutPortfolio(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	require.NoError(t, db.Exec("DELETE FROM assets").Error)
	require.NoError(t, db.Exec("DELETE FROM portfolios").Error)

	s := &Service{DB: db, DemoAsset: true}
	res, err := s.Bootstrap(context.Background(), f.Owner.ID, f.Owner.Email)
	require.NoError(t, err)
	assert.Equal(t, f.Org.ID, res.Organization.ID)
	assert.Equal(t, domain.DefaultPortfolioName, res.Portfolio.Name)
	assert.Nil(t, res.Asset)
}

func TestBootstrap_FailureRollsBack(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db, DemoAsset: true}
	require.NoError(t, db.Migrator().DropTable(&domain.Asset{}))

	_, err := s.Bootstrap(context.Background(), uuid.New(), "x@gmail.com")
	require.Error(t, err)
	assert.Equal(t, int64(0), count(t, db, &domain.Organization{}))
	assert.Equal(t, int64(0), count(t, db, &domain.Portfolio{}))
	assert.Equal(t, int64(0), count(t, db, &domain.Profile{}))
}
