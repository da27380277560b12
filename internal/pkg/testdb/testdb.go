// Package testdb opens migrated in-memory databases and seeds common rows for tests.
package testdb

import (
	"testing"
	"time"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/infrastructure/database"
	"greenledger-backend/internal/pkg/constants"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a migrated SQLite database. A single connection keeps every query on
// the same in-memory database.
func Open(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: database.NewLogger(gormlogger.Silent, 0)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// Fixture is one organization with an owner, a portfolio and an asset.
type Fixture struct {
	Org       domain.Organization
	Owner     domain.Profile
	Portfolio domain.Portfolio
	Asset     domain.Asset
}

// Principal returns the owner as an authenticated caller.
func (f *Fixture) Principal() *domain.Principal {
	return domain.PrincipalFromProfile(&f.Owner)
}

// Seed creates a Fixture named after name (e.g. "acme").
func Seed(t *testing.T, db *gorm.DB, name string) *Fixture {
	t.Helper()
	f := &Fixture{}
	f.Org = domain.Organization{Name: name}
	require.NoError(t, db.Create(&f.Org).Error)

	role := constants.Owner
	f.Owner = domain.Profile{ID: uuid.New(), Email: "owner@" + name + ".test", Role: &role, OrganizationID: &f.Org.ID}
	require.NoError(t, db.Create(&f.Owner).Error)

	f.Portfolio = domain.Portfolio{OrganizationID: f.Org.ID, Name: name + " Portfolio"}
	require.NoError(t, db.Create(&f.Portfolio).Error)

	f.Asset = domain.Asset{
		PortfolioID: f.Portfolio.ID,
		Name:        name + " Tower",
		AssetType:   domain.AssetTypeOffice,
		Address:     "1 Main Street",
		TotalArea:   10000,
	}
	require.NoError(t, db.Create(&f.Asset).Error)
	return f
}

// AddMember creates a profile in f's organization with role.
func AddMember(t *testing.T, db *gorm.DB, f *Fixture, email, role string) *domain.Profile {
	t.Helper()
	p := &domain.Profile{ID: uuid.New(), Email: email, Role: &role, OrganizationID: &f.Org.ID}
	require.NoError(t, db.Create(p).Error)
	return p
}

// Project creates an active project with the given price and stock.
func Project(t *testing.T, db *gorm.DB, name string, price int64, available int64) *domain.Project {
	t.Helper()
	p := &domain.Project{
		Name:             name,
		ProjectType:      "reforestation",
		PricePerCredit:   decimal.NewFromInt(price),
		AvailableCredits: available,
		Status:           domain.ProjectActive,
		CreatedAt:        time.Now().UTC(),
	}
	require.NoError(t, db.Create(p).Error)
	return p
}
