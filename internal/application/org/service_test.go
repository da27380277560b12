package org

import (
	"context"
	"testing"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProfile(t *testing.T, db *gorm.DB, email string) *domain.Principal {
	t.Helper()
	p := domain.Profile{ID: uuid.New(), Email: email}
	require.NoError(t, db.Create(&p).Error)
	return domain.PrincipalFromProfile(&p)
}

func TestCreateOrganization(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	caller := newProfile(t, db, "ceo@acme.com")
	d := "ACME.com"

	org, err := s.CreateOrganization(context.Background(), caller, CreateOrgInput{Name: "Acme", Domain: &d})
	require.NoError(t, err)
	assert.Equal(t, "Acme", org.Name)
	require.NotNil(t, org.Domain)
	assert.Equal(t, "acme.com", *org.Domain)

	var p domain.Profile
	require.NoError(t, db.First(&p, "id = ?", caller.ProfileID).Error)
	assert.Equal(t, "owner", p.RoleName())
	require.NotNil(t, p.OrganizationID)
	assert.Equal(t, org.ID, *p.OrganizationID)

	var portfolios []domain.Portfolio
	require.NoError(t, db.Where("organization_id = ?", org.ID).Find(&portfolios).Error)
	require.Len(t, portfolios, 1)
	assert.Equal(t, domain.DefaultPortfolioName, portfolios[0].Name)
}

func TestCreateOrganization_AlreadyMember(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	s := &Service{DB: db}

	_, err := s.CreateOrganization(context.Background(), f.Principal(), CreateOrgInput{Name: "Second"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestCreateOrganization_DomainRules(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	caller := newProfile(t, db, "me@gmail.com")

	gmail := "gmail.com"
	_, err := s.CreateOrganization(context.Background(), caller, CreateOrgInput{Name: "X", Domain: &gmail})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	other := "globex.com"
	_, err = s.CreateOrganization(context.Background(), caller, CreateOrgInput{Name: "X", Domain: &other})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	var n int64
	db.Model(&domain.Organization{}).Count(&n)
	assert.Equal(t, int64(0), n)
}

func TestCreateOrganization_DuplicateDomain(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	d := "acme.com"
	_, err := s.CreateOrganization(context.Background(), newProfile(t, db, "a@acme.com"), CreateOrgInput{Name: "A", Domain: &d})
	require.NoError(t, err)

	_, err = s.CreateOrganization(context.Background(), newProfile(t, db, "b@acme.com"), CreateOrgInput{Name: "B", Domain: &d})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeConflict))
}

func TestGetOrganization_Members(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	testdb.AddMember(t, db, f, "ops@acme.test", "operator")
	s := &Service{DB: db}

	view, err := s.GetOrganization(context.Background(), f.Org.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", view.Name)
	assert.Len(t, view.Members, 2)
}

func TestGetOrganization_NotFound(t *testing.T) {
	s := &Service{DB: testdb.Open(t)}
	_, err := s.GetOrganization(context.Background(), uuid.New())
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}

func TestUpdateOrganization(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	s := &Service{DB: db}

	org, err := s.UpdateOrganization(context.Background(), f.Org.ID, map[string]interface{}{
		"name":    "Acme Holdings",
		"address": "5 Market St",
		"domain":  "hijack.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Holdings", org.Name)
	require.NotNil(t, org.Address)
	assert.Equal(t, "5 Market St", *org.Address)
	assert.Nil(t, org.Domain)
}

func TestUpdateOrganization_Rejects(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	s := &Service{DB: db}

	_, err := s.UpdateOrganization(context.Background(), f.Org.ID, map[string]interface{}{"name": ""})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = s.UpdateOrganization(context.Background(), f.Org.ID, map[string]interface{}{"unknown": "x"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidation))

	_, err = s.UpdateOrganization(context.Background(), uuid.New(), map[string]interface{}{"name": "x"})
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))
}
