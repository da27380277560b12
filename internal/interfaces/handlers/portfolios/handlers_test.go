package portfolios

import (
	"testing"

	assetsvc "greenledger-backend/internal/application/assets"
	portsvc "greenledger-backend/internal/application/portfolios"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/testdb"
	"greenledger-backend/internal/pkg/testhttp"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolios(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	other := testdb.Seed(t, db, "globex")
	h := &Handlers{Service: &portsvc.Service{DB: db}, Assets: &assetsvc.Service{DB: db}}
	app := testhttp.App(f.Principal())
	app.Get("/portfolios", h.List)
	app.Post("/portfolios", h.Create)
	app.Get("/portfolios/:id/assets", h.ListAssets)

	status, env := testhttp.JSON(t, app, "POST", "/portfolios", map[string]string{"name": "HQ Buildings"})
	require.Equal(t, fiber.StatusCreated, status, env.Error.Message)
	var created domain.Portfolio
	testhttp.Data(t, env, &created)
	assert.Equal(t, f.Org.ID, created.OrganizationID)

	status, env = testhttp.JSON(t, app, "GET", "/portfolios", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []domain.Portfolio
	testhttp.Data(t, env, &list)
	assert.Len(t, list, 2)

	status, env = testhttp.JSON(t, app, "GET", "/portfolios/"+f.Portfolio.ID.String()+"/assets", nil)
	require.Equal(t, fiber.StatusOK, status)
	var assets []domain.Asset
	testhttp.Data(t, env, &assets)
	require.Len(t, assets, 1)
	assert.Equal(t, "acme Tower", assets[0].Name)

	for _, id := range []string{other.Portfolio.ID.String(), uuid.NewString(), "bad"} {
		status, _ = testhttp.JSON(t, app, "GET", "/portfolios/"+id+"/assets", nil)
		assert.Equal(t, fiber.StatusNotFound, status, id)
	}

	status, _ = testhttp.JSON(t, app, "POST", "/portfolios", map[string]string{"name": ""})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
