package assets

import (
	"testing"

	assetsvc "greenledger-backend/internal/application/assets"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/testdb"
	"greenledger-backend/internal/pkg/testhttp"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssets(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	other := testdb.Seed(t, db, "globex")
	h := &Handlers{Service: &assetsvc.Service{DB: db}}
	app := testhttp.App(f.Principal())
	app.Post("/assets", h.Create)
	app.Get("/assets/:id", h.Get)
	app.Patch("/assets/:id", h.Update)

	body := map[string]interface{}{
		"portfolio_id": f.Portfolio.ID,
		"name":         "Tower A",
		"asset_type":   "office",
		"address":      "1 Harbour Rd",
		"total_area":   0,
	}
	status, env := testhttp.JSON(t, app, "POST", "/assets", body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, env.Error.Details, "total_area")

	body["total_area"] = 12500.5
	status, env = testhttp.JSON(t, app, "POST", "/assets", body)
	require.Equal(t, fiber.StatusCreated, status, env.Error.Message)
	var a domain.Asset
	testhttp.Data(t, env, &a)
	assert.Equal(t, 12500.5, a.TotalArea)

	status, env = testhttp.JSON(t, app, "PATCH", "/assets/"+a.ID.String(), map[string]interface{}{"energy_rating": "A"})
	require.Equal(t, fiber.StatusOK, status, env.Error.Message)
	testhttp.Data(t, env, &a)
	require.NotNil(t, a.EnergyRating)
	assert.Equal(t, "A", *a.EnergyRating)

	status, _ = testhttp.JSON(t, app, "GET", "/assets/"+other.Asset.ID.String(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	body["portfolio_id"] = other.Portfolio.ID
	status, _ = testhttp.JSON(t, app, "POST", "/assets", body)
	assert.Equal(t, fiber.StatusNotFound, status)
}
