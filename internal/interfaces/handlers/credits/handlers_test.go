package credits

import (
	"testing"

	creditsvc "greenledger-backend/internal/application/credits"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/testdb"
	"greenledger-backend/internal/pkg/testhttp"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreditsOverHTTP(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	project := testdb.Project(t, db, "Mangrove Restoration", 100, 500)

	h := &Handlers{Service: &creditsvc.Service{DB: db}}
	app := testhttp.App(f.Principal())
	app.Get("/projects", h.ListProjects)
	app.Get("/projects/:id", h.GetProject)
	app.Post("/credits/purchase", h.Purchase)
	app.Post("/credits/use", h.Use)
	app.Get("/credits", h.List)
	app.Get("/credits/summary", h.Summary)

	status, env := testhttp.JSON(t, app, "GET", "/projects", nil)
	require.Equal(t, fiber.StatusOK, status)
	var projects []domain.Project
	testhttp.Data(t, env, &projects)
	require.Len(t, projects, 1)

	status, _ = testhttp.JSON(t, app, "GET", "/projects/"+uuid.NewString(), nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = testhttp.JSON(t, app, "POST", "/credits/purchase", map[string]interface{}{
		"project_id": project.ID, "quantity": 10, "price_per_credit": "99",
	})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, env = testhttp.JSON(t, app, "POST", "/credits/purchase", map[string]interface{}{
		"project_id": project.ID, "quantity": 10, "price_per_credit": "100",
	})
	require.Equal(t, fiber.StatusCreated, status, env.Error.Message)
	var res creditsvc.PurchaseResult
	testhttp.Data(t, env, &res)
	assert.Equal(t, domain.CreditPending, res.Credit.Status)
	assert.True(t, res.Credit.TotalAmount.Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, res.ClientSecret)

	// Pending purchases cannot be retired yet.
	status, _ = testhttp.JSON(t, app, "POST", "/credits/use", map[string]interface{}{"project_id": project.ID, "quantity": 5})
	assert.Equal(t, fiber.StatusBadRequest, status)

	require.NoError(t, db.Model(&domain.Credit{}).Where("id = ?", res.Credit.ID).Update("status", domain.CreditCompleted).Error)
	status, env = testhttp.JSON(t, app, "POST", "/credits/use", map[string]interface{}{"project_id": project.ID, "quantity": 5})
	require.Equal(t, fiber.StatusCreated, status, env.Error.Message)

	status, env = testhttp.JSON(t, app, "GET", "/credits/summary", nil)
	require.Equal(t, fiber.StatusOK, status)
	var sum creditsvc.Summary
	testhttp.Data(t, env, &sum)
	assert.Equal(t, int64(10), sum.Available)
	assert.Equal(t, int64(5), sum.Used)
	assert.Equal(t, int64(5), sum.Net)

	status, env = testhttp.JSON(t, app, "GET", "/credits", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []domain.Credit
	testhttp.Data(t, env, &list)
	assert.Len(t, list, 2)
}
