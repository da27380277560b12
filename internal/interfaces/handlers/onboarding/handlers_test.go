package onboarding

import (
	"context"
	"testing"

	onbsvc "greenledger-backend/internal/application/onboarding"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/middleware"
	"greenledger-backend/internal/pkg/testdb"
	"greenledger-backend/internal/pkg/testhttp"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrap_CreatesThenResumes(t *testing.T) {
	db := testdb.Open(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	cache := &middleware.PrincipalCache{Rdb: rdb}

	caller := &domain.Principal{ProfileID: uuid.New(), Email: "founder@acme.com"}
	require.NoError(t, cache.Set(context.Background(), caller))

	h := &Handlers{Service: &onbsvc.Service{DB: db, DemoAsset: true}, Principals: cache}
	app := testhttp.App(caller)
	app.Post("/onboarding/bootstrap", h.Bootstrap)

	status, env := testhttp.JSON(t, app, "POST", "/onboarding/bootstrap", nil)
	require.Equal(t, fiber.StatusCreated, status, env.Error.Message)
	var res onbsvc.Result
	testhttp.Data(t, env, &res)
	assert.True(t, res.Created)
	require.NotNil(t, res.Asset)
	assert.Equal(t, "Demo Office Building", res.Asset.Name)
	assert.False(t, mr.Exists("principal:"+caller.ProfileID.String()))

	status, env = testhttp.JSON(t, app, "POST", "/onboarding/bootstrap", nil)
	require.Equal(t, fiber.StatusOK, status)
	var again onbsvc.Result
	testhttp.Data(t, env, &again)
	assert.False(t, again.Created)
	assert.Equal(t, res.Organization.ID, again.Organization.ID)

	var orgs int64
	require.NoError(t, db.Model(&domain.Organization{}).Count(&orgs).Error)
	assert.Equal(t, int64(1), orgs)
}
