package notifications

import (
	"testing"

	notifsvc "greenledger-backend/internal/application/notifications"
	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/testdb"
	"greenledger-backend/internal/pkg/testhttp"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationsOverHTTP(t *testing.T) {
	db := testdb.Open(t)
	f := testdb.Seed(t, db, "acme")
	other := testdb.Seed(t, db, "globex")
	first, err := notifsvc.Create(db, f.Owner.ID, "Credit Purchase Initiated", "Purchase of 10 credits is being processed", notifsvc.TypePurchase, nil)
	require.NoError(t, err)
	_, err = notifsvc.Create(db, f.Owner.ID, "Credits Used", "5 credits were retired", notifsvc.TypeUse, nil)
	require.NoError(t, err)
	foreign, err := notifsvc.Create(db, other.Owner.ID, "Other", "not yours", notifsvc.TypeUse, nil)
	require.NoError(t, err)

	h := &Handlers{Service: &notifsvc.Service{DB: db}}
	app := testhttp.App(f.Principal())
	app.Get("/notifications", h.List)
	app.Patch("/notifications/read-all", h.MarkAllRead)
	app.Patch("/notifications/:id/read", h.MarkRead)

	status, env := testhttp.JSON(t, app, "GET", "/notifications", nil)
	require.Equal(t, fiber.StatusOK, status)
	var list []domain.Notification
	testhttp.Data(t, env, &list)
	assert.Len(t, list, 2)

	status, env = testhttp.JSON(t, app, "PATCH", "/notifications/"+first.ID.String()+"/read", nil)
	require.Equal(t, fiber.StatusOK, status, env.Error.Message)
	var n domain.Notification
	testhttp.Data(t, env, &n)
	assert.True(t, n.Read)

	status, _ = testhttp.JSON(t, app, "PATCH", "/notifications/"+foreign.ID.String()+"/read", nil)
	assert.Equal(t, fiber.StatusNotFound, status)

	status, env = testhttp.JSON(t, app, "GET", "/notifications?unread=true", nil)
	require.Equal(t, fiber.StatusOK, status)
	testhttp.Data(t, env, &list)
	assert.Len(t, list, 1)

	status, env = testhttp.JSON(t, app, "PATCH", "/notifications/read-all", nil)
	require.Equal(t, fiber.StatusOK, status)
	var updated struct {
		Updated int64 `json:"updated"`
	}
	testhttp.Data(t, env, &updated)
	assert.Equal(t, int64(1), updated.Updated)
}
