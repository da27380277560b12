package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"greenledger-backend/internal/domain"
	"greenledger-backend/internal/pkg/apperrors"
	"greenledger-backend/internal/pkg/testdb"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndList(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	user := uuid.New()
	other := uuid.New()

	_, err := Create(db, user, "First", "one", TypePurchase, map[string]interface{}{"credit_id": "c1"})
	require.NoError(t, err)
	second := &domain.Notification{UserID: user, Title: "Second", Message: "two", Type: TypePayment, CreatedAt: time.Now().Add(time.Minute)}
	require.NoError(t, db.Create(second).Error)
	_, err = Create(db, other, "Not yours", "x", TypePurchase, nil)
	require.NoError(t, err)

	list, err := s.List(context.Background(), user, false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Second", list[0].Title)

	var meta map[string]string
	require.NoError(t, json.Unmarshal(list[1].Metadata, &meta))
	assert.Equal(t, "c1", meta["credit_id"])
}

func TestMarkRead(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	user := uuid.New()
	n, err := Create(db, user, "t", "m", TypePurchase, nil)
	require.NoError(t, err)

	_, err = s.MarkRead(context.Background(), uuid.New(), n.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	got, err := s.MarkRead(context.Background(), user, n.ID)
	require.NoError(t, err)
	assert.True(t, got.Read)

	unread, err := s.List(context.Background(), user, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestMarkAllRead(t *testing.T) {
	db := testdb.Open(t)
	s := &Service{DB: db}
	user := uuid.New()
	for i := 0; i < 3; i++ {
		_, err := Create(db, user, "t", "m", TypePurchase, nil)
		require.NoError(t, err)
	}
	other, err := Create(db, uuid.New(), "t", "m", TypePurchase, nil)
	require.NoError(t, err)

	n, err := s.MarkAllRead(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	var stored domain.Notification
	require.NoError(t, db.First(&stored, "id = ?", other.ID).Error)
	assert.False(t, stored.Read)
}
