package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nchikhaoui/gestistock/internal/models"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	return db
}

func TestListFor_OwnedAndBroadcastNewestFirst(t *testing.T) {
	db := initTestDB(t)
	e := &Emitter{DB: db}
	ctx := context.Background()

	alice, bob := uint(1), uint(2)

	now := time.Now().UTC()
	rows := []models.Notification{
		{UserID: &alice, Title: "a1", Message: "m", Type: "order_created", CreatedAt: now.Add(-3 * time.Minute)},
		{UserID: &bob, Title: "b1", Message: "m", Type: "order_created", CreatedAt: now.Add(-2 * time.Minute)},
		{UserID: nil, Title: "bc", Message: "m", Type: "stock_out", CreatedAt: now.Add(-1 * time.Minute)},
		{UserID: &alice, Title: "a2", Message: "m", Type: "order_created", CreatedAt: now},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	out, err := e.ListFor(ctx, alice)
	require.NoError(t, err)

	// bob's row is excluded, broadcasts included, newest first
	require.Len(t, out, 3)
	assert.Equal(t, "a2", out[0].Title)
	assert.Equal(t, "bc", out[1].Title)
	assert.Equal(t, "a1", out[2].Title)
}

func TestListFor_TieBreaksOnID(t *testing.T) {
	db := initTestDB(t)
	e := &Emitter{DB: db}

	alice := uint(1)
	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		n := models.Notification{UserID: &alice, Title: fmt.Sprintf("n%d", i), Message: "m", Type: "t", CreatedAt: ts}
		require.NoError(t, db.Create(&n).Error)
	}

	out, err := e.ListFor(context.Background(), alice)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "n2", out[0].Title)
	assert.Equal(t, "n0", out[2].Title)
}

func TestListFor_CappedAtFifty(t *testing.T) {
	db := initTestDB(t)
	e := &Emitter{DB: db}

	alice := uint(1)
	for i := 0; i < 60; i++ {
		n := models.Notification{UserID: &alice, Title: fmt.Sprintf("n%d", i), Message: "m", Type: "t"}
		require.NoError(t, db.Create(&n).Error)
	}

	out, err := e.ListFor(context.Background(), alice)
	require.NoError(t, err)
	assert.Len(t, out, 50)
}

func TestMarkRead_ForbiddenForForeignOwner(t *testing.T) {
	db := initTestDB(t)
	e := &Emitter{DB: db}
	ctx := context.Background()

	bob := uint(2)
	n, err := e.Emit(ctx, &bob, "t", "m", "order_created", nil)
	require.NoError(t, err)

	_, err = e.MarkRead(ctx, n.ID, 1)
	assert.ErrorIs(t, err, ErrForbidden)

	var stored models.Notification
	require.NoError(t, db.First(&stored, n.ID).Error)
	assert.False(t, stored.IsRead)
}

func TestMarkRead_BroadcastReadableByAnyone(t *testing.T) {
	db := initTestDB(t)
	e := &Emitter{DB: db}
	ctx := context.Background()

	n, err := e.Emit(ctx, nil, "t", "m", "stock_out", nil)
	require.NoError(t, err)

	marked, err := e.MarkRead(ctx, n.ID, 7)
	require.NoError(t, err)
	assert.True(t, marked.IsRead)
}

func TestMarkRead_NotFound(t *testing.T) {
	db := initTestDB(t)
	e := &Emitter{DB: db}

	_, err := e.MarkRead(context.Background(), 999, 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMarkAllRead_FlipsOwnedOnly(t *testing.T) {
	db := initTestDB(t)
	e := &Emitter{DB: db}
	ctx := context.Background()

	alice, bob := uint(1), uint(2)
	_, err := e.Emit(ctx, &alice, "t", "m", "t", nil)
	require.NoError(t, err)
	_, err = e.Emit(ctx, &bob, "t", "m", "t", nil)
	require.NoError(t, err)
	_, err = e.Emit(ctx, nil, "t", "m", "t", nil)
	require.NoError(t, err)

	require.NoError(t, e.MarkAllRead(ctx, alice))

	var read, unread int64
	require.NoError(t, db.Model(&models.Notification{}).Where("is_read").Count(&read).Error)
	require.NoError(t, db.Model(&models.Notification{}).Where("NOT is_read").Count(&unread).Error)
	assert.EqualValues(t, 1, read)
	// bob's row and the broadcast stay unread
	assert.EqualValues(t, 2, unread)
}
