package notifications

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/pagination"
)

func setupNotificationsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  recipient_email TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  link TEXT,
  emailed_at DATETIME,
  read_at DATETIME,
  created_at DATETIME
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func createNotification(t *testing.T, repo *Repository, email string, createdAt time.Time) *models.Notification {
	t.Helper()
	notification := &models.Notification{
		ID:             uuid.New(),
		RecipientEmail: email,
		Type:           enums.NotificationTypeSystem,
		Title:          "Test",
		Message:        "Test message",
	}
	require.NoError(t, repo.Create(context.Background(), notification))
	require.NoError(t, repo.db.Model(notification).Update("created_at", createdAt).Error)
	return notification
}

func TestListFiltersByRecipientAndUnread(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	first := createNotification(t, repo, "dana@beaconoutdoor.example", base)
	createNotification(t, repo, "other@example.com", base.Add(time.Minute))

	notifications, _, err := repo.List(ctx, ListFilter{RecipientEmail: "dana@beaconoutdoor.example"}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, notifications, 1)

	updated, err := repo.MarkRead(ctx, first.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, updated)

	notifications, _, err = repo.List(ctx, ListFilter{RecipientEmail: "dana@beaconoutdoor.example", UnreadOnly: true}, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, notifications)

	// A second mark is a no-op.
	updated, err = repo.MarkRead(ctx, first.ID, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestDeleteOlderThanRemovesStaleRows(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	now := time.Now().UTC()
	createNotification(t, repo, "dana@beaconoutdoor.example", now.Add(-40*24*time.Hour))
	kept := createNotification(t, repo, "dana@beaconoutdoor.example", now.Add(-time.Hour))

	removed, err := repo.DeleteOlderThan(ctx, nil, now.Add(-30*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	notifications, _, err := repo.List(ctx, ListFilter{}, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, kept.ID, notifications[0].ID)
}

func TestMarkEmailedStampsRow(t *testing.T) {
	conn := setupNotificationsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	notification := createNotification(t, repo, "dana@beaconoutdoor.example", time.Now().UTC())
	require.NoError(t, repo.MarkEmailed(ctx, notification.ID, time.Now().UTC()))

	var stored models.Notification
	require.NoError(t, conn.First(&stored, "id = ?", notification.ID).Error)
	assert.NotNil(t, stored.EmailedAt)
}
