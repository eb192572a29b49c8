package outbox

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/logger"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(4))) || '-' || lower(hex(randomblob(2))) || '-4' || substr(lower(hex(randomblob(2))),2) || '-a' || substr(lower(hex(randomblob(2))),2) || '-' || lower(hex(randomblob(6)))),
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, conn.Exec(ddl).Error)
	return conn
}

func TestEmitIfNotExistsSkipsDuplicate(t *testing.T) {
	conn := setupOutboxTestDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, logger.New(logger.Options{ServiceName: "outbox-test"}))
	ctx := context.Background()

	productID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventStockResynced,
		AggregateType: enums.AggregateProduct,
		AggregateID:   productID,
		Data:          map[string]any{"stock": 3},
	}

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.EmitIfNotExists(ctx, tx, event); err != nil {
			return err
		}
		return svc.EmitIfNotExists(ctx, tx, event)
	}))

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// A different aggregate is not a duplicate.
	other := event
	other.AggregateID = uuid.New()
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.EmitIfNotExists(ctx, tx, other)
	}))
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestExistsTxMatchesTypeAndAggregate(t *testing.T) {
	conn := setupOutboxTestDB(t)
	repo := NewRepository(conn)
	svc := NewService(repo, logger.New(logger.Options{ServiceName: "outbox-test"}))
	ctx := context.Background()

	productID := uuid.New()
	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(ctx, tx, DomainEvent{
			EventType:     enums.EventStockResynced,
			AggregateType: enums.AggregateProduct,
			AggregateID:   productID,
			Data:          map[string]any{"stock": 3},
		})
	}))

	require.NoError(t, conn.Transaction(func(tx *gorm.DB) error {
		exists, err := repo.ExistsTx(tx, enums.EventStockResynced, enums.AggregateProduct, productID)
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsTx(tx, enums.EventStockResynced, enums.AggregateProduct, uuid.New())
		require.NoError(t, err)
		assert.False(t, exists)
		return nil
	}))

	_, err := repo.ExistsTx(nil, enums.EventStockResynced, enums.AggregateProduct, productID)
	require.Error(t, err)
}
