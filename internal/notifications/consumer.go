package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/voltaria/voltaria-backend/internal/mailer"
	"github.com/voltaria/voltaria-backend/pkg/db/models"
	"github.com/voltaria/voltaria-backend/pkg/enums"
	"github.com/voltaria/voltaria-backend/pkg/logger"
	"github.com/voltaria/voltaria-backend/pkg/outbox"
	"github.com/voltaria/voltaria-backend/pkg/outbox/idempotency"
	"github.com/voltaria/voltaria-backend/pkg/outbox/payloads"
)

const notificationConsumerName = "notifications-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
	MarkEmailed(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Consumer watches domain events and turns them into persisted notifications
// plus outbound email.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	mail         mailer.Mailer
	logg         *logger.Logger
}

// NewConsumer builds the notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, mail mailer.Mailer, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if mail == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		mail:         mail,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := enums.OutboxEventType(msg.Attributes["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": string(eventType),
	})

	switch eventType {
	case enums.EventNotificationRequest, enums.EventOrderStatusChanged, enums.EventQuoteStatusChanged:
	default:
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, notificationConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	if err := c.handle(ctx, eventType, envelope.Data, logCtx); err != nil {
		c.logg.Error(logCtx, "notification handling failed", err)
		_ = c.idempotency.Delete(ctx, notificationConsumerName, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *Consumer) handle(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage, logCtx context.Context) error {
	switch eventType {
	case enums.EventNotificationRequest:
		var payload payloads.NotificationRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing notification payload: %w", err)
		}
		return c.deliver(ctx, notificationFromRequest(payload), logCtx)
	case enums.EventOrderStatusChanged:
		var payload payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing order payload: %w", err)
		}
		return c.deliver(ctx, notificationFromOrder(payload), logCtx)
	case enums.EventQuoteStatusChanged:
		var payload payloads.QuoteStatusChangedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("parsing quote payload: %w", err)
		}
		return c.deliver(ctx, notificationFromQuote(payload), logCtx)
	}
	return nil
}

// deliver persists the notification, then dispatches email. A mail failure is
// logged and leaves EmailedAt unset; the row itself is the source of truth.
func (c *Consumer) deliver(ctx context.Context, notification *models.Notification, logCtx context.Context) error {
	if notification.RecipientEmail == "" {
		return fmt.Errorf("recipient email missing")
	}
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if err := c.repo.Create(ctx, notification); err != nil {
		return err
	}

	err := c.mail.Send(ctx, mailer.Message{
		To:      notification.RecipientEmail,
		Subject: notification.Title,
		Body:    notification.Message,
	})
	if err != nil {
		c.logg.Error(logCtx, "notification email dispatch failed", err)
		return nil
	}

	if err := c.repo.MarkEmailed(ctx, notification.ID, time.Now().UTC()); err != nil {
		c.logg.Error(logCtx, "marking notification emailed failed", err)
	}
	return nil
}

func notificationFromRequest(payload payloads.NotificationRequestedEvent) *models.Notification {
	notificationType := payload.Type
	if !notificationType.IsValid() {
		notificationType = enums.NotificationTypeSystem
	}
	return &models.Notification{
		RecipientEmail: payload.RecipientEmail,
		Type:           notificationType,
		Title:          payload.Title,
		Message:        payload.Message,
		Link:           payload.Link,
	}
}

func notificationFromOrder(payload payloads.OrderStatusChangedEvent) *models.Notification {
	return &models.Notification{
		RecipientEmail: payload.CustomerEmail,
		Type:           enums.NotificationTypeOrderUpdate,
		Title:          fmt.Sprintf("Order %s is now %s", payload.Reference, payload.NewStatus),
		Message:        fmt.Sprintf("Your order %s moved from %s to %s.", payload.Reference, payload.PreviousStatus, payload.NewStatus),
	}
}

func notificationFromQuote(payload payloads.QuoteStatusChangedEvent) *models.Notification {
	return &models.Notification{
		RecipientEmail: payload.CustomerEmail,
		Type:           enums.NotificationTypeQuoteUpdate,
		Title:          fmt.Sprintf("Quote %s is now %s", payload.Reference, payload.NewStatus),
		Message:        fmt.Sprintf("Your quote %s moved from %s to %s.", payload.Reference, payload.PreviousStatus, payload.NewStatus),
	}
}
