package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/tracklite/ticket-tracker/internal/config"
	"github.com/tracklite/ticket-tracker/internal/events"
	"github.com/tracklite/ticket-tracker/internal/persistence"
)

// NotificationService turns domain events into outbound notifications. Each
// notification is logged and pushed onto a Redis outbox list where an
// external mailer picks it up.
type NotificationService struct {
	dispatcher events.Dispatcher
	redis      *persistence.Redis
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, redis *persistence.Redis, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		redis:      redis,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventPasswordResetIssued, n.handlePasswordResetIssued)
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketCreated", zap.String("ticket_id", event.TicketID))
	return n.enqueue(ctx, event)
}

func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketStatusChanged", zap.String("ticket_id", event.TicketID))
	return n.enqueue(ctx, event)
}

func (n *NotificationService) handlePasswordResetIssued(ctx context.Context, event events.Event) error {
	payload, _ := event.Payload.(events.PasswordResetIssuedPayload)
	n.logger.Info("PasswordResetIssued",
		zap.String("email", payload.Email),
		zap.String("reset_url", n.cfg.ResetURL+"?token="+payload.Token))
	return n.enqueue(ctx, event)
}

func (n *NotificationService) enqueue(ctx context.Context, event events.Event) error {
	if n.redis == nil || n.redis.Client == nil || strings.TrimSpace(n.cfg.OutboxKey) == "" {
		return nil
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := n.redis.Client.LPush(ctx, n.cfg.OutboxKey, body).Err(); err != nil {
		n.logger.Warn("notification enqueue failed", zap.Error(err))
	}
	return nil
}
