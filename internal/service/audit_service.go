package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/tracklite/ticket-tracker/internal/domain"
	"github.com/tracklite/ticket-tracker/internal/events"
	"github.com/tracklite/ticket-tracker/internal/repository"
)

// AuditService records ticket workflow events as audit rows shown on the
// detail page. Recording failures are logged, never surfaced to the request
// that triggered the event.
type AuditService struct {
	dispatcher   events.Dispatcher
	ticketEvents repository.TicketEventRepository
	logger       *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, ticketEvents repository.TicketEventRepository, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher:   dispatcher,
		ticketEvents: ticketEvents,
		logger:       logger,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleTicketCreated)
	a.dispatcher.Subscribe(events.EventTicketStatusChanged, a.handleTicketStatusChanged)
}

func (a *AuditService) handleTicketCreated(ctx context.Context, event events.Event) error {
	actorID := event.ActorID
	status := domain.TicketStatusToDo
	record := &domain.TicketEvent{
		TicketID:  event.TicketID,
		Kind:      domain.TicketEventCreated,
		ActorID:   &actorID,
		NewStatus: &status,
	}
	if err := a.ticketEvents.Create(ctx, record); err != nil {
		a.logger.Warn("audit record failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
	return nil
}

func (a *AuditService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		return nil
	}
	actorID := event.ActorID
	record := &domain.TicketEvent{
		TicketID:  event.TicketID,
		Kind:      domain.TicketEventStatusChanged,
		ActorID:   &actorID,
		OldStatus: &payload.OldStatus,
		NewStatus: &payload.NewStatus,
	}
	if err := a.ticketEvents.Create(ctx, record); err != nil {
		a.logger.Warn("audit record failed", zap.String("ticket_id", event.TicketID), zap.Error(err))
	}
	return nil
}
