package service

import (
	"context"
	"strings"

	"github.com/tracklite/ticket-tracker/internal/domain"
	"github.com/tracklite/ticket-tracker/internal/events"
	"github.com/tracklite/ticket-tracker/internal/repository"
	apperrors "github.com/tracklite/ticket-tracker/pkg/util"
)

// FilterMyTickets is the list selector for "tickets assigned to me".
const FilterMyTickets = "my_tickets"

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets      repository.TicketRepository
	profiles     repository.ProfileRepository
	ticketEvents repository.TicketEventRepository
	dispatcher   events.Dispatcher
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo      repository.TicketRepository
	ProfileRepo     repository.ProfileRepository
	TicketEventRepo repository.TicketEventRepository
	Dispatcher      events.Dispatcher
}

// TicketCreateInput describes ticket creation payload. Status and reporter
// are never part of the input; they are fixed by CreateTicket.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	AssignedTo  *string
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:      deps.TicketRepo,
		profiles:     deps.ProfileRepo,
		ticketEvents: deps.TicketEventRepo,
		dispatcher:   deps.Dispatcher,
	}
}

// ListTickets applies the list selector for a caller. "my_tickets" narrows to
// tickets assigned to the caller, a valid status narrows to that status, and
// anything else returns the full set, newest first.
func (s *TicketService) ListTickets(ctx context.Context, callerID, filter string) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{}
	switch {
	case filter == FilterMyTickets:
		repoFilter.AssigneeID = &callerID
	case domain.TicketStatus(filter).IsValid():
		status := domain.TicketStatus(filter)
		repoFilter.Status = &status
	}
	return s.tickets.List(ctx, repoFilter)
}

// GetTicket fetches a ticket and its audit trail.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*domain.Ticket, []domain.TicketEvent, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	trail, err := s.ticketEvents.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, trail, nil
}

// CreateTicket persists a new ticket reported by the caller. Status is always
// TO_DO and the reporter is always the caller, whatever the submission says.
// An assignee, when present, must hold the developer role.
func (s *TicketService) CreateTicket(ctx context.Context, reporterID string, input TicketCreateInput) (*domain.Ticket, error) {
	if input.AssignedTo != nil {
		profile, err := s.profiles.GetByUserID(ctx, *input.AssignedTo)
		if err != nil {
			return nil, apperrors.NewValidationError("assignee not found", map[string]string{"assigned_to": "unknown user"})
		}
		if profile.Role != domain.RoleDeveloper {
			return nil, apperrors.NewValidationError("assignee must be a developer", map[string]string{"assigned_to": "user is not a developer"})
		}
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]string{"priority": "unknown priority"})
	}

	ticket := &domain.Ticket{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Status:      domain.TicketStatusToDo,
		Priority:    priority,
		AssignedTo:  input.AssignedTo,
		ReportedBy:  reporterID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  reporterID,
		Payload: events.TicketCreatedPayload{
			Title:      ticket.Title,
			Priority:   ticket.Priority,
			AssignedTo: ticket.AssignedTo,
		},
	})
	return ticket, nil
}

// UpdateStatus moves a ticket to the given workflow state. Authorization has
// already happened at the guard chain; this only cares about the value being
// one of the three states. Setting the current status again is a no-op
// success.
func (s *TicketService) UpdateStatus(ctx context.Context, actorID string, ticket *domain.Ticket, status domain.TicketStatus) (*domain.Ticket, error) {
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]string{"status": "unknown status"})
	}

	oldStatus := ticket.Status
	updated, err := s.tickets.UpdateStatus(ctx, ticket.ID, status)
	if err != nil {
		return nil, err
	}

	if oldStatus != updated.Status {
		s.publish(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: updated.ID,
			ActorID:  actorID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: updated.Status,
			},
		})
	}
	return updated, nil
}

// DeveloperOptions returns the users assignable on the ticket form.
func (s *TicketService) DeveloperOptions(ctx context.Context) ([]domain.User, error) {
	return s.profiles.ListDevelopers(ctx)
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}
