package domain

import "time"

// TicketEventKind enumerates recorded workflow changes.
type TicketEventKind string

const (
	TicketEventCreated       TicketEventKind = "CREATED"
	TicketEventStatusChanged TicketEventKind = "STATUS_CHANGED"
)

// TicketEvent is one row of a ticket's audit trail. ActorID is nil when the
// acting account has since been removed.
type TicketEvent struct {
	ID        string
	TicketID  string
	Kind      TicketEventKind
	ActorID   *string
	OldStatus *TicketStatus
	NewStatus *TicketStatus
	CreatedAt time.Time
}
