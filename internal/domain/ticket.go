package domain

import "time"

// TicketStatus enumerates workflow states for tickets.
type TicketStatus string

const (
	TicketStatusToDo       TicketStatus = "TO_DO"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusResolved   TicketStatus = "RESOLVED"
)

// TicketStatuses lists every workflow state in display order.
func TicketStatuses() []TicketStatus {
	return []TicketStatus{TicketStatusToDo, TicketStatusInProgress, TicketStatusResolved}
}

// IsValid reports whether the value is one of the three workflow states.
func (s TicketStatus) IsValid() bool {
	switch s {
	case TicketStatusToDo, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// Label returns the human-readable form used in views.
func (s TicketStatus) Label() string {
	switch s {
	case TicketStatusToDo:
		return "To Do"
	case TicketStatusInProgress:
		return "In Progress"
	case TicketStatusResolved:
		return "Resolved"
	}
	return string(s)
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
)

// TicketPriorities lists every priority in display order.
func TicketPriorities() []TicketPriority {
	return []TicketPriority{TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh}
}

// IsValid reports whether the value is a known priority.
func (p TicketPriority) IsValid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the core business record.
//
// AssignedTo is nil until a developer is assigned and reverts to nil when the
// assignee's account is removed. ReportedBy is set once at creation; removing
// the reporter removes the ticket.
type Ticket struct {
	ID          string
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	AssignedTo  *string
	ReportedBy  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsAssignedTo reports whether the ticket is assigned to the given user.
func (t *Ticket) IsAssignedTo(userID string) bool {
	return t.AssignedTo != nil && *t.AssignedTo == userID
}
