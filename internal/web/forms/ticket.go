package forms

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/tracklite/ticket-tracker/internal/domain"
)

const maxTitleLength = 100

// TicketForm carries the create-ticket submission and its field errors.
type TicketForm struct {
	Title       string
	Description string
	Priority    string
	AssignedTo  string
	Errors      map[string]string
}

// ParseTicketForm reads the submission from the request body.
func ParseTicketForm(c *fiber.Ctx) *TicketForm {
	return &TicketForm{
		Title:       strings.TrimSpace(c.FormValue("title")),
		Description: strings.TrimSpace(c.FormValue("description")),
		Priority:    c.FormValue("priority"),
		AssignedTo:  c.FormValue("assigned_to"),
		Errors:      map[string]string{},
	}
}

// Validate checks the fields, recording one message per failing field. The
// assignable set is the developer list the form was rendered with; any other
// assignee value is rejected here since the schema does not constrain it.
func (f *TicketForm) Validate(developers []domain.User) bool {
	if f.Title == "" {
		f.Errors["title"] = "Title is required."
	} else if len(f.Title) > maxTitleLength {
		f.Errors["title"] = "Title must be 100 characters or fewer."
	}
	if f.Description == "" {
		f.Errors["description"] = "Description is required."
	}
	if f.Priority == "" {
		f.Priority = string(domain.TicketPriorityMedium)
	}
	if !domain.TicketPriority(f.Priority).IsValid() {
		f.Errors["priority"] = "Select a valid priority."
	}
	if f.AssignedTo != "" && !containsUser(developers, f.AssignedTo) {
		f.Errors["assigned_to"] = "Select a developer from the list."
	}
	return len(f.Errors) == 0
}

// AssigneeID returns the selected assignee, or nil when unassigned.
func (f *TicketForm) AssigneeID() *string {
	if f.AssignedTo == "" {
		return nil
	}
	id := f.AssignedTo
	return &id
}

func containsUser(users []domain.User, id string) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
