package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/tracklite/ticket-tracker/internal/auth"
	"github.com/tracklite/ticket-tracker/internal/domain"
	"github.com/tracklite/ticket-tracker/internal/service"
	"github.com/tracklite/ticket-tracker/internal/web/forms"
	apperrors "github.com/tracklite/ticket-tracker/pkg/util"
)

// TicketsHandler serves the ticket views.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// List GET /.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	tickets, err := h.service.ListTickets(c.Context(), principal.User.ID, c.Query("filter"))
	if err != nil {
		return apperrors.MapError(err)
	}

	return c.Render("tickets/ticket_list", fiber.Map{
		"Principal": principal,
		"Tickets":   tickets,
		"Statuses":  domain.TicketStatuses(),
		"Filter":    c.Query("filter"),
		"CSRFToken": csrfToken(c),
	}, "layouts/main")
}

// Detail GET /ticket/:id/.
func (h *TicketsHandler) Detail(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	ticket, trail, err := h.service.GetTicket(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket")
		}
		return apperrors.MapError(err)
	}

	// the status form renders only for the assigned developer
	canUpdate := principal.IsDeveloper() && ticket.IsAssignedTo(principal.User.ID)

	return c.Render("tickets/ticket_detail", fiber.Map{
		"Principal": principal,
		"Ticket":    ticket,
		"Trail":     trail,
		"CanUpdate": canUpdate,
		"Statuses":  domain.TicketStatuses(),
		"CSRFToken": csrfToken(c),
	}, "layouts/main")
}

// NewForm GET /ticket/new/.
func (h *TicketsHandler) NewForm(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	developers, err := h.service.DeveloperOptions(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}

	return h.renderTicketForm(c, principal, &forms.TicketForm{Errors: map[string]string{}}, developers)
}

// Create POST /ticket/new/.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	developers, err := h.service.DeveloperOptions(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}

	form := forms.ParseTicketForm(c)
	if !form.Validate(developers) {
		return h.renderTicketForm(c, principal, form, developers)
	}

	input := service.TicketCreateInput{
		Title:       form.Title,
		Description: form.Description,
		Priority:    domain.TicketPriority(form.Priority),
		AssignedTo:  form.AssigneeID(),
	}
	if _, err := h.service.CreateTicket(c.Context(), principal.User.ID, input); err != nil {
		return apperrors.MapError(err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// UpdateStatus POST /ticket/:id/update_status/. The guard chain has already
// verified the caller and loaded the ticket. Non-POST requests and invalid
// status values fall through to a redirect without mutating anything; this
// route has no standalone view.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, ok := auth.TicketFromContext(c)
	if !ok {
		return apperrors.NewNotFound("ticket")
	}

	detailPath := "/ticket/" + ticket.ID + "/"
	if c.Method() != fiber.MethodPost {
		return c.Redirect(detailPath, fiber.StatusFound)
	}

	status := domain.TicketStatus(c.FormValue("status"))
	if !status.IsValid() {
		return c.Redirect(detailPath, fiber.StatusFound)
	}

	if _, err := h.service.UpdateStatus(c.Context(), principal.User.ID, ticket, status); err != nil {
		return apperrors.MapError(err)
	}
	return c.Redirect(detailPath, fiber.StatusFound)
}

func (h *TicketsHandler) renderTicketForm(c *fiber.Ctx, principal *auth.Principal, form *forms.TicketForm, developers []domain.User) error {
	return c.Render("tickets/ticket_form", fiber.Map{
		"Principal":  principal,
		"Form":       form,
		"Developers": developers,
		"Priorities": domain.TicketPriorities(),
		"CSRFToken":  csrfToken(c),
	}, "layouts/main")
}
