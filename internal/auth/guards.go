package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/tracklite/ticket-tracker/internal/domain"
	"github.com/tracklite/ticket-tracker/internal/repository"
	apperrors "github.com/tracklite/ticket-tracker/pkg/util"
)

const guardTicketKey = "guard_ticket"

// RequireDeveloper refuses any caller whose profile role is not DEVELOPER.
// Runs after RequireAuthenticated; failure is a forbidden response, never a
// redirect.
func RequireDeveloper() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.IsDeveloper() {
			return apperrors.NewForbidden("developer role required")
		}
		return c.Next()
	}
}

// RequireAssignedDeveloper ensures the caller is the developer assigned to
// the ticket named by the :id route parameter. The loaded ticket is stashed
// for the handler so it is fetched once per request.
func RequireAssignedDeveloper(tickets repository.TicketRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}

		ticket, err := tickets.GetByID(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("ticket")
			}
			return apperrors.MapError(err)
		}
		if !ticket.IsAssignedTo(principal.User.ID) {
			return apperrors.NewForbidden("ticket is not assigned to you")
		}

		c.Locals(guardTicketKey, ticket)
		return c.Next()
	}
}

// TicketFromContext retrieves the ticket loaded by RequireAssignedDeveloper.
func TicketFromContext(c *fiber.Ctx) (*domain.Ticket, bool) {
	val := c.Locals(guardTicketKey)
	if val == nil {
		return nil, false
	}
	ticket, ok := val.(*domain.Ticket)
	return ticket, ok
}
