package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/tracklite/ticket-tracker/internal/domain"
	"github.com/tracklite/ticket-tracker/internal/repository"
	apperrors "github.com/tracklite/ticket-tracker/pkg/util"
)

const principalKey = "auth_principal"

// LoginPath is where anonymous callers of protected routes are sent.
const LoginPath = "/accounts/login/"

// Principal represents the authenticated caller. Profile is always present
// for a loaded principal; it is created with the user at registration.
type Principal struct {
	User    *domain.User
	Profile *domain.Profile
}

// IsDeveloper reports whether the caller holds the developer role.
func (p *Principal) IsDeveloper() bool {
	return p.Profile != nil && p.Profile.Role == domain.RoleDeveloper
}

// Middleware resolves the session into a Principal for protected routes.
type Middleware struct {
	sessions *SessionManager
	users    repository.UserRepository
	profiles repository.ProfileRepository
}

// NewMiddleware constructs middleware.
func NewMiddleware(sessions *SessionManager, users repository.UserRepository, profiles repository.ProfileRepository) *Middleware {
	return &Middleware{sessions: sessions, users: users, profiles: profiles}
}

// RequireAuthenticated loads the principal, redirecting anonymous callers to
// the login page rather than rejecting them.
func (m *Middleware) RequireAuthenticated(c *fiber.Ctx) error {
	userID, ok := m.sessions.UserID(c)
	if !ok {
		return c.Redirect(LoginPath, fiber.StatusFound)
	}

	user, err := m.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// stale session for a removed account
			_ = m.sessions.LogOut(c)
			return c.Redirect(LoginPath, fiber.StatusFound)
		}
		return apperrors.MapError(err)
	}

	profile, err := m.profiles.GetByUserID(c.Context(), user.ID)
	if err != nil {
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user, Profile: profile})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
