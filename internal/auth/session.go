package auth

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/tracklite/ticket-tracker/internal/config"
)

const sessionUserKey = "user_id"

// SessionManager wraps fiber's cookie session store. Session state lives in
// the shared Redis storage so instances stay stateless.
type SessionManager struct {
	store *session.Store
}

// NewSessionManager builds the session store from config.
func NewSessionManager(cfg config.SessionConfig, storage fiber.Storage) *SessionManager {
	store := session.New(session.Config{
		Storage:        storage,
		Expiration:     cfg.TTL(),
		KeyLookup:      "cookie:" + cfg.CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
	})
	return &SessionManager{store: store}
}

// LogIn establishes an authenticated session for the user. The session id is
// regenerated so a pre-login cookie cannot be fixed onto the account.
func (m *SessionManager) LogIn(c *fiber.Ctx, userID string) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserKey, userID)
	return sess.Save()
}

// LogOut terminates the session.
func (m *SessionManager) LogOut(c *fiber.Ctx) error {
	sess, err := m.store.Get(c)
	if err != nil {
		return err
	}
	return sess.Destroy()
}

// UserID returns the authenticated user id, if any.
func (m *SessionManager) UserID(c *fiber.Ctx) (string, bool) {
	sess, err := m.store.Get(c)
	if err != nil {
		return "", false
	}
	userID, _ := sess.Get(sessionUserKey).(string)
	return userID, userID != ""
}
