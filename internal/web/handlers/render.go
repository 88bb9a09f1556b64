package handlers

import "github.com/gofiber/fiber/v2"

// CSRFContextKey is where the csrf middleware stores the per-session token.
const CSRFContextKey = "csrf_token"

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(CSRFContextKey).(string)
	return token
}
