package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tracklite/ticket-tracker/internal/auth"
	"github.com/tracklite/ticket-tracker/internal/service"
	"github.com/tracklite/ticket-tracker/internal/web/forms"
	apperrors "github.com/tracklite/ticket-tracker/pkg/util"
)

// AccountsHandler serves registration, login, logout and password reset.
type AccountsHandler struct {
	accounts          *service.AccountService
	sessions          *auth.SessionManager
	minPasswordLength int
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService, sessions *auth.SessionManager, minPasswordLength int) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, sessions: sessions, minPasswordLength: minPasswordLength}
}

// RegisterPage GET /accounts/register/.
func (h *AccountsHandler) RegisterPage(c *fiber.Ctx) error {
	return h.renderRegister(c, &forms.RegisterForm{Errors: map[string]string{}})
}

// Register POST /accounts/register/. Creates User + Profile(REPORTER),
// establishes the session and lands on the ticket list.
func (h *AccountsHandler) Register(c *fiber.Ctx) error {
	form := forms.ParseRegisterForm(c)
	if !form.Validate(h.minPasswordLength) {
		return h.renderRegister(c, form)
	}

	user, err := h.accounts.Register(c.Context(), form.Name, form.Email, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			form.Errors["email"] = "An account with this email already exists."
			return h.renderRegister(c, form)
		}
		return apperrors.MapError(err)
	}

	if err := h.sessions.LogIn(c, user.ID); err != nil {
		return apperrors.MapError(err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// LoginPage GET /accounts/login/.
func (h *AccountsHandler) LoginPage(c *fiber.Ctx) error {
	return h.renderLogin(c, &forms.LoginForm{Errors: map[string]string{}})
}

// Login POST /accounts/login/.
func (h *AccountsHandler) Login(c *fiber.Ctx) error {
	form := forms.ParseLoginForm(c)
	if !form.Validate() {
		return h.renderLogin(c, form)
	}

	user, err := h.accounts.Authenticate(c.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			form.Errors["form"] = "Invalid email or password."
			return h.renderLogin(c, form)
		}
		return apperrors.MapError(err)
	}

	if err := h.sessions.LogIn(c, user.ID); err != nil {
		return apperrors.MapError(err)
	}
	return c.Redirect("/", fiber.StatusFound)
}

// Logout POST /accounts/logout/. Only routed for POST so a link or prefetch
// cannot end the session.
func (h *AccountsHandler) Logout(c *fiber.Ctx) error {
	if err := h.sessions.LogOut(c); err != nil {
		return apperrors.MapError(err)
	}
	return c.Redirect(auth.LoginPath, fiber.StatusFound)
}

// PasswordResetPage GET /accounts/password_reset/.
func (h *AccountsHandler) PasswordResetPage(c *fiber.Ctx) error {
	return h.renderResetRequest(c, &forms.ResetRequestForm{Errors: map[string]string{}}, false)
}

// PasswordReset POST /accounts/password_reset/. Always lands on the same
// confirmation view whether or not the email is known.
func (h *AccountsHandler) PasswordReset(c *fiber.Ctx) error {
	form := forms.ParseResetRequestForm(c)
	if !form.Validate() {
		return h.renderResetRequest(c, form, false)
	}

	if err := h.accounts.RequestPasswordReset(c.Context(), form.Email); err != nil {
		return apperrors.MapError(err)
	}
	return h.renderResetRequest(c, form, true)
}

// PasswordResetConfirmPage GET /accounts/password_reset/confirm/?token=...
func (h *AccountsHandler) PasswordResetConfirmPage(c *fiber.Ctx) error {
	form := &forms.ResetConfirmForm{Token: c.Query("token"), Errors: map[string]string{}}
	return h.renderResetConfirm(c, form)
}

// PasswordResetConfirm POST /accounts/password_reset/confirm/.
func (h *AccountsHandler) PasswordResetConfirm(c *fiber.Ctx) error {
	form := forms.ParseResetConfirmForm(c)
	if !form.Validate(h.minPasswordLength) {
		return h.renderResetConfirm(c, form)
	}

	if err := h.accounts.ConfirmPasswordReset(c.Context(), form.Token, form.Password); err != nil {
		if errors.Is(err, service.ErrInvalidResetToken) {
			form.Errors["form"] = "This reset link is invalid or has expired."
			return h.renderResetConfirm(c, form)
		}
		return apperrors.MapError(err)
	}
	return c.Redirect(auth.LoginPath, fiber.StatusFound)
}

func (h *AccountsHandler) renderRegister(c *fiber.Ctx, form *forms.RegisterForm) error {
	return c.Render("accounts/register", fiber.Map{
		"Form":      form,
		"CSRFToken": csrfToken(c),
	}, "layouts/main")
}

func (h *AccountsHandler) renderLogin(c *fiber.Ctx, form *forms.LoginForm) error {
	return c.Render("accounts/login", fiber.Map{
		"Form":      form,
		"CSRFToken": csrfToken(c),
	}, "layouts/main")
}

func (h *AccountsHandler) renderResetRequest(c *fiber.Ctx, form *forms.ResetRequestForm, sent bool) error {
	return c.Render("accounts/password_reset", fiber.Map{
		"Form":      form,
		"Sent":      sent,
		"CSRFToken": csrfToken(c),
	}, "layouts/main")
}

func (h *AccountsHandler) renderResetConfirm(c *fiber.Ctx, form *forms.ResetConfirmForm) error {
	return c.Render("accounts/password_reset_confirm", fiber.Map{
		"Form":      form,
		"CSRFToken": csrfToken(c),
	}, "layouts/main")
}
