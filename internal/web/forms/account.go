package forms

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RegisterForm carries the registration submission and its field errors.
type RegisterForm struct {
	Name            string
	Email           string
	Password        string
	PasswordConfirm string
	Errors          map[string]string
}

// ParseRegisterForm reads the submission from the request body.
func ParseRegisterForm(c *fiber.Ctx) *RegisterForm {
	return &RegisterForm{
		Name:            strings.TrimSpace(c.FormValue("name")),
		Email:           strings.TrimSpace(strings.ToLower(c.FormValue("email"))),
		Password:        c.FormValue("password"),
		PasswordConfirm: c.FormValue("password_confirm"),
		Errors:          map[string]string{},
	}
}

// Validate checks the fields, recording one message per failing field.
func (f *RegisterForm) Validate(minPasswordLength int) bool {
	if f.Name == "" {
		f.Errors["name"] = "Name is required."
	}
	validateEmail(f.Errors, f.Email)
	validatePassword(f.Errors, f.Password, f.PasswordConfirm, minPasswordLength)
	return len(f.Errors) == 0
}

// LoginForm carries the login submission.
type LoginForm struct {
	Email    string
	Password string
	Errors   map[string]string
}

// ParseLoginForm reads the submission from the request body.
func ParseLoginForm(c *fiber.Ctx) *LoginForm {
	return &LoginForm{
		Email:    strings.TrimSpace(strings.ToLower(c.FormValue("email"))),
		Password: c.FormValue("password"),
		Errors:   map[string]string{},
	}
}

// Validate checks presence only; credential checking happens in the service.
func (f *LoginForm) Validate() bool {
	if f.Email == "" {
		f.Errors["email"] = "Email is required."
	}
	if f.Password == "" {
		f.Errors["password"] = "Password is required."
	}
	return len(f.Errors) == 0
}

// ResetRequestForm carries the password-reset request submission.
type ResetRequestForm struct {
	Email  string
	Errors map[string]string
}

// ParseResetRequestForm reads the submission from the request body.
func ParseResetRequestForm(c *fiber.Ctx) *ResetRequestForm {
	return &ResetRequestForm{
		Email:  strings.TrimSpace(strings.ToLower(c.FormValue("email"))),
		Errors: map[string]string{},
	}
}

// Validate checks the email field.
func (f *ResetRequestForm) Validate() bool {
	validateEmail(f.Errors, f.Email)
	return len(f.Errors) == 0
}

// ResetConfirmForm carries the new-password submission.
type ResetConfirmForm struct {
	Token           string
	Password        string
	PasswordConfirm string
	Errors          map[string]string
}

// ParseResetConfirmForm reads the submission from the request body.
func ParseResetConfirmForm(c *fiber.Ctx) *ResetConfirmForm {
	return &ResetConfirmForm{
		Token:           c.FormValue("token"),
		Password:        c.FormValue("password"),
		PasswordConfirm: c.FormValue("password_confirm"),
		Errors:          map[string]string{},
	}
}

// Validate checks the password pair; token validity is checked by the service.
func (f *ResetConfirmForm) Validate(minPasswordLength int) bool {
	if f.Token == "" {
		f.Errors["token"] = "Reset token is missing."
	}
	validatePassword(f.Errors, f.Password, f.PasswordConfirm, minPasswordLength)
	return len(f.Errors) == 0
}

func validateEmail(errs map[string]string, email string) {
	if email == "" {
		errs["email"] = "Email is required."
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Enter a valid email address."
	}
}

func validatePassword(errs map[string]string, password, confirm string, minLength int) {
	if len(password) < minLength {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters.", minLength)
		return
	}
	if password != confirm {
		errs["password_confirm"] = "Passwords do not match."
	}
}
