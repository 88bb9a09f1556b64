package web

import (
	"context"
	"errors"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"go.uber.org/zap"

	"github.com/tracklite/ticket-tracker/internal/config"
	"github.com/tracklite/ticket-tracker/internal/observability"
	"github.com/tracklite/ticket-tracker/internal/web/handlers"
	apperrors "github.com/tracklite/ticket-tracker/pkg/util"
)

// RegisterMiddlewares attaches global middlewares: request timeout, error
// handling, request logging and CSRF protection, in that order.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, storage fiber.Storage, cfg config.Config) {
	if timeout := cfg.App.RequestTimeout(); timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(csrfMiddleware(storage, cfg.Session))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// csrfMiddleware rejects state-changing submissions without a valid token.
// The failure is a forbidden response handled before any handler logic runs.
func csrfMiddleware(storage fiber.Storage, cfg config.SessionConfig) fiber.Handler {
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + cfg.CSRFFieldName,
		CookieName:     "csrf_" + cfg.CookieName,
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: "Lax",
		Expiration:     cfg.TTL(),
		Storage:        storage,
		ContextKey:     handlers.CSRFContextKey,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return apperrors.NewForbidden("invalid or missing CSRF token")
		},
	})
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := toDomainError(err)
				if metrics != nil {
					metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				}
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed", zap.Error(domainErr))
				}
				renderErrorPage(c, domainErr)
				err = nil
			}
		}()
		return c.Next()
	}
}

// toDomainError keeps the status of router-level fiber errors, notably 404
// for unknown paths and 405 for wrong methods, instead of collapsing them to
// an internal error.
func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.NewDomainError("HTTP_ERROR", fiberErr.Message, fiberErr.Code)
	}
	return apperrors.ToDomainError(err)
}

func renderErrorPage(c *fiber.Ctx, domainErr *apperrors.DomainError) {
	c.Status(domainErr.HTTPStatus)
	renderErr := c.Render("errors/error", fiber.Map{
		"Status":  domainErr.HTTPStatus,
		"Title":   http.StatusText(domainErr.HTTPStatus),
		"Message": domainErr.Message,
	}, "layouts/main")
	if renderErr != nil {
		// template failure must not mask the original status
		c.Status(domainErr.HTTPStatus)
		_ = c.SendString(domainErr.Message)
	}
}
