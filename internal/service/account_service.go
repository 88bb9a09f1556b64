package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/tracklite/ticket-tracker/internal/auth"
	"github.com/tracklite/ticket-tracker/internal/config"
	"github.com/tracklite/ticket-tracker/internal/domain"
	"github.com/tracklite/ticket-tracker/internal/events"
	"github.com/tracklite/ticket-tracker/internal/repository"
)

// Sentinel errors surfaced to the account forms.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("reset link is invalid or expired")
)

// AccountService coordinates registration, login and password reset flows.
type AccountService struct {
	users       repository.UserRepository
	profiles    repository.ProfileRepository
	resetTokens *auth.ResetTokenManager
	dispatcher  events.Dispatcher
	bcryptCost  int
}

// AccountDependencies encapsulates repo requirements for account service.
type AccountDependencies struct {
	UserRepo    repository.UserRepository
	ProfileRepo repository.ProfileRepository
	Dispatcher  events.Dispatcher
}

// NewAccountService builds the service.
func NewAccountService(cfg config.AuthConfig, deps AccountDependencies) *AccountService {
	return &AccountService{
		users:       deps.UserRepo,
		profiles:    deps.ProfileRepo,
		resetTokens: auth.NewResetTokenManager(cfg.ResetTokenSecret, cfg.ResetTokenTTL()),
		dispatcher:  deps.Dispatcher,
		bcryptCost:  cfg.BcryptCost,
	}
}

// Register creates a new account with the default reporter profile. User and
// profile land in one transaction.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateWithProfile(ctx, user, domain.RoleReporter); err != nil {
		return nil, err
	}
	return user, nil
}

// Authenticate verifies credentials, returning a generic error on any
// mismatch so callers cannot probe which part failed.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// RequestPasswordReset issues a reset token for the account, delivered
// through the notification pipeline. Unknown emails succeed silently so the
// endpoint cannot be used to enumerate accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	token, _, err := s.resetTokens.Generate(user.ID)
	if err != nil {
		return err
	}
	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			Type:    events.EventPasswordResetIssued,
			ActorID: user.ID,
			Payload: events.PasswordResetIssuedPayload{
				Email: user.Email,
				Token: token,
			},
		})
	}
	return nil
}

// ConfirmPasswordReset validates the token and stores the new password hash.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	userID, err := s.resetTokens.Parse(token)
	if err != nil {
		return ErrInvalidResetToken
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrInvalidResetToken
		}
		return err
	}
	return nil
}
