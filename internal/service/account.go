package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/msomdec/accountd/internal/credential"
	"github.com/msomdec/accountd/internal/domain"
)

// DefaultResetTokenTTL is how long a password reset token stays valid.
const DefaultResetTokenTTL = 24 * time.Hour

// AccountService handles registration, login, email verification and
// password reset.
type AccountService struct {
	users    domain.UserRepository
	notifier domain.Notifier
	clock    clockwork.Clock
	resetTTL time.Duration
	logger   *zap.Logger
}

// AccountOption customises an AccountService.
type AccountOption func(*AccountService)

// WithClock sets the time source used for verification and token expiry.
func WithClock(c clockwork.Clock) AccountOption {
	return func(s *AccountService) { s.clock = c }
}

// WithResetTokenTTL overrides DefaultResetTokenTTL.
func WithResetTokenTTL(ttl time.Duration) AccountOption {
	return func(s *AccountService) { s.resetTTL = ttl }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(l *zap.Logger) AccountOption {
	return func(s *AccountService) { s.logger = l }
}

// NewAccountService creates a new AccountService.
func NewAccountService(users domain.UserRepository, notifier domain.Notifier, opts ...AccountOption) *AccountService {
	s := &AccountService{
		users:    users,
		notifier: notifier,
		clock:    clockwork.NewRealClock(),
		resetTTL: DefaultResetTokenTTL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a new, unverified account and issues its verification token.
func (s *AccountService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: invalid email address", domain.ErrInvalidInput)
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, domain.ErrDuplicateAccount
	case !errors.Is(err, domain.ErrNotFound):
		return nil, fmt.Errorf("get user: %w", err)
	}

	hash, salt, err := credential.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token, err := credential.NewToken()
	if err != nil {
		return nil, fmt.Errorf("verification token: %w", err)
	}

	user := &domain.User{
		ID:                ksuid.New().String(),
		Email:             email,
		PasswordHash:      hash,
		PasswordSalt:      salt,
		VerificationToken: token,
	}

	// The store's unique constraint settles concurrent registrations.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateAccount) {
			return nil, domain.ErrDuplicateAccount
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	if err := s.notifier.VerificationIssued(ctx, user, token); err != nil {
		s.logger.Warn("verification notification failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return user, nil
}

// Login checks the password of a verified account and returns it.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !user.IsVerified() {
		return nil, domain.ErrAccountUnverified
	}

	if !credential.VerifyPasswordHash(password, user.PasswordHash, user.PasswordSalt) {
		return nil, domain.ErrCredentialMismatch
	}

	return user, nil
}

// VerifyEmail marks the account holding token as verified.
// The token stays on the account, so verifying again refreshes VerifiedAt.
func (s *AccountService) VerifyEmail(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("get user by verification token: %w", err)
	}

	now := s.now()
	user.VerifiedAt = &now

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("user verified", zap.String("user_id", user.ID))
	return user, nil
}

// RequestPasswordReset issues a reset token valid for the configured TTL.
// Any outstanding reset token for the account is replaced.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (*domain.ResetTicket, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	token, err := credential.NewToken()
	if err != nil {
		return nil, fmt.Errorf("reset token: %w", err)
	}
	expires := s.now().Add(s.resetTTL)

	user.PasswordResetToken = &token
	user.ResetTokenExpires = &expires

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	ticket := &domain.ResetTicket{Email: user.Email, Token: token, ExpiresAt: expires}

	s.logger.Info("password reset requested", zap.String("user_id", user.ID), zap.Time("expires_at", expires))
	if err := s.notifier.PasswordResetIssued(ctx, ticket); err != nil {
		s.logger.Warn("password reset notification failed", zap.String("user_id", user.ID), zap.Error(err))
	}
	return ticket, nil
}

// ResetPassword replaces the password of the account holding token and
// invalidates the token.
func (s *AccountService) ResetPassword(ctx context.Context, token, password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	if token == "" {
		return domain.ErrInvalidToken
	}

	user, err := s.users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrInvalidToken
		}
		return fmt.Errorf("get user by reset token: %w", err)
	}

	if user.ResetTokenExpires == nil || !s.now().Before(*user.ResetTokenExpires) {
		return domain.ErrExpiredToken
	}

	hash, salt, err := credential.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user.PasswordHash = hash
	user.PasswordSalt = salt
	user.PasswordResetToken = nil
	user.ResetTokenExpires = nil

	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	s.logger.Info("password reset", zap.String("user_id", user.ID))
	return nil
}

func (s *AccountService) now() time.Time {
	return s.clock.Now().UTC()
}
