package domain

import (
	"context"
	"time"
)

// User represents a registered account and its credential material.
type User struct {
	ID                 string
	Email              string
	PasswordHash       []byte
	PasswordSalt       []byte
	VerifiedAt         *time.Time
	VerificationToken  string
	PasswordResetToken *string
	ResetTokenExpires  *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// IsVerified reports whether the user has confirmed their email address.
func (u *User) IsVerified() bool {
	return u.VerifiedAt != nil
}

// ResetTicket is the context of an issued password reset token.
type ResetTicket struct {
	Email     string
	Token     string
	ExpiresAt time.Time
}

// UserRepository defines persistence operations for users.
// Lookups are exact matches; a missing row yields ErrNotFound and an
// insert that collides on email yields ErrDuplicateAccount.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByVerificationToken(ctx context.Context, token string) (*User, error)
	GetByResetToken(ctx context.Context, token string) (*User, error)
}

// Notifier is told whenever a token is issued to a user. Delivering the
// token (email, SMS, ...) is up to the implementation.
type Notifier interface {
	VerificationIssued(ctx context.Context, user *User, token string) error
	PasswordResetIssued(ctx context.Context, ticket *ResetTicket) error
}
