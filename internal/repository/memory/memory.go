// Package memory provides an in-process user store for development and tests.
// Its contents are lost when the process exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/msomdec/accountd/internal/domain"
)

// DB implements domain.Store.
type DB struct {
	users *UserRepository
}

// New creates an empty store.
func New() *DB {
	return &DB{users: NewUserRepository()}
}

func (db *DB) Migrate(ctx context.Context) error { return nil }
func (db *DB) Ping(ctx context.Context) error    { return nil }
func (db *DB) Close() error                      { return nil }

// Users returns the user repository.
func (db *DB) Users() domain.UserRepository { return db.users }

// UserRepository keeps users keyed by email.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*domain.User)}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.users[user.Email]; exists {
		return domain.ErrDuplicateAccount
	}
	if r.tokenTaken(user.VerificationToken) {
		return domain.ErrDuplicateAccount
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.Email] = clone(user)
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var key string
	for email, u := range r.users {
		if u.ID == user.ID {
			key = email
			break
		}
	}
	if key == "" {
		return domain.ErrNotFound
	}
	if key != user.Email {
		if _, exists := r.users[user.Email]; exists {
			return domain.ErrDuplicateAccount
		}
	}

	user.UpdatedAt = time.Now().UTC()
	delete(r.users, key)
	r.users[user.Email] = clone(user)
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(u), nil
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.VerificationToken == token })
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool {
		return u.PasswordResetToken != nil && *u.PasswordResetToken == token
	})
}

func (r *UserRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, domain.ErrNotFound
}

// tokenTaken mirrors the UNIQUE verification_token constraint of the SQL stores.
func (r *UserRepository) tokenTaken(token string) bool {
	for _, u := range r.users {
		if u.VerificationToken == token {
			return true
		}
	}
	return false
}

// clone copies u so callers never share mutable state with the store.
func clone(u *domain.User) *domain.User {
	c := *u
	c.PasswordHash = append([]byte(nil), u.PasswordHash...)
	c.PasswordSalt = append([]byte(nil), u.PasswordSalt...)
	if u.VerifiedAt != nil {
		t := *u.VerifiedAt
		c.VerifiedAt = &t
	}
	if u.PasswordResetToken != nil {
		s := *u.PasswordResetToken
		c.PasswordResetToken = &s
	}
	if u.ResetTokenExpires != nil {
		t := *u.ResetTokenExpires
		c.ResetTokenExpires = &t
	}
	return &c
}
