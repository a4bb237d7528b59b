package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/msomdec/accountd/internal/domain"
)

const userColumns = `id, email, password_hash, password_salt, verified_at, verification_token,
	password_reset_token, reset_token_expires, created_at, updated_at`

// UserRepository implements domain.UserRepository using SQLite.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite-backed UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db.SqlDB}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, password_salt, verified_at, verification_token,
		                    password_reset_token, reset_token_expires, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.PasswordHash, user.PasswordSalt, nullTime(user.VerifiedAt), user.VerificationToken,
		nullString(user.PasswordResetToken), nullTime(user.ResetTokenExpires), now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateAccount
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET email = ?, password_hash = ?, password_salt = ?, verified_at = ?,
		        verification_token = ?, password_reset_token = ?, reset_token_expires = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.PasswordHash, user.PasswordSalt, nullTime(user.VerifiedAt),
		user.VerificationToken, nullString(user.PasswordResetToken), nullTime(user.ResetTokenExpires), now,
		user.ID,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrDuplicateAccount
		}
		return fmt.Errorf("update user: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}

	user.UpdatedAt = now
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getBy(ctx, "verification_token", token)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.getBy(ctx, "password_reset_token", token)
}

// getBy loads the single user whose column equals value. column is always
// one of the constants above, never caller input.
func (r *UserRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	var (
		user        domain.User
		verifiedAt  sql.NullTime
		resetToken  sql.NullString
		resetExpiry sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ?`, value,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.PasswordSalt, &verifiedAt, &user.VerificationToken,
		&resetToken, &resetExpiry, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user by %s: %w", column, err)
	}

	if verifiedAt.Valid {
		t := verifiedAt.Time.UTC()
		user.VerifiedAt = &t
	}
	if resetToken.Valid {
		s := resetToken.String
		user.PasswordResetToken = &s
	}
	if resetExpiry.Valid {
		t := resetExpiry.Time.UTC()
		user.ResetTokenExpires = &t
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return &user, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// isUniqueConstraintError checks if the error is a SQLite unique constraint violation.
func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
