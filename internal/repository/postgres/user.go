package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/msomdec/accountd/internal/domain"
)

const uniqueViolation = "23505"

// userRow is the users table as sqlx sees it.
type userRow struct {
	ID                 string         `db:"id"`
	Email              string         `db:"email"`
	PasswordHash       []byte         `db:"password_hash"`
	PasswordSalt       []byte         `db:"password_salt"`
	VerifiedAt         sql.NullTime   `db:"verified_at"`
	VerificationToken  string         `db:"verification_token"`
	PasswordResetToken sql.NullString `db:"password_reset_token"`
	ResetTokenExpires  sql.NullTime   `db:"reset_token_expires"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	u := &domain.User{
		ID:                r.ID,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		PasswordSalt:      r.PasswordSalt,
		VerificationToken: r.VerificationToken,
		CreatedAt:         r.CreatedAt.UTC(),
		UpdatedAt:         r.UpdatedAt.UTC(),
	}
	if r.VerifiedAt.Valid {
		t := r.VerifiedAt.Time.UTC()
		u.VerifiedAt = &t
	}
	if r.PasswordResetToken.Valid {
		s := r.PasswordResetToken.String
		u.PasswordResetToken = &s
	}
	if r.ResetTokenExpires.Valid {
		t := r.ResetTokenExpires.Time.UTC()
		u.ResetTokenExpires = &t
	}
	return u
}

const selectUser = `SELECT id, email, password_hash, password_salt, verified_at, verification_token,
       password_reset_token, reset_token_expires, created_at, updated_at
  FROM users`

// UserRepository implements domain.UserRepository on Postgres.
type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	const q = `INSERT INTO users (id, email, password_hash, password_salt, verified_at, verification_token,
                   password_reset_token, reset_token_expires)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		user.ID, user.Email, user.PasswordHash, user.PasswordSalt, nullTime(user.VerifiedAt),
		user.VerificationToken, nullString(user.PasswordResetToken), nullTime(user.ResetTokenExpires),
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAccount
		}
		return fmt.Errorf("insert user: %w", err)
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	const q = `UPDATE users
   SET email = $2, password_hash = $3, password_salt = $4, verified_at = $5,
       verification_token = $6, password_reset_token = $7, reset_token_expires = $8, updated_at = now()
 WHERE id = $1
RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, q,
		user.ID, user.Email, user.PasswordHash, user.PasswordSalt, nullTime(user.VerifiedAt),
		user.VerificationToken, nullString(user.PasswordResetToken), nullTime(user.ResetTokenExpires),
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicateAccount
		}
		return fmt.Errorf("update user: %w", err)
	}
	user.UpdatedAt = user.UpdatedAt.UTC()
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.get(ctx, selectUser+" WHERE email = $1", email)
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (*domain.User, error) {
	return r.get(ctx, selectUser+" WHERE verification_token = $1", token)
}

func (r *UserRepository) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	return r.get(ctx, selectUser+" WHERE password_reset_token = $1", token)
}

func (r *UserRepository) get(ctx context.Context, q string, arg string) (*domain.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return row.toDomain(), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
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
