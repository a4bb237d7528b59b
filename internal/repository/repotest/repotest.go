// Package repotest holds a behavioural test suite shared by every
// domain.UserRepository implementation.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/accountd/internal/domain"
)

// NewUser returns an unverified user with distinct credential material.
func NewUser(id, email string) *domain.User {
	return &domain.User{
		ID:                id,
		Email:             email,
		PasswordHash:      []byte("hash-" + id),
		PasswordSalt:      []byte("salt-" + id),
		VerificationToken: "verify-" + id,
	}
}

// RunUserRepository runs the suite against repositories built by newRepo.
// newRepo must return an empty repository on each call.
func RunUserRepository(t *testing.T, newRepo func(t *testing.T) domain.UserRepository) {
	t.Run("Create", func(t *testing.T) {
		repo := newRepo(t)
		user := NewUser("u1", "create@example.com")

		require.NoError(t, repo.Create(context.Background(), user))
		assert.False(t, user.CreatedAt.IsZero(), "expected CreatedAt to be set")
		assert.False(t, user.UpdatedAt.IsZero(), "expected UpdatedAt to be set")
	})

	t.Run("Create_DuplicateEmail", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, NewUser("u1", "dup@example.com")))
		err := repo.Create(ctx, NewUser("u2", "dup@example.com"))
		assert.ErrorIs(t, err, domain.ErrDuplicateAccount)
	})

	t.Run("Create_EmailIsCaseSensitive", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		require.NoError(t, repo.Create(ctx, NewUser("u1", "case@example.com")))
		require.NoError(t, repo.Create(ctx, NewUser("u2", "Case@example.com")))

		_, err := repo.GetByEmail(ctx, "CASE@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("GetByEmail", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		user := NewUser("u1", "byemail@example.com")
		require.NoError(t, repo.Create(ctx, user))

		found, err := repo.GetByEmail(ctx, "byemail@example.com")
		require.NoError(t, err)

		if diff := cmp.Diff(user, found, cmpopts.EquateApproxTime(time.Second)); diff != "" {
			t.Fatalf("user mismatch (-want +got):\n%s", diff)
		}
		assert.Nil(t, found.VerifiedAt)
		assert.Nil(t, found.PasswordResetToken)
		assert.Nil(t, found.ResetTokenExpires)
	})

	t.Run("GetByEmail_NotFound", func(t *testing.T) {
		repo := newRepo(t)

		_, err := repo.GetByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("GetByVerificationToken", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, NewUser("u1", "a@example.com")))
		require.NoError(t, repo.Create(ctx, NewUser("u2", "b@example.com")))

		found, err := repo.GetByVerificationToken(ctx, "verify-u2")
		require.NoError(t, err)
		assert.Equal(t, "b@example.com", found.Email)

		_, err = repo.GetByVerificationToken(ctx, "verify-u3")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Update_VerifyAndReset", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		user := NewUser("u1", "update@example.com")
		require.NoError(t, repo.Create(ctx, user))

		verified := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		expires := verified.Add(24 * time.Hour)
		token := "reset-u1"
		user.VerifiedAt = &verified
		user.PasswordResetToken = &token
		user.ResetTokenExpires = &expires
		require.NoError(t, repo.Update(ctx, user))

		found, err := repo.GetByResetToken(ctx, "reset-u1")
		require.NoError(t, err)
		assert.Equal(t, "u1", found.ID)
		require.NotNil(t, found.VerifiedAt)
		assert.True(t, verified.Equal(*found.VerifiedAt))
		require.NotNil(t, found.ResetTokenExpires)
		assert.True(t, expires.Equal(*found.ResetTokenExpires))

		found.PasswordHash = []byte("new-hash")
		found.PasswordSalt = []byte("new-salt")
		found.PasswordResetToken = nil
		found.ResetTokenExpires = nil
		require.NoError(t, repo.Update(ctx, found))

		_, err = repo.GetByResetToken(ctx, "reset-u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)

		again, err := repo.GetByEmail(ctx, "update@example.com")
		require.NoError(t, err)
		assert.Equal(t, []byte("new-hash"), again.PasswordHash)
		assert.Equal(t, []byte("new-salt"), again.PasswordSalt)
		assert.Nil(t, again.PasswordResetToken)
		assert.Nil(t, again.ResetTokenExpires)
		assert.NotNil(t, again.VerifiedAt)
	})

	t.Run("Update_NotFound", func(t *testing.T) {
		repo := newRepo(t)

		err := repo.Update(context.Background(), NewUser("ghost", "ghost@example.com"))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("GetByResetToken_NotFound", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, NewUser("u1", "noreset@example.com")))

		_, err := repo.GetByResetToken(ctx, "")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.GetByResetToken(ctx, "reset-u1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("ReturnedUserIsDetached", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, NewUser("u1", "detached@example.com")))

		found, err := repo.GetByEmail(ctx, "detached@example.com")
		require.NoError(t, err)
		found.PasswordHash[0] = 'X'
		now := time.Now()
		found.VerifiedAt = &now

		again, err := repo.GetByEmail(ctx, "detached@example.com")
		require.NoError(t, err)
		assert.Equal(t, []byte("hash-u1"), again.PasswordHash)
		assert.Nil(t, again.VerifiedAt)
	})
}
