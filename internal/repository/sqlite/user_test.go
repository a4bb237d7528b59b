package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/msomdec/accountd/internal/domain"
	"github.com/msomdec/accountd/internal/repository/repotest"
	"github.com/msomdec/accountd/internal/repository/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUserRepository(t *testing.T) {
	repotest.RunUserRepository(t, func(t *testing.T) domain.UserRepository {
		return sqlite.NewUserRepository(newTestDB(t))
	})
}

func TestUserRepository_Create_DuplicateVerificationToken(t *testing.T) {
	repo := newTestDB(t).Users()
	ctx := context.Background()

	u1 := repotest.NewUser("u1", "one@example.com")
	if err := repo.Create(ctx, u1); err != nil {
		t.Fatalf("Create u1: %v", err)
	}

	u2 := repotest.NewUser("u2", "two@example.com")
	u2.VerificationToken = u1.VerificationToken
	if err := repo.Create(ctx, u2); !errors.Is(err, domain.ErrDuplicateAccount) {
		t.Fatalf("expected ErrDuplicateAccount, got %v", err)
	}
}

func TestUserRepository_ConcurrentCreateSameEmail(t *testing.T) {
	repo := newTestDB(t).Users()
	ctx := context.Background()

	const n = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := repotest.NewUser(string(rune('a'+i)), "race@example.com")
			err := repo.Create(ctx, u)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !errors.Is(err, domain.ErrDuplicateAccount) {
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if succeeded != 1 {
		t.Fatalf("expected exactly one successful create, got %d", succeeded)
	}
}

func TestUserRepository_TimesRoundTripInUTC(t *testing.T) {
	repo := newTestDB(t).Users()
	ctx := context.Background()

	loc := time.FixedZone("UTC+3", 3*60*60)
	expires := time.Date(2026, 10, 19, 15, 0, 0, 0, loc)
	token := "reset-tz"

	u := repotest.NewUser("tz", "tz@example.com")
	u.PasswordResetToken = &token
	u.ResetTokenExpires = &expires
	if err := repo.Create(ctx, u); err != nil {
		t.Fatalf("Create: %v", err)
	}

	found, err := repo.GetByResetToken(ctx, token)
	if err != nil {
		t.Fatalf("GetByResetToken: %v", err)
	}
	if !found.ResetTokenExpires.Equal(expires) {
		t.Fatalf("expected expiry %v, got %v", expires, found.ResetTokenExpires)
	}
	if found.ResetTokenExpires.Location() != time.UTC {
		t.Fatalf("expected UTC location, got %v", found.ResetTokenExpires.Location())
	}
}
