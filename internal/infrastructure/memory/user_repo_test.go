package memory_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/ErlanBelekov/jwt-auth/internal/domain"
	"github.com/ErlanBelekov/jwt-auth/internal/infrastructure/memory"
)

func TestCreate_AssignsSequentialIDs(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	a, err := repo.Create(ctx, &domain.User{Email: "a@x.com", Username: "alice", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	b, err := repo.Create(ctx, &domain.User{Email: "b@x.com", Username: "bob", PasswordHash: "h"})
	if err != nil {
		t.Fatalf("create b: %v", err)
	}

	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d; want 1, 2", a.ID, b.ID)
	}
	if a.CreatedAt.IsZero() {
		t.Error("created_at not set")
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, &domain.User{Email: "a@x.com", Username: "alice"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := repo.Create(ctx, &domain.User{Email: "a@x.com", Username: "other"})
	if !errors.Is(err, domain.ErrDuplicateIdentity) {
		t.Errorf("want ErrDuplicateIdentity, got %v", err)
	}
}

func TestCreate_EmailIsCaseSensitive(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	if _, err := repo.Create(ctx, &domain.User{Email: "a@x.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := repo.Create(ctx, &domain.User{Email: "A@x.com"}); err != nil {
		t.Errorf("differently-cased email rejected: %v", err)
	}
}

func TestFind_ReturnsCopies(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	created, _ := repo.Create(ctx, &domain.User{Email: "a@x.com", Username: "alice"})
	created.Username = "mutated"

	got, err := repo.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if got.Username != "alice" {
		t.Errorf("stored user mutated through returned pointer: %q", got.Username)
	}

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Errorf("id = %d, want %d", byEmail.ID, created.ID)
	}
}

func TestFind_Missing(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	if _, err := repo.FindByEmail(ctx, "nobody@x.com"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("FindByEmail: want ErrUserNotFound, got %v", err)
	}
	if _, err := repo.FindByID(ctx, 99); !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("FindByID: want ErrUserNotFound, got %v", err)
	}
}

func TestCreate_ConcurrentSameEmailOnlyOneWins(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Create(ctx, &domain.User{Email: "race@x.com", Username: fmt.Sprintf("u%d", i)})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("wins = %d, want 1", wins)
	}
}
