package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"
	"marketplace-wallet-go/internal/store/memory"

	"go.uber.org/zap"
)

func TestFindAccount(t *testing.T) {
	ctx := context.Background()
	s := memory.New(clock.NewFixed(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	created, err := s.CreateAccount(ctx, store.CreateAccountParams{
		Name: "Alice", Email: "alice@example.com", PlanTier: models.PlanBasic, Genuine: true,
	})
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	byId, err := FindAccount(ctx, s, created.Id)
	if err != nil || byId.Id != created.Id {
		t.Fatalf("lookup by id: %v, %+v", err, byId)
	}

	byEmail, err := FindAccount(ctx, s, " ALICE@example.com ")
	if err != nil || byEmail.Id != created.Id {
		t.Fatalf("lookup by email: %v, %+v", err, byEmail)
	}

	if _, err := FindAccount(ctx, s, "bob@example.com"); !errors.Is(err, store.ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := FindAccount(ctx, s, ""); err == nil {
		t.Error("expected error for empty reference")
	}
}

func TestLookupAccounts(t *testing.T) {
	ctx := context.Background()
	s := memory.New(clock.NewFixed(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)))
	for _, name := range []string{"a", "b", "c"} {
		if _, err := s.CreateAccount(ctx, store.CreateAccountParams{Name: name, Email: name + "@example.com"}); err != nil {
			t.Fatalf("CreateAccount failed: %v", err)
		}
	}

	all, err := LookupAccounts(ctx, s, "", zap.NewNop())
	if err != nil || len(all) != 3 {
		t.Fatalf("expected 3 accounts, got %d (%v)", len(all), err)
	}

	one, err := LookupAccounts(ctx, s, "b@example.com", zap.NewNop())
	if err != nil || len(one) != 1 || one[0].Name != "b" {
		t.Fatalf("unexpected filtered result %+v (%v)", one, err)
	}
}

func TestShortId(t *testing.T) {
	if ShortId("") != "none" || ShortId("abc") != "abc" || ShortId("0123456789") != "01234567..." {
		t.Error("unexpected ShortId output")
	}
}
