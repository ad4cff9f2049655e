package wallet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"
)

func TestConsume_Success(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 12, 0, 0, 0, msk))
	userId := f.addAccount(t, accountSpec{name: "client", tier: models.PlanNone, genuine: true})
	f.credit(t, userId, models.FieldTokensPurchased, 2160)

	res, err := f.consumption.Consume(context.Background(), userId, 500, "chat")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !res.Success || res.Code != models.CodeOK {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Wallet.Balance != 1660 {
		t.Errorf("expected balance 1660, got %d", res.Wallet.Balance)
	}

	ops := f.operations(t, userId)
	if len(ops) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(ops))
	}
	op := ops[0]
	if op.Kind != models.OperationConsumption || op.Amount != 500 || op.Reason != "chat" {
		t.Errorf("unexpected entry: %+v", op)
	}
	if op.BalanceBefore != 2160 || op.BalanceAfter != 1660 {
		t.Errorf("ledger does not match wallet: before=%d after=%d", op.BalanceBefore, op.BalanceAfter)
	}
}

func TestConsume_InsufficientBalance(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 12, 0, 0, 0, msk))
	userId := f.addAccount(t, accountSpec{name: "client", tier: models.PlanNone, genuine: true})
	f.credit(t, userId, models.FieldTokensPurchased, 2160)
	before := f.wallet(t, userId)

	res, err := f.consumption.Consume(context.Background(), userId, 3000, "chat")
	if err != nil {
		t.Fatalf("business rejection must not be an error: %v", err)
	}
	if res.Success || res.Code != models.CodeInsufficientBalance {
		t.Fatalf("expected insufficient_balance, got %+v", res)
	}
	if res.Available != 2160 || res.Requested != 3000 {
		t.Errorf("result lacks context: %+v", res)
	}
	if after := f.wallet(t, userId); after != before {
		t.Errorf("wallet changed: %+v -> %+v", before, after)
	}
	if ops := f.operations(t, userId); len(ops) != 0 {
		t.Errorf("expected no ledger entry, got %d", len(ops))
	}
}

func TestConsume_UnlimitedBypass(t *testing.T) {
	tests := []struct {
		name string
		spec accountSpec
	}{
		{"administrative", accountSpec{name: "admin", tier: models.PlanNone, genuine: true, admin: true}},
		{"unlimited plan", accountSpec{name: "maxuser", tier: models.PlanMax, activated: time.Date(2025, 3, 1, 0, 0, 0, 0, msk), genuine: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, time.Date(2025, 3, 10, 12, 0, 0, 0, msk))
			userId := f.addAccount(t, tt.spec)

			res, err := f.consumption.Consume(context.Background(), userId, 10_000, "bulk")
			if err != nil {
				t.Fatalf("Consume failed: %v", err)
			}
			if !res.Success || !res.Wallet.Unlimited {
				t.Fatalf("expected bypass success, got %+v", res)
			}
			if w := f.wallet(t, userId); w.TokensSpent != 0 {
				t.Errorf("bypass must not touch TokensSpent, got %d", w.TokensSpent)
			}

			ops := f.operations(t, userId)
			if len(ops) != 1 {
				t.Fatalf("bypass must still record, got %d entries", len(ops))
			}
			if ops[0].BalanceBefore != ops[0].BalanceAfter || ops[0].Field != "" {
				t.Errorf("unexpected bypass entry: %+v", ops[0])
			}
		})
	}
}

func TestConsume_InvalidAmount(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 12, 0, 0, 0, msk))
	userId := f.addAccount(t, accountSpec{name: "client", genuine: true})

	for _, amount := range []int64{0, -5} {
		res, err := f.consumption.Consume(context.Background(), userId, amount, "x")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Code != models.CodeInvalidAmount {
			t.Errorf("amount %d: expected invalid_amount, got %s", amount, res.Code)
		}
	}
}

func TestConsume_UnknownUser(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 12, 0, 0, 0, msk))
	_, err := f.consumption.Consume(context.Background(), "ghost", 1, "x")
	if !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestConsume_ConcurrentNeverNegative(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 12, 0, 0, 0, msk))
	userId := f.addAccount(t, accountSpec{name: "client", genuine: true})
	f.credit(t, userId, models.FieldTokensEarned, 1000)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, rejected := 0, 0
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.consumption.Consume(context.Background(), userId, 30, "burst")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if res.Success {
				ok++
			} else {
				rejected++
			}
		}()
	}
	wg.Wait()

	w := f.wallet(t, userId)
	if w.Balance() < 0 {
		t.Fatalf("balance negative: %d", w.Balance())
	}
	if ok != 33 || rejected != 31 || w.Balance() != 10 {
		t.Errorf("expected 33 successes and balance 10, got ok=%d rejected=%d balance=%d", ok, rejected, w.Balance())
	}

	// every successful call left exactly one entry whose before/after chain is unbroken
	ops := f.operations(t, userId)
	if len(ops) != ok {
		t.Fatalf("expected %d entries, got %d", ok, len(ops))
	}
	seen := map[int64]bool{}
	for _, op := range ops {
		if op.BalanceBefore-op.BalanceAfter != 30 {
			t.Errorf("entry does not match delta: %+v", op)
		}
		if seen[op.BalanceBefore] {
			t.Errorf("two entries start from the same balance %d", op.BalanceBefore)
		}
		seen[op.BalanceBefore] = true
	}
}

func TestCredit(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 10, 12, 0, 0, 0, msk))
	userId := f.addAccount(t, accountSpec{name: "pro", genuine: true})
	ctx := models.WithCaller(context.Background(), &models.Caller{Source: "bot"})

	res, err := f.consumption.Credit(ctx, userId, models.FieldTokensEarned, 250, "referral")
	if err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if !res.Success || res.Wallet.TokensEarned != 250 || res.Wallet.Balance != 250 {
		t.Errorf("unexpected result: %+v", res.Wallet)
	}

	ops := f.operations(t, userId)
	if len(ops) != 1 || ops[0].Kind != models.OperationCreditAdjustment || ops[0].Source != "bot" {
		t.Errorf("unexpected ledger: %+v", ops)
	}

	if _, err := f.consumption.Credit(ctx, userId, models.FieldCreditAccrued, 10, "cheat"); !errors.Is(err, store.ErrUnknownField) {
		t.Errorf("credit counters must not be topped up directly, got %v", err)
	}
}
