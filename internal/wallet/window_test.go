package wallet

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
)

func TestWindowOpen(t *testing.T) {
	w := Window{Day: 3, Location: msk}

	for day := 1; day <= 31; day++ {
		at := time.Date(2025, 1, day, 12, 0, 0, 0, msk)
		if got := w.Open(at); got != (day == 3) {
			t.Errorf("day %d: Open = %v", day, got)
		}
	}

	// 2025-01-02 22:30 UTC is already the 3rd in Moscow
	if !w.Open(time.Date(2025, 1, 2, 22, 30, 0, 0, time.UTC)) {
		t.Error("window must follow the configured location, not UTC")
	}
	// 2025-01-03 21:30 UTC is the 4th in Moscow
	if w.Open(time.Date(2025, 1, 3, 21, 30, 0, 0, time.UTC)) {
		t.Error("window must close at local midnight")
	}
}

func TestWindowNextOpen(t *testing.T) {
	w := Window{Day: 3, Location: msk}

	tests := []struct {
		name string
		at   time.Time
		want time.Time
	}{
		{"before window", time.Date(2025, 1, 1, 0, 0, 0, 0, msk), time.Date(2025, 1, 3, 0, 0, 0, 0, msk)},
		{"during window", time.Date(2025, 1, 3, 10, 0, 0, 0, msk), time.Date(2025, 2, 3, 0, 0, 0, 0, msk)},
		{"after window", time.Date(2025, 12, 20, 0, 0, 0, 0, msk), time.Date(2026, 1, 3, 0, 0, 0, 0, msk)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.NextOpen(tt.at); !got.Equal(tt.want) {
				t.Errorf("NextOpen = %v, want %v", got, tt.want)
			}
		})
	}
}

// windowFixture builds a fixture on window day with n genuine max-plan users,
// each holding one reconciled period of cashback.
func windowFixture(t *testing.T, n int) (*fixture, []string) {
	t.Helper()
	f := newFixture(t, time.Date(2025, 3, 3, 12, 0, 0, 0, msk))
	activated := clock.AddMonths(f.clock.Now(), -1)

	var ids []string
	for i := 0; i < n; i++ {
		id := f.addAccount(t, accountSpec{name: "max" + string(rune('a'+i)), tier: models.PlanMax, activated: activated, genuine: true})
		if _, err := f.cashback.Reconcile(context.Background(), id); err != nil {
			t.Fatalf("reconcile: %v", err)
		}
		ids = append(ids, id)
	}
	return f, ids
}

func TestRequestWithdrawal_WindowClosed(t *testing.T) {
	f, ids := windowFixture(t, 1)
	before := f.wallet(t, ids[0])

	for _, day := range []int{1, 2, 4, 15, 28} {
		f.clock.Set(time.Date(2025, 3, day, 12, 0, 0, 0, msk))
		res, err := f.window.RequestWithdrawal(context.Background(), ids[0], 100, "0xabc")
		if err != nil {
			t.Fatalf("day %d: unexpected error: %v", day, err)
		}
		if res.Code != models.CodeWindowClosed {
			t.Errorf("day %d: expected window_closed, got %s", day, res.Code)
		}
	}

	if after := f.wallet(t, ids[0]); after != before {
		t.Errorf("wallet changed while closed")
	}
}

func TestRequestWithdrawal_Success(t *testing.T) {
	f, ids := windowFixture(t, 1)
	pub := &recordingPublisher{}
	f.window.SetPublisher(pub)

	res, err := f.window.RequestWithdrawal(context.Background(), ids[0], 1000, " 0xabc ")
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if !res.Success || res.Withdrawal == nil {
		t.Fatalf("expected success, got %+v", res)
	}
	if res.Withdrawal.Status != models.WithdrawalPending || res.Withdrawal.PayoutDestination != "0xabc" || res.Withdrawal.UserId != ids[0] {
		t.Errorf("unexpected request: %+v", res.Withdrawal)
	}

	w := f.wallet(t, ids[0])
	if w.CreditWithdrawn != 1000 || w.Withdrawable() != 740 {
		t.Errorf("unexpected wallet: %+v", w)
	}

	ops := f.operations(t, ids[0])
	last := ops[len(ops)-1]
	if last.Kind != models.OperationWithdrawal || last.BalanceBefore != 1740 || last.BalanceAfter != 740 || last.Reference != res.Withdrawal.Id {
		t.Errorf("unexpected ledger entry: %+v", last)
	}

	stored, err := f.store.GetWithdrawal(context.Background(), res.Withdrawal.Id)
	if err != nil || stored.Amount != 1000 {
		t.Errorf("request not persisted: %v %+v", err, stored)
	}
	if len(pub.records) != 1 {
		t.Errorf("expected withdrawal to be published")
	}
}

func TestRequestWithdrawal_Rejections(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		destination string
		want        models.ResultCode
	}{
		{"zero amount", 0, "0xabc", models.CodeInvalidAmount},
		{"negative amount", -10, "0xabc", models.CodeInvalidAmount},
		{"missing destination", 10, "  ", models.CodeInvalidDestination},
		{"more than credit", 1741, "0xabc", models.CodeInsufficientCredit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ids := windowFixture(t, 1)
			before := f.wallet(t, ids[0])
			opsBefore := len(f.operations(t, ids[0]))

			res, err := f.window.RequestWithdrawal(context.Background(), ids[0], tt.amount, tt.destination)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Success || res.Code != tt.want {
				t.Fatalf("expected %s, got %+v", tt.want, res)
			}
			if after := f.wallet(t, ids[0]); after != before {
				t.Errorf("wallet changed on rejection")
			}
			if len(f.operations(t, ids[0])) != opsBefore {
				t.Errorf("ledger changed on rejection")
			}
		})
	}
}

func TestRequestWithdrawal_AdminGetsNoBypass(t *testing.T) {
	f := newFixture(t, time.Date(2025, 3, 3, 12, 0, 0, 0, msk))
	admin := f.addAccount(t, accountSpec{name: "admin", genuine: true, admin: true})

	res, err := f.window.RequestWithdrawal(context.Background(), admin, 10, "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Code != models.CodeInsufficientCredit {
		t.Errorf("expected insufficient_credit for admin, got %s", res.Code)
	}
}

func TestRequestWithdrawal_PoolCapUnderConcurrency(t *testing.T) {
	f, ids := windowFixture(t, 2)

	// a synthetic account holds credit but contributes nothing to the pool
	demo := f.addAccount(t, accountSpec{name: "demo", tier: models.PlanPro, activated: clock.AddMonths(f.clock.Now(), -1), genuine: false})
	f.credit(t, demo, models.FieldCreditAccrued, 3000)

	pool, err := f.pool.ComputeMonthlyPool(context.Background())
	if err != nil {
		t.Fatalf("ComputeMonthlyPool failed: %v", err)
	}
	if pool.TotalPool != 3480 {
		t.Fatalf("expected pool 3480, got %d", pool.TotalPool)
	}

	requests := map[string]int64{ids[0]: 1740, ids[1]: 1740, demo: 3000}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var approved int64
	exhausted := 0
	for userId, amount := range requests {
		wg.Add(1)
		go func(userId string, amount int64) {
			defer wg.Done()
			res, err := f.window.RequestWithdrawal(context.Background(), userId, amount, "0xabc")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch {
			case res.Success:
				approved += amount
			case res.Code == models.CodePoolExhausted:
				exhausted++
			default:
				t.Errorf("unexpected code %s", res.Code)
			}
		}(userId, amount)
	}
	wg.Wait()

	if exhausted == 0 {
		t.Error("expected at least one pool_exhausted")
	}
	if approved > pool.TotalPool {
		t.Errorf("pool oversubscribed: %d > %d", approved, pool.TotalPool)
	}

	after, _ := f.pool.ComputeMonthlyPool(context.Background())
	if after.Withdrawn != approved || after.Remaining != pool.TotalPool-approved {
		t.Errorf("pool snapshot disagrees: withdrawn=%d remaining=%d approved=%d", after.Withdrawn, after.Remaining, approved)
	}
}
