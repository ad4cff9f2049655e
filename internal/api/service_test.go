package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"
	"marketplace-wallet-go/internal/store/memory"

	"github.com/shopspring/decimal"
)

var msk = time.FixedZone("MSK", 3*3600)

type fakeDispatcher struct {
	calls []models.WithdrawalRequest
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, req models.WithdrawalRequest) (string, error) {
	d.calls = append(d.calls, req)
	if d.err != nil {
		return "", d.err
	}
	return "activity-" + req.Id, nil
}

func setupService(t *testing.T, now time.Time, payout PayoutDispatcher) (*WalletService, *memory.Store, *clock.Fixed) {
	t.Helper()
	clk := clock.NewFixed(now)
	s := memory.New(clk)
	catalog := models.PlanCatalog{
		models.PlanBasic: {Tier: models.PlanBasic, Price: 990},
		models.PlanMax:   {Tier: models.PlanMax, Price: 20000, Unlimited: true},
	}
	svc := NewWalletService(s, s, clk, Options{Catalog: catalog, Payout: payout})
	return svc, s, clk
}

func openWallet(t *testing.T, svc *WalletService, name string, tier models.PlanTier, activated time.Time) string {
	t.Helper()
	acct, _, err := svc.OpenWallet(context.Background(), store.CreateAccountParams{
		Name: name, Email: name + "@example.com", PlanTier: tier, PlanActivatedAt: activated, Genuine: true,
	})
	if err != nil {
		t.Fatalf("OpenWallet failed: %v", err)
	}
	return acct.Id
}

func TestGetWallet_ReconcilesBeforeRead(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, msk)
	svc, _, _ := setupService(t, now, nil)
	userId := openWallet(t, svc, "alice", models.PlanMax, clock.AddMonths(now, -1))

	snap, err := svc.GetWallet(context.Background(), userId)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !snap.Reconciled || snap.CreditAccrued != 1740 || snap.Withdrawable != 1740 {
		t.Errorf("unexpected snapshot: %+v", snap)
	}
	if snap.PlanTier != models.PlanMax || !snap.Unlimited {
		t.Errorf("snapshot lacks plan data: %+v", snap)
	}
}

func TestGetWallet_ReconcileFailureFallsBack(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, msk)
	svc, s, _ := setupService(t, now, nil)
	userId := openWallet(t, svc, "bob", models.PlanBasic, clock.AddMonths(now, -2))

	// tier removed from the catalog after activation
	s.SetPlan(context.Background(), userId, models.PlanTier("legacy"), clock.AddMonths(now, -2))

	snap, err := svc.GetWallet(context.Background(), userId)
	if err != nil {
		t.Fatalf("GetWallet must not fail on reconciliation errors: %v", err)
	}
	if snap.Reconciled || snap.CreditAccrued != 0 {
		t.Errorf("expected unreconciled stored wallet, got %+v", snap)
	}
}

func TestGetWallet_UnknownUser(t *testing.T) {
	svc, _, _ := setupService(t, time.Date(2025, 3, 10, 0, 0, 0, 0, msk), nil)

	_, err := svc.GetWallet(context.Background(), "ghost")
	if !errors.Is(err, store.ErrAccountNotFound) && !errors.Is(err, store.ErrWalletNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := svc.GetWallet(context.Background(), ""); err == nil {
		t.Error("expected error for empty user id")
	}
}

func TestRequestWithdrawal_ClosedOutsideWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, msk)
	svc, s, _ := setupService(t, now, nil)
	userId := openWallet(t, svc, "carol", models.PlanMax, clock.AddMonths(now, -1))
	svc.GetWallet(context.Background(), userId)
	before, _ := s.Get(context.Background(), userId)

	res, err := svc.RequestWithdrawal(context.Background(), userId, 100, "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Code != models.CodeWindowClosed {
		t.Fatalf("expected window_closed, got %s", res.Code)
	}
	if after, _ := s.Get(context.Background(), userId); *after != *before {
		t.Error("wallet changed outside the window")
	}
}

func TestRequestWithdrawal_ClosedDayLeavesCashbackUntouched(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, msk)
	svc, s, _ := setupService(t, now, nil)
	userId := openWallet(t, svc, "dave", models.PlanMax, clock.AddMonths(now, -1))
	ctx := context.Background()

	res, err := svc.RequestWithdrawal(ctx, userId, 100, "0xabc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Code != models.CodeWindowClosed {
		t.Fatalf("expected window_closed, got %s", res.Code)
	}

	w, _ := s.Get(ctx, userId)
	if w.CreditAccrued != 0 || w.CashbackPeriods != 0 {
		t.Errorf("cashback reconciled on a closed day: %+v", w)
	}
	ops, _ := s.Operations(ctx, userId)
	if len(ops) != 0 {
		t.Errorf("expected no operations, got %d", len(ops))
	}
}

func TestCashbackRateZeroDisablesAccrual(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, msk)
	clk := clock.NewFixed(now)
	s := memory.New(clk)
	catalog := models.PlanCatalog{
		models.PlanMax: {Tier: models.PlanMax, Price: 20000, Unlimited: true},
	}
	zero := decimal.Zero
	svc := NewWalletService(s, s, clk, Options{Catalog: catalog, CashbackRate: &zero})
	userId := openWallet(t, svc, "erin", models.PlanMax, clock.AddMonths(now, -1))
	ctx := context.Background()

	snap, err := svc.GetWallet(ctx, userId)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if snap.CreditAccrued != 0 {
		t.Errorf("expected no cashback at rate 0, got %d", snap.CreditAccrued)
	}

	pool, err := svc.GetMonthlyPoolSnapshot(ctx)
	if err != nil {
		t.Fatalf("GetMonthlyPoolSnapshot failed: %v", err)
	}
	if pool.TotalPool != 0 {
		t.Errorf("expected empty pool at rate 0, got %d", pool.TotalPool)
	}
}

func TestCashbackRateUnsetUsesDefault(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, msk)
	svc, _, _ := setupService(t, now, nil)
	userId := openWallet(t, svc, "frank", models.PlanMax, clock.AddMonths(now, -1))

	snap, err := svc.GetWallet(context.Background(), userId)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if snap.CreditAccrued != 1740 {
		t.Errorf("expected 1740 at the default rate, got %d", snap.CreditAccrued)
	}
}

func TestWithdrawalApprovalDispatchesPayout(t *testing.T) {
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, msk)
	payout := &fakeDispatcher{}
	svc, s, _ := setupService(t, now, payout)
	ctx := context.Background()
	userId := openWallet(t, svc, "dave", models.PlanMax, clock.AddMonths(now, -1))

	// cashback is reconciled as part of the request
	res, err := svc.RequestWithdrawal(ctx, userId, 1500, "0xabc")
	if err != nil {
		t.Fatalf("RequestWithdrawal failed: %v", err)
	}
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if !res.Wallet.Unlimited {
		t.Error("snapshot should carry the account capability")
	}

	pending, _ := svc.ListWithdrawals(ctx, models.WithdrawalPending)
	if len(pending) != 1 {
		t.Fatalf("expected one pending request, got %d", len(pending))
	}

	resolved, err := svc.ResolveWithdrawal(ctx, res.Withdrawal.Id, true, "looks good")
	if err != nil {
		t.Fatalf("ResolveWithdrawal failed: %v", err)
	}
	if resolved.Status != models.WithdrawalApproved || resolved.PayoutRef != "activity-"+res.Withdrawal.Id {
		t.Errorf("unexpected resolution: %+v", resolved)
	}
	if len(payout.calls) != 1 || payout.calls[0].Amount != 1500 {
		t.Errorf("unexpected payout calls: %+v", payout.calls)
	}

	w, _ := s.Get(ctx, userId)
	if w.CreditWithdrawn != 1500 {
		t.Errorf("approval must not touch counters: %+v", w)
	}

	if _, err := svc.ResolveWithdrawal(ctx, res.Withdrawal.Id, false, "again"); !errors.Is(err, store.ErrAlreadyResolved) {
		t.Errorf("expected ErrAlreadyResolved, got %v", err)
	}
}

func TestWithdrawalApprovalKeepsPendingOnPayoutFailure(t *testing.T) {
	now := time.Date(2025, 3, 3, 12, 0, 0, 0, msk)
	payout := &fakeDispatcher{err: errors.New("prime unavailable")}
	svc, _, _ := setupService(t, now, payout)
	ctx := context.Background()
	userId := openWallet(t, svc, "erin", models.PlanMax, clock.AddMonths(now, -1))

	res, _ := svc.RequestWithdrawal(ctx, userId, 100, "0xabc")
	if _, err := svc.ResolveWithdrawal(ctx, res.Withdrawal.Id, true, ""); err == nil {
		t.Fatal("expected payout failure")
	}

	req, _ := svc.wallets.GetWithdrawal(ctx, res.Withdrawal.Id)
	if req.Status != models.WithdrawalPending {
		t.Errorf("request must stay pending, got %s", req.Status)
	}

	// rejection needs no payout
	rejected, err := svc.ResolveWithdrawal(ctx, res.Withdrawal.Id, false, "manual review")
	if err != nil || rejected.Status != models.WithdrawalRejected {
		t.Errorf("rejection failed: %v %+v", err, rejected)
	}
}

func TestReconcileAll(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, msk)
	svc, s, _ := setupService(t, now, nil)
	ctx := context.Background()

	a := openWallet(t, svc, "a", models.PlanMax, clock.AddMonths(now, -1))
	openWallet(t, svc, "b", models.PlanBasic, clock.AddMonths(now, -3))
	openWallet(t, svc, "c", models.PlanNone, time.Time{})
	d := openWallet(t, svc, "d", models.PlanBasic, clock.AddMonths(now, -1))
	s.SetPlan(ctx, d, models.PlanTier("legacy"), clock.AddMonths(now, -1))

	summary, err := svc.ReconcileAll(ctx)
	if err != nil {
		t.Fatalf("ReconcileAll failed: %v", err)
	}
	if summary.Accounts != 4 || summary.Reconciled != 2 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	w, _ := s.Get(ctx, a)
	if w.CreditAccrued != 1740 {
		t.Errorf("expected 1740 accrued, got %d", w.CreditAccrued)
	}

	// a second pass credits nothing new
	svc.ReconcileAll(ctx)
	w, _ = s.Get(ctx, a)
	if w.CreditAccrued != 1740 {
		t.Errorf("reconcile pass is not idempotent: %d", w.CreditAccrued)
	}
}

func TestActivatePlanSettlesPreviousAnchor(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, msk)
	svc, s, _ := setupService(t, now, nil)
	ctx := context.Background()
	userId := openWallet(t, svc, "f", models.PlanBasic, clock.AddMonths(now, -2))

	acct, err := svc.ActivatePlan(ctx, userId, models.PlanMax)
	if err != nil {
		t.Fatalf("ActivatePlan failed: %v", err)
	}
	if acct.PlanTier != models.PlanMax || !acct.PlanActivatedAt.Equal(now) {
		t.Errorf("unexpected account: %+v", acct)
	}

	w, _ := s.Get(ctx, userId)
	if w.CreditAccrued != 2*86 {
		t.Errorf("basic periods must be settled before the upgrade, got %d", w.CreditAccrued)
	}

	if _, err := svc.ActivatePlan(ctx, userId, models.PlanTier("gold")); !errors.Is(err, models.ErrUnknownPlanTier) {
		t.Errorf("expected ErrUnknownPlanTier, got %v", err)
	}
}

func TestConsumeAndHistory(t *testing.T) {
	svc, _, _ := setupService(t, time.Date(2025, 3, 10, 12, 0, 0, 0, msk), nil)
	ctx := models.WithCaller(context.Background(), &models.Caller{Source: "web"})
	userId := openWallet(t, svc, "g", models.PlanNone, time.Time{})

	if _, err := svc.CreditTokens(ctx, userId, models.FieldTokensPurchased, 2160, "purchase"); err != nil {
		t.Fatalf("CreditTokens failed: %v", err)
	}
	res, err := svc.ConsumeTokens(ctx, userId, 500, "chat")
	if err != nil || !res.Success {
		t.Fatalf("ConsumeTokens failed: %v %+v", err, res)
	}

	history, err := svc.GetOperationHistory(ctx, userId)
	if err != nil {
		t.Fatalf("GetOperationHistory failed: %v", err)
	}
	if len(history) != 2 || history[0].Kind != models.OperationCreditAdjustment || history[1].Kind != models.OperationConsumption {
		t.Errorf("unexpected history: %+v", history)
	}
	if history[1].Source != "web" {
		t.Errorf("caller not recorded: %+v", history[1])
	}

	if err := svc.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}
