package api

import (
	"context"

	"marketplace-wallet-go/internal/models"

	"go.uber.org/zap"
)

// ReconcileSummary reports one pass of ReconcileAll
type ReconcileSummary struct {
	Accounts   int
	Reconciled int
	Failed     int
}

func (s *WalletService) GetMonthlyPoolSnapshot(ctx context.Context) (*models.PoolSnapshot, error) {
	snapshot, err := s.pool.ComputeMonthlyPool(ctx)
	if err != nil {
		zap.L().Error("Failed to compute monthly pool", zap.Error(err))
		return nil, err
	}
	return snapshot, nil
}

// ReconcileAll credits outstanding cashback for every active account.
// Per-account failures are logged and counted, not returned.
func (s *WalletService) ReconcileAll(ctx context.Context) (*ReconcileSummary, error) {
	accounts, err := s.directory.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	summary := &ReconcileSummary{Accounts: len(accounts)}
	for _, a := range accounts {
		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
		if !a.PlanTier.IsPaid() {
			continue
		}
		if _, err := s.cashback.Reconcile(ctx, a.Id); err != nil {
			summary.Failed++
			zap.L().Warn("Reconciliation failed",
				zap.String("user_id", a.Id),
				zap.String("plan_tier", string(a.PlanTier)),
				zap.Error(err))
			continue
		}
		summary.Reconciled++
	}

	zap.L().Info("Reconciliation pass complete",
		zap.Int("accounts", summary.Accounts),
		zap.Int("reconciled", summary.Reconciled),
		zap.Int("failed", summary.Failed))
	return summary, nil
}
