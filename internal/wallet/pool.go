package wallet

import (
	"context"
	"errors"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PoolAggregator computes the system-wide monthly withdrawal pool.
// It only reads; wallets may change underneath it.
type PoolAggregator struct {
	wallets   store.WalletStore
	directory store.AccountDirectory
	catalog   models.PlanCatalog
	rate      decimal.Decimal
	clock     clock.Clock
}

func NewPoolAggregator(wallets store.WalletStore, directory store.AccountDirectory, catalog models.PlanCatalog, rate decimal.Decimal, clk clock.Clock) *PoolAggregator {
	return &PoolAggregator{
		wallets:   wallets,
		directory: directory,
		catalog:   catalog,
		rate:      rate,
		clock:     clk,
	}
}

// PoolEligible reports whether an account contributes to the pool. Synthetic
// accounts are excluded by the explicit Genuine flag.
func PoolEligible(a models.Account) bool {
	return a.PlanTier.IsPaid() && a.Genuine && a.Active
}

func (p *PoolAggregator) ComputeMonthlyPool(ctx context.Context) (*models.PoolSnapshot, error) {
	accounts, err := p.directory.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	now := p.clock.Now()
	snapshot := &models.PoolSnapshot{
		Month:      now.Format("2006-01"),
		PerTier:    make(map[models.PlanTier]models.TierBreakdown),
		ComputedAt: now,
	}

	for _, a := range accounts {
		if !PoolEligible(a) {
			continue
		}
		price, err := p.catalog.Price(a.PlanTier)
		if err != nil {
			if errors.Is(err, models.ErrUnknownPlanTier) {
				zap.L().Warn("Skipping account with unknown plan tier",
					zap.String("user_id", a.Id),
					zap.String("plan_tier", string(a.PlanTier)))
				continue
			}
			return nil, err
		}

		contribution := MonthlyCashback(price, p.rate)
		breakdown := snapshot.PerTier[a.PlanTier]
		breakdown.Count++
		breakdown.Sum += contribution
		snapshot.PerTier[a.PlanTier] = breakdown

		snapshot.TotalPool += contribution
		snapshot.EligibleUserCount++
	}

	monthStart := clock.MonthStart(now)
	withdrawn, err := p.wallets.MonthlyWithdrawn(ctx, monthStart, clock.AddMonths(monthStart, 1))
	if err != nil {
		return nil, err
	}
	snapshot.Withdrawn = withdrawn
	snapshot.Remaining = snapshot.TotalPool - withdrawn
	if snapshot.Remaining < 0 {
		snapshot.Remaining = 0
	}

	zap.L().Debug("Monthly pool computed",
		zap.String("month", snapshot.Month),
		zap.Int64("total_pool", snapshot.TotalPool),
		zap.Int64("withdrawn", withdrawn),
		zap.Int("eligible_users", snapshot.EligibleUserCount))
	return snapshot, nil
}
