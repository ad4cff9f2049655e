package wallet

import (
	"context"
	"fmt"
	"time"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultCashbackRate is the share of the plan price credited back per period.
var DefaultCashbackRate = decimal.RequireFromString("0.087")

// MonthlyCashback is floor(price * rate) in token units.
func MonthlyCashback(price int64, rate decimal.Decimal) int64 {
	if price <= 0 || rate.IsNegative() {
		return 0
	}
	return decimal.NewFromInt(price).Mul(rate).Floor().IntPart()
}

// CompletedPeriods counts the monthly periods that have fully elapsed between
// anchor and now: the largest n with anchor + n months <= now.
func CompletedPeriods(anchor, now time.Time) int {
	if anchor.IsZero() || now.Before(anchor) {
		return 0
	}
	anchor = anchor.In(now.Location())
	n := (now.Year()-anchor.Year())*12 + int(now.Month()) - int(anchor.Month())
	for n > 0 && clock.AddMonths(anchor, n).After(now) {
		n--
	}
	return n
}

// CashbackEngine converts the active paid plan into accrued withdrawable credit.
type CashbackEngine struct {
	notifier

	wallets   store.WalletStore
	directory store.AccountDirectory
	catalog   models.PlanCatalog
	rate      decimal.Decimal
	clock     clock.Clock
}

func NewCashbackEngine(wallets store.WalletStore, directory store.AccountDirectory, catalog models.PlanCatalog, rate decimal.Decimal, clk clock.Clock) *CashbackEngine {
	return &CashbackEngine{
		wallets:   wallets,
		directory: directory,
		catalog:   catalog,
		rate:      rate,
		clock:     clk,
	}
}

// Reconcile credits every completed period since plan activation that has not
// been credited yet. The wallet tracks the anchor and the number of credited
// periods, so repeated calls inside one period add nothing. A new activation
// instant restarts the count.
func (e *CashbackEngine) Reconcile(ctx context.Context, userId string) (*models.Wallet, error) {
	acct, err := e.directory.GetAccount(ctx, userId)
	if err != nil {
		return nil, err
	}

	if !acct.PlanTier.IsPaid() || acct.PlanActivatedAt.IsZero() {
		return e.wallets.Get(ctx, userId)
	}

	price, err := e.catalog.Price(acct.PlanTier)
	if err != nil {
		return nil, fmt.Errorf("unable to price plan for user %s: %w", userId, err)
	}
	perPeriod := MonthlyCashback(price, e.rate)

	now := e.clock.Now()
	anchor := acct.PlanActivatedAt.In(now.Location())
	due := CompletedPeriods(anchor, now)

	var committed *models.OperationRecord
	err = e.wallets.Update(ctx, userId, func(tx store.WalletTx) error {
		w := tx.Wallet()
		done := w.CashbackPeriods
		if !w.CashbackAnchor.Equal(anchor) {
			done = 0
		}

		if due <= done {
			if !w.CashbackAnchor.Equal(anchor) {
				tx.MarkReconciled(anchor, due)
			}
			return nil
		}

		amount := int64(due-done) * perPeriod
		if amount > 0 {
			before := w.Withdrawable()
			next, err := tx.ApplyDelta(models.FieldCreditAccrued, amount)
			if err != nil {
				return err
			}
			rec := &models.OperationRecord{
				Kind:          models.OperationCreditAdjustment,
				Field:         models.FieldCreditAccrued,
				Amount:        amount,
				Reason:        fmt.Sprintf("plan cashback: %s x%d", acct.PlanTier, due-done),
				BalanceBefore: before,
				BalanceAfter:  next.Withdrawable(),
				Source:        models.CallerSource(ctx),
			}
			if err := tx.AppendOperation(rec); err != nil {
				return err
			}
			committed = rec
		}
		tx.MarkReconciled(anchor, due)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if committed != nil {
		zap.L().Info("Cashback credited",
			zap.String("user_id", userId),
			zap.String("plan_tier", string(acct.PlanTier)),
			zap.Int64("amount", committed.Amount),
			zap.Int("periods", due))
		e.publish(ctx, *committed)
	}
	return e.wallets.Get(ctx, userId)
}
