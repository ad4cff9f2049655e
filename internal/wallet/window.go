package wallet

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultWindowDay is the calendar day withdrawals are accepted on.
const DefaultWindowDay = 3

// Window is the once-a-month withdrawal window. Membership is a pure function
// of the instant and the fixed location.
type Window struct {
	Day      int
	Location *time.Location
}

func (w Window) loc() *time.Location {
	if w.Location == nil {
		return time.UTC
	}
	return w.Location
}

// Open reports whether t falls on the window day.
func (w Window) Open(t time.Time) bool {
	return t.In(w.loc()).Day() == w.Day
}

// NextOpen returns the start of the next window day strictly after t.
func (w Window) NextOpen(t time.Time) time.Time {
	local := t.In(w.loc())
	candidate := time.Date(local.Year(), local.Month(), w.Day, 0, 0, 0, 0, w.loc())
	if !candidate.After(local) {
		candidate = time.Date(local.Year(), local.Month()+1, w.Day, 0, 0, 0, 0, w.loc())
	}
	return candidate
}

// WindowController admits withdrawal requests. The pool check and the commit
// run under one process-wide mutex so concurrent requests cannot oversubscribe
// the month's pool.
type WindowController struct {
	notifier

	wallets   store.WalletStore
	directory store.AccountDirectory
	pool      *PoolAggregator
	window    Window
	clock     clock.Clock

	mu sync.Mutex
}

func NewWindowController(wallets store.WalletStore, directory store.AccountDirectory, pool *PoolAggregator, window Window, clk clock.Clock) *WindowController {
	return &WindowController{
		wallets:   wallets,
		directory: directory,
		pool:      pool,
		window:    window,
		clock:     clk,
	}
}

func (c *WindowController) Window() Window {
	return c.window
}

// RequestWithdrawal validates, in order: window, amount, destination, credit,
// pool. Administrative accounts get no bypass here.
func (c *WindowController) RequestWithdrawal(ctx context.Context, userId string, amount int64, destination string) (*models.Result, error) {
	acct, err := c.directory.GetAccount(ctx, userId)
	if err != nil {
		return nil, err
	}
	current, err := c.wallets.Get(ctx, userId)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	if !c.window.Open(now) {
		return c.reject(models.CodeWindowClosed, userId, amount, current.Withdrawable(),
			fmt.Sprintf("withdrawal window is closed, next opens %s", c.window.NextOpen(now).Format("2006-01-02"))), nil
	}
	if amount <= 0 {
		return c.reject(models.CodeInvalidAmount, userId, amount, current.Withdrawable(),
			fmt.Sprintf("amount must be positive, got %d", amount)), nil
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return c.reject(models.CodeInvalidDestination, userId, amount, current.Withdrawable(),
			"payout destination is required"), nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pool, err := c.pool.ComputeMonthlyPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to compute monthly pool: %w", err)
	}

	var rejected *models.Result
	var committed *models.OperationRecord
	req := &models.WithdrawalRequest{
		Id:                uuid.New().String(),
		Amount:            amount,
		PayoutDestination: destination,
		Status:            models.WithdrawalPending,
		RequestedAt:       now,
	}

	err = c.wallets.Update(ctx, userId, func(tx store.WalletTx) error {
		before := tx.Wallet().Withdrawable()
		if before < amount {
			rejected = models.Rejected(models.CodeInsufficientCredit, userId, amount, before,
				fmt.Sprintf("insufficient credit: have %d, need %d", before, amount))
			return nil
		}
		if pool.Withdrawn+amount > pool.TotalPool {
			rejected = models.Rejected(models.CodePoolExhausted, userId, amount, before,
				fmt.Sprintf("monthly pool exhausted: %d of %d remaining", pool.Remaining, pool.TotalPool))
			return nil
		}

		next, err := tx.ApplyDelta(models.FieldCreditWithdrawn, amount)
		if err != nil {
			return err
		}
		rec := &models.OperationRecord{
			Kind:          models.OperationWithdrawal,
			Field:         models.FieldCreditWithdrawn,
			Amount:        amount,
			Reason:        "withdrawal to " + destination,
			BalanceBefore: before,
			BalanceAfter:  next.Withdrawable(),
			Source:        models.CallerSource(ctx),
			Reference:     req.Id,
		}
		if err := tx.AppendOperation(rec); err != nil {
			return err
		}
		committed = rec
		return tx.SaveWithdrawal(req)
	})
	if err != nil {
		logMutationFailure("Withdrawal failed", userId, amount, err)
		return nil, err
	}

	if rejected != nil {
		zap.L().Info("Withdrawal rejected",
			zap.String("user_id", userId),
			zap.Int64("amount", amount),
			zap.String("code", string(rejected.Code)))
		return rejected, nil
	}

	zap.L().Info("Withdrawal requested",
		zap.String("user_id", userId),
		zap.String("withdrawal_id", req.Id),
		zap.Int64("amount", amount),
		zap.Int64("withdrawable_after", committed.BalanceAfter),
		zap.Int64("pool_remaining", pool.Remaining-amount))
	c.publish(ctx, *committed)

	w, err := c.wallets.Get(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &models.Result{
		Success:    true,
		Code:       models.CodeOK,
		UserId:     userId,
		Requested:  amount,
		Available:  w.Withdrawable(),
		Wallet:     models.NewWalletSnapshot(*w, acct.PlanTier, false, false, now),
		Withdrawal: req,
		Operation:  committed,
	}, nil
}

func (c *WindowController) reject(code models.ResultCode, userId string, amount, available int64, msg string) *models.Result {
	zap.L().Info("Withdrawal rejected",
		zap.String("user_id", userId),
		zap.Int64("amount", amount),
		zap.String("code", string(code)))
	return models.Rejected(code, userId, amount, available, msg)
}
