package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"go.uber.org/zap"
)

// GetWallet reconciles cashback and returns the wallet snapshot. A failed
// reconciliation does not block the read: the stored wallet is returned with
// Reconciled=false.
func (s *WalletService) GetWallet(ctx context.Context, userId string) (*models.WalletSnapshot, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	reconciled := true
	w, err := s.cashback.Reconcile(ctx, userId)
	if err != nil {
		if errors.Is(err, store.ErrWalletNotFound) {
			return nil, err
		}
		zap.L().Warn("Cashback reconciliation failed, returning stored wallet",
			zap.String("user_id", userId),
			zap.Error(err))
		reconciled = false

		w, err = s.wallets.Get(ctx, userId)
		if err != nil {
			return nil, err
		}
	}

	tier := models.PlanNone
	unlimited := false
	if acct, err := s.directory.GetAccount(ctx, userId); err == nil {
		tier = acct.PlanTier
		unlimited = models.ResolveCapability(acct, s.catalog).Unlimited
	}

	return models.NewWalletSnapshot(*w, tier, unlimited, reconciled, s.clock.Now()), nil
}

// ConsumeTokens spends tokens for a paid action (chat, listing boost, ...).
func (s *WalletService) ConsumeTokens(ctx context.Context, userId string, amount int64, reason string) (*models.Result, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.consumption.Consume(ctx, userId, amount, reason)
}

// CreditTokens tops up one of the token sources.
func (s *WalletService) CreditTokens(ctx context.Context, userId string, source models.Field, amount int64, reason string) (*models.Result, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.consumption.Credit(ctx, userId, source, amount, reason)
}

// GetOperationHistory returns the user's ledger ordered by time.
func (s *WalletService) GetOperationHistory(ctx context.Context, userId string) ([]models.OperationRecord, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	ops, err := s.wallets.Operations(ctx, userId)
	if err != nil {
		if !errors.Is(err, store.ErrWalletNotFound) {
			zap.L().Error("Failed to get operation history", zap.String("user_id", userId), zap.Error(err))
		}
		return nil, err
	}
	return ops, nil
}

// OpenWallet registers an account and opens its wallet.
func (s *WalletService) OpenWallet(ctx context.Context, params store.CreateAccountParams) (*models.Account, *models.Wallet, error) {
	if params.Name == "" || params.Email == "" {
		return nil, nil, fmt.Errorf("name and email are required")
	}
	if params.PlanTier.IsPaid() {
		if _, err := s.catalog.Price(params.PlanTier); err != nil {
			return nil, nil, err
		}
		if params.PlanActivatedAt.IsZero() {
			params.PlanActivatedAt = s.clock.Now()
		}
	}

	acct, err := s.directory.CreateAccount(ctx, params)
	if err != nil {
		return nil, nil, err
	}
	w, err := s.wallets.Create(ctx, acct.Id)
	if err != nil {
		return nil, nil, err
	}

	zap.L().Info("Wallet opened",
		zap.String("user_id", acct.Id),
		zap.String("plan_tier", string(acct.PlanTier)),
		zap.Bool("genuine", acct.Genuine))
	return acct, w, nil
}

// ActivatePlan assigns a paid tier starting now. Cashback for the previous
// anchor must be reconciled before the anchor moves.
func (s *WalletService) ActivatePlan(ctx context.Context, userId string, tier models.PlanTier) (*models.Account, error) {
	if tier.IsPaid() {
		if _, err := s.catalog.Price(tier); err != nil {
			return nil, err
		}
	}
	if _, err := s.cashback.Reconcile(ctx, userId); err != nil && !errors.Is(err, models.ErrUnknownPlanTier) {
		return nil, err
	}

	var activatedAt time.Time
	if tier.IsPaid() {
		activatedAt = s.clock.Now()
	}
	return s.directory.SetPlan(ctx, userId, tier, activatedAt)
}
