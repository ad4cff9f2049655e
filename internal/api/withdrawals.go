package api

import (
	"context"
	"errors"
	"fmt"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"go.uber.org/zap"
)

// RequestWithdrawal admits a withdrawal during the monthly window. On a window
// day cashback is reconciled first so the credit check sees every completed
// period; outside it the request is rejected without touching the wallet.
func (s *WalletService) RequestWithdrawal(ctx context.Context, userId string, amount int64, destination string) (*models.Result, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	if s.window.Window().Open(s.clock.Now()) {
		if _, err := s.cashback.Reconcile(ctx, userId); err != nil {
			if errors.Is(err, store.ErrWalletNotFound) || errors.Is(err, store.ErrAccountNotFound) {
				return nil, err
			}
			zap.L().Warn("Cashback reconciliation failed before withdrawal",
				zap.String("user_id", userId),
				zap.Error(err))
		}
	}

	result, err := s.window.RequestWithdrawal(ctx, userId, amount, destination)
	if err != nil {
		return nil, err
	}
	if result.Wallet != nil {
		if acct, err := s.directory.GetAccount(ctx, userId); err == nil {
			result.Wallet.Unlimited = models.ResolveCapability(acct, s.catalog).Unlimited
		}
	}
	return result, nil
}

// ResolveWithdrawal approves or rejects a pending request. Approval dispatches
// the payout first when a dispatcher is configured; a failed dispatch leaves
// the request pending. Counters are never touched here.
func (s *WalletService) ResolveWithdrawal(ctx context.Context, id string, approve bool, note string) (*models.WithdrawalRequest, error) {
	if id == "" {
		return nil, fmt.Errorf("withdrawal id is required")
	}

	req, err := s.wallets.GetWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != models.WithdrawalPending {
		return nil, fmt.Errorf("%w: %s is %s", store.ErrAlreadyResolved, req.Id, req.Status)
	}

	params := store.ResolveWithdrawalParams{
		Id:         id,
		Status:     models.WithdrawalRejected,
		Note:       note,
		ResolvedAt: s.clock.Now(),
	}

	if approve {
		params.Status = models.WithdrawalApproved
		if s.payout != nil {
			ref, err := s.payout.Dispatch(ctx, *req)
			if err != nil {
				zap.L().Error("Payout dispatch failed",
					zap.String("withdrawal_id", id),
					zap.String("user_id", req.UserId),
					zap.Error(err))
				return nil, fmt.Errorf("payout dispatch failed: %w", err)
			}
			params.PayoutRef = ref
		}
	}

	resolved, err := s.wallets.ResolveWithdrawal(ctx, params)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal resolved",
		zap.String("withdrawal_id", id),
		zap.String("user_id", resolved.UserId),
		zap.String("status", string(resolved.Status)),
		zap.String("payout_ref", resolved.PayoutRef))
	return resolved, nil
}

// ListWithdrawals returns requests in the given status, or all when status is empty.
func (s *WalletService) ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	return s.wallets.ListWithdrawals(ctx, status)
}
