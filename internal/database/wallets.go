package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWallet(row rowScanner) (*models.Wallet, error) {
	var w models.Wallet
	var anchor sql.NullTime
	err := row.Scan(&w.Id, &w.UserId, &w.TokensPlan, &w.TokensEarned, &w.TokensPurchased, &w.TokensSpent,
		&w.CreditAccrued, &w.CreditWithdrawn, &anchor, &w.CashbackPeriods, &w.Version, &w.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if anchor.Valid {
		w.CashbackAnchor = anchor.Time
	}
	return &w, nil
}

func (s *Service) Get(ctx context.Context, userId string) (*models.Wallet, error) {
	zap.L().Debug("Querying wallet", zap.String("user_id", userId))

	w, err := scanWallet(s.db.QueryRowContext(ctx, queryGetWallet, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId)
		}
		zap.L().Error("Failed to query wallet", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query wallet: %w", err)
	}
	return w, nil
}

func (s *Service) Create(ctx context.Context, userId string) (*models.Wallet, error) {
	zap.L().Info("Opening wallet", zap.String("user_id", userId))

	_, err := s.db.ExecContext(ctx, queryInsertWallet, uuid.New().String(), userId, sql.NullTime{}, utc(s.clock.Now()))
	if err != nil {
		zap.L().Error("Failed to insert wallet", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to insert wallet: %w", err)
	}
	return s.Get(ctx, userId)
}

func (s *Service) ApplyDelta(ctx context.Context, userId string, field models.Field, delta int64) (*models.Wallet, error) {
	var result models.Wallet
	err := s.Update(ctx, userId, func(tx store.WalletTx) error {
		w, err := tx.ApplyDelta(field, delta)
		result = w
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Update runs fn under the user's lock inside one database transaction.
// The wallet row is written with optimistic locking on version, and every
// staged operation and withdrawal request is inserted before commit.
func (s *Service) Update(ctx context.Context, userId string, fn func(tx store.WalletTx) error) error {
	unlock := s.locks.Lock(userId)
	defer unlock()

	// Start database transaction for atomicity
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := scanWallet(tx.QueryRowContext(ctx, queryGetWallet, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId)
		}
		return fmt.Errorf("failed to get current wallet: %w", err)
	}

	staged := store.NewStagedTx(*current, s.clock.Now())
	if err := fn(staged); err != nil {
		return err
	}
	if !staged.Changed() {
		return nil
	}

	next := staged.Result()
	result, err := tx.ExecContext(ctx, queryUpdateWallet,
		next.TokensPlan, next.TokensEarned, next.TokensPurchased, next.TokensSpent,
		next.CreditAccrued, next.CreditWithdrawn, nullTime(next.CashbackAnchor), next.CashbackPeriods,
		next.Version, utc(next.UpdatedAt), userId, current.Version)
	if err != nil {
		if isCheckViolation(err) {
			return fmt.Errorf("failed to update wallet: %w: %v", store.ErrInvariantViolation, err)
		}
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wallet update failed - %w", store.ErrConcurrentModification)
	}

	for _, op := range staged.Operations() {
		if err := insertOperation(ctx, tx, op); err != nil {
			return err
		}
	}
	for _, w := range staged.Withdrawals() {
		if err := insertWithdrawal(ctx, tx, w); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Debug("Wallet updated",
		zap.String("user_id", userId),
		zap.Int64("version", next.Version),
		zap.Int("operations", len(staged.Operations())),
		zap.Int("withdrawals", len(staged.Withdrawals())))
	return nil
}
