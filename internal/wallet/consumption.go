package wallet

import (
	"context"
	"fmt"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"go.uber.org/zap"
)

// ConsumptionValidator debits token balances and issues top-ups.
type ConsumptionValidator struct {
	notifier

	wallets   store.WalletStore
	directory store.AccountDirectory
	catalog   models.PlanCatalog
	clock     clock.Clock
}

func NewConsumptionValidator(wallets store.WalletStore, directory store.AccountDirectory, catalog models.PlanCatalog, clk clock.Clock) *ConsumptionValidator {
	return &ConsumptionValidator{
		wallets:   wallets,
		directory: directory,
		catalog:   catalog,
		clock:     clk,
	}
}

// Consume spends amount tokens. Accounts with the unlimited capability always
// succeed without touching TokensSpent, but the attempt is still recorded.
func (v *ConsumptionValidator) Consume(ctx context.Context, userId string, amount int64, reason string) (*models.Result, error) {
	if amount <= 0 {
		return models.Rejected(models.CodeInvalidAmount, userId, amount, 0,
			fmt.Sprintf("amount must be positive, got %d", amount)), nil
	}

	acct, err := v.directory.GetAccount(ctx, userId)
	if err != nil {
		return nil, err
	}
	capability := models.ResolveCapability(acct, v.catalog)

	var rejected *models.Result
	var committed *models.OperationRecord
	err = v.wallets.Update(ctx, userId, func(tx store.WalletTx) error {
		before := tx.Wallet().Balance()

		if capability.Unlimited {
			rec := &models.OperationRecord{
				Kind:          models.OperationConsumption,
				Amount:        amount,
				Reason:        reason,
				BalanceBefore: before,
				BalanceAfter:  before,
				Source:        models.CallerSource(ctx),
				Reference:     capability.Reason,
			}
			committed = rec
			return tx.AppendOperation(rec)
		}

		if before < amount {
			rejected = models.Rejected(models.CodeInsufficientBalance, userId, amount, before,
				fmt.Sprintf("insufficient balance: have %d, need %d", before, amount))
			return nil
		}

		next, err := tx.ApplyDelta(models.FieldTokensSpent, amount)
		if err != nil {
			return err
		}
		rec := &models.OperationRecord{
			Kind:          models.OperationConsumption,
			Field:         models.FieldTokensSpent,
			Amount:        amount,
			Reason:        reason,
			BalanceBefore: before,
			BalanceAfter:  next.Balance(),
			Source:        models.CallerSource(ctx),
		}
		committed = rec
		return tx.AppendOperation(rec)
	})
	if err != nil {
		logMutationFailure("Consumption failed", userId, amount, err)
		return nil, err
	}

	if rejected != nil {
		zap.L().Info("Consumption rejected",
			zap.String("user_id", userId),
			zap.Int64("amount", amount),
			zap.Int64("balance", rejected.Available),
			zap.String("code", string(rejected.Code)))
		return rejected, nil
	}

	zap.L().Info("Tokens consumed",
		zap.String("user_id", userId),
		zap.Int64("amount", amount),
		zap.Bool("unlimited", capability.Unlimited),
		zap.Int64("balance_after", committed.BalanceAfter))
	v.publish(ctx, *committed)

	return v.success(ctx, acct, capability, amount, committed)
}

// Credit tops up one of the three token sources (subscription allotment,
// earned reward, purchase).
func (v *ConsumptionValidator) Credit(ctx context.Context, userId string, source models.Field, amount int64, reason string) (*models.Result, error) {
	if !source.IsCreditSource() {
		return nil, fmt.Errorf("%w: %q is not a token source", store.ErrUnknownField, source)
	}
	if amount <= 0 {
		return models.Rejected(models.CodeInvalidAmount, userId, amount, 0,
			fmt.Sprintf("amount must be positive, got %d", amount)), nil
	}

	acct, err := v.directory.GetAccount(ctx, userId)
	if err != nil {
		return nil, err
	}

	var committed *models.OperationRecord
	err = v.wallets.Update(ctx, userId, func(tx store.WalletTx) error {
		before := tx.Wallet().Balance()
		next, err := tx.ApplyDelta(source, amount)
		if err != nil {
			return err
		}
		rec := &models.OperationRecord{
			Kind:          models.OperationCreditAdjustment,
			Field:         source,
			Amount:        amount,
			Reason:        reason,
			BalanceBefore: before,
			BalanceAfter:  next.Balance(),
			Source:        models.CallerSource(ctx),
		}
		committed = rec
		return tx.AppendOperation(rec)
	})
	if err != nil {
		logMutationFailure("Credit failed", userId, amount, err)
		return nil, err
	}

	zap.L().Info("Tokens credited",
		zap.String("user_id", userId),
		zap.String("source", string(source)),
		zap.Int64("amount", amount),
		zap.Int64("balance_after", committed.BalanceAfter))
	v.publish(ctx, *committed)

	return v.success(ctx, acct, models.ResolveCapability(acct, v.catalog), amount, committed)
}

func (v *ConsumptionValidator) success(ctx context.Context, acct *models.Account, capability models.Capability, amount int64, rec *models.OperationRecord) (*models.Result, error) {
	w, err := v.wallets.Get(ctx, acct.Id)
	if err != nil {
		return nil, err
	}
	return &models.Result{
		Success:   true,
		Code:      models.CodeOK,
		UserId:    acct.Id,
		Requested: amount,
		Available: w.Balance(),
		Wallet:    models.NewWalletSnapshot(*w, acct.PlanTier, capability.Unlimited, false, v.clock.Now()),
		Operation: rec,
	}, nil
}
