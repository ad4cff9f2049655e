package wallet

import (
	"errors"

	"marketplace-wallet-go/internal/store"

	"go.uber.org/zap"
)

func logMutationFailure(msg, userId string, amount int64, err error) {
	fields := []zap.Field{
		zap.String("user_id", userId),
		zap.Int64("amount", amount),
		zap.Error(err),
	}
	if errors.Is(err, store.ErrWalletNotFound) || errors.Is(err, store.ErrAccountNotFound) {
		zap.L().Warn(msg, fields...)
		return
	}

	var violation *store.InvariantViolationError
	if errors.As(err, &violation) {
		fields = append(fields, zap.String("field", string(violation.Field)), zap.String("reason", violation.Reason))
	}
	zap.L().Error(msg, fields...)
}
