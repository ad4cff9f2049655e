package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"go.uber.org/zap"
)

func insertWithdrawal(ctx context.Context, tx *sql.Tx, w models.WithdrawalRequest) error {
	var resolvedAt sql.NullTime
	if w.ResolvedAt != nil {
		resolvedAt = nullTime(*w.ResolvedAt)
	}
	_, err := tx.ExecContext(ctx, queryInsertWithdrawal,
		w.Id, w.UserId, w.Amount, w.PayoutDestination, string(w.Status),
		utc(w.RequestedAt), resolvedAt, w.ResolutionNote, w.PayoutRef)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: withdrawal %s", store.ErrDuplicateOperation, w.Id)
		}
		return fmt.Errorf("failed to insert withdrawal request: %w", err)
	}
	return nil
}

func scanWithdrawal(row rowScanner) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	var status string
	var resolvedAt sql.NullTime
	err := row.Scan(&w.Id, &w.UserId, &w.Amount, &w.PayoutDestination, &status,
		&w.RequestedAt, &resolvedAt, &w.ResolutionNote, &w.PayoutRef)
	if err != nil {
		return nil, err
	}
	w.Status = models.WithdrawalStatus(status)
	if resolvedAt.Valid {
		t := resolvedAt.Time
		w.ResolvedAt = &t
	}
	return &w, nil
}

func (s *Service) MonthlyWithdrawn(ctx context.Context, from, to time.Time) (int64, error) {
	var total int64
	if err := s.db.QueryRowContext(ctx, querySumWithdrawnInRange, utc(from), utc(to)).Scan(&total); err != nil {
		zap.L().Error("Failed to sum withdrawals", zap.Time("from", from), zap.Time("to", to), zap.Error(err))
		return 0, fmt.Errorf("unable to sum withdrawals: %w", err)
	}
	return total, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error) {
	w, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawal, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrWithdrawalNotFound, id)
		}
		return nil, fmt.Errorf("unable to query withdrawal request: %w", err)
	}
	return w, nil
}

func (s *Service) ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	rows, err := s.db.QueryContext(ctx, queryListWithdrawals, string(status), string(status))
	if err != nil {
		zap.L().Error("Failed to query withdrawal requests", zap.String("status", string(status)), zap.Error(err))
		return nil, fmt.Errorf("unable to query withdrawal requests: %w", err)
	}
	defer closeRows(rows)

	var result []models.WithdrawalRequest
	for rows.Next() {
		w, err := scanWithdrawal(rows)
		if err != nil {
			return nil, fmt.Errorf("unable to scan withdrawal row: %w", err)
		}
		result = append(result, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating withdrawal rows: %w", err)
	}
	return result, nil
}

// ResolveWithdrawal records an administrative decision. Counters are not touched:
// the credit was already debited when the request was admitted.
func (s *Service) ResolveWithdrawal(ctx context.Context, params store.ResolveWithdrawalParams) (*models.WithdrawalRequest, error) {
	result, err := s.db.ExecContext(ctx, queryResolveWithdrawal,
		string(params.Status), utc(params.ResolvedAt), params.Note, params.PayoutRef, params.Id)
	if err != nil {
		return nil, fmt.Errorf("unable to resolve withdrawal request: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		existing, err := s.GetWithdrawal(ctx, params.Id)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s is %s", store.ErrAlreadyResolved, existing.Id, existing.Status)
	}

	zap.L().Info("Withdrawal request resolved",
		zap.String("withdrawal_id", params.Id),
		zap.String("status", string(params.Status)))
	return s.GetWithdrawal(ctx, params.Id)
}
