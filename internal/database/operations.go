package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

func insertOperation(ctx context.Context, tx *sql.Tx, op models.OperationRecord) error {
	_, err := tx.ExecContext(ctx, queryInsertOperation,
		op.Id, op.UserId, string(op.Kind), string(op.Field), op.Amount, op.Reason,
		op.BalanceBefore, op.BalanceAfter, op.Source, op.Reference, utc(op.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: operation %s", store.ErrDuplicateOperation, op.Id)
		}
		return fmt.Errorf("failed to insert operation: %w", err)
	}

	if err := addJournalEntries(ctx, tx, op); err != nil {
		return fmt.Errorf("failed to add journal entries: %w", err)
	}
	return nil
}

type journalEntry struct {
	accountType  string
	accountId    string
	debitAmount  int64
	creditAmount int64
}

// addJournalEntries creates double-entry bookkeeping entries for an operation.
// Bypassed consumptions move nothing and produce no entries.
func addJournalEntries(ctx context.Context, tx *sql.Tx, op models.OperationRecord) error {
	var entries []journalEntry

	switch {
	case op.Kind == models.OperationConsumption && op.Field != "":
		// User token holdings decrease, platform earns the spend
		entries = []journalEntry{
			{"user_tokens", op.UserId, 0, op.Amount},
			{"platform_revenue", "token_consumption", op.Amount, 0},
		}
	case op.Kind == models.OperationWithdrawal:
		// User credit decreases, payout liability opens
		entries = []journalEntry{
			{"user_credit", op.UserId, op.Amount, 0},
			{"payout_liability", "withdrawals", 0, op.Amount},
		}
	case op.Kind == models.OperationCreditAdjustment && op.Field == models.FieldCreditAccrued:
		entries = []journalEntry{
			{"cashback_expense", "plan_cashback", op.Amount, 0},
			{"user_credit", op.UserId, 0, op.Amount},
		}
	case op.Kind == models.OperationCreditAdjustment:
		entries = []journalEntry{
			{"token_issuance", string(op.Field), op.Amount, 0},
			{"user_tokens", op.UserId, 0, op.Amount},
		}
	}

	for _, e := range entries {
		_, err := tx.ExecContext(ctx, queryInsertJournalEntry,
			uuid.New().String(), op.Id, e.accountType, e.accountId, e.debitAmount, e.creditAmount, utc(op.CreatedAt))
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Operations(ctx context.Context, userId string) ([]models.OperationRecord, error) {
	if _, err := s.Get(ctx, userId); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, queryGetOperations, userId)
	if err != nil {
		zap.L().Error("Failed to query operations", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query operations: %w", err)
	}
	defer closeRows(rows)

	var ops []models.OperationRecord
	for rows.Next() {
		var op models.OperationRecord
		var kind, field string
		err := rows.Scan(&op.Id, &op.UserId, &kind, &field, &op.Amount, &op.Reason,
			&op.BalanceBefore, &op.BalanceAfter, &op.Source, &op.Reference, &op.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("unable to scan operation row: %w", err)
		}
		op.Kind = models.OperationKind(kind)
		op.Field = models.Field(field)
		ops = append(ops, op)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating operation rows: %w", err)
	}
	return ops, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

func isCheckViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintCheck
}
