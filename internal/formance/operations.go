package formance

import (
	"context"
	"fmt"
	"strconv"

	"marketplace-wallet-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

// Ledger assets. Token and credit amounts are whole units.
const (
	assetTokens = "TOKEN/0"
	assetCredit = "CREDIT/0"
)

// numscriptOperation moves amount between the two accounts picked by
// postingFor. Overdraft is allowed everywhere: the wallet store has already
// enforced the balance rules and the mirror may start after the first
// operations were committed.
const numscriptOperation = `vars {
  asset $asset
  number $amount
  account $source
  account $destination
  string $operation_id
  string $user_id
  string $kind
  string $field
  string $reason
  string $balance_before
  string $balance_after
  string $caller
  string $reference
}

send [$asset $amount] (
  source = $source allowing unbounded overdraft
  destination = $destination
)

set_tx_meta("operation_id", $operation_id)
set_tx_meta("user_id", $user_id)
set_tx_meta("kind", $kind)
set_tx_meta("field", $field)
set_tx_meta("reason", $reason)
set_tx_meta("balance_before", $balance_before)
set_tx_meta("balance_after", $balance_after)
set_tx_meta("source", $caller)
set_tx_meta("reference", $reference)
`

type posting struct {
	asset       string
	source      string
	destination string
}

// postingFor maps an operation record to a ledger posting.
func postingFor(rec models.OperationRecord) (posting, error) {
	tokens := "users:" + rec.UserId + ":tokens"
	credit := "users:" + rec.UserId + ":credit"

	switch rec.Kind {
	case models.OperationConsumption:
		if rec.Field == "" {
			// unlimited accounts consume without touching their balance
			return posting{assetTokens, "platform:unlimited", "platform:consumed"}, nil
		}
		return posting{assetTokens, tokens, "platform:consumed"}, nil
	case models.OperationWithdrawal:
		return posting{assetCredit, credit, "platform:withdrawals:pending"}, nil
	case models.OperationCreditAdjustment:
		if rec.Field == models.FieldCreditAccrued {
			return posting{assetCredit, "platform:cashback", credit}, nil
		}
		if rec.Field.IsCreditSource() {
			return posting{assetTokens, "platform:issuance:" + string(rec.Field), tokens}, nil
		}
	}
	return posting{}, fmt.Errorf("no ledger posting for %s operation on %q", rec.Kind, rec.Field)
}

func scriptVars(rec models.OperationRecord, p posting) map[string]string {
	return map[string]string{
		"asset":          p.asset,
		"amount":         strconv.FormatInt(rec.Amount, 10),
		"source":         p.source,
		"destination":    p.destination,
		"operation_id":   rec.Id,
		"user_id":        rec.UserId,
		"kind":           string(rec.Kind),
		"field":          string(rec.Field),
		"reason":         rec.Reason,
		"balance_before": strconv.FormatInt(rec.BalanceBefore, 10),
		"balance_after":  strconv.FormatInt(rec.BalanceAfter, 10),
		"caller":         rec.Source,
		"reference":      rec.Reference,
	}
}

// Publish posts a committed operation. The operation id is the transaction
// reference, so republishing the same record is a no-op.
func (m *Mirror) Publish(ctx context.Context, rec models.OperationRecord) {
	if err := m.post(ctx, rec); err != nil {
		zap.L().Error("Failed to mirror operation",
			zap.String("operation_id", rec.Id),
			zap.String("user_id", rec.UserId),
			zap.String("kind", string(rec.Kind)),
			zap.Error(err))
	}
}

func (m *Mirror) post(ctx context.Context, rec models.OperationRecord) error {
	p, err := postingFor(rec)
	if err != nil {
		return err
	}

	postTx := shared.V2PostTransaction{
		Reference: strPtr(rec.Id),
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptOperation,
			Vars:  scriptVars(rec, p),
		},
	}
	if !rec.CreatedAt.IsZero() {
		ts := rec.CreatedAt
		postTx.Timestamp = &ts
	}

	_, err = m.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            m.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			return nil // idempotent
		}
		return fmt.Errorf("error recording %s operation: %w", rec.Kind, err)
	}

	zap.L().Debug("Operation mirrored to Formance",
		zap.String("operation_id", rec.Id),
		zap.String("kind", string(rec.Kind)),
		zap.Int64("amount", rec.Amount))
	return nil
}

// History returns up to limit mirrored operations for a user, newest first.
func (m *Mirror) History(ctx context.Context, userId string, limit int) ([]models.OperationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	resp, err := m.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
		Ledger:   m.ledger,
		PageSize: ptrInt64(int64(limit)),
		RequestBody: map[string]any{
			"$match": map[string]any{"metadata[user_id]": userId},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	txs := resp.V2TransactionsCursorResponse.Cursor.Data
	records := make([]models.OperationRecord, 0, len(txs))
	for i := range txs {
		if txs[i].Reverted {
			continue
		}
		records = append(records, recordFromTransaction(&txs[i]))
	}
	return records, nil
}

// recordFromTransaction rebuilds an operation record from transaction metadata.
func recordFromTransaction(tx *shared.V2Transaction) models.OperationRecord {
	meta := tx.Metadata
	rec := models.OperationRecord{
		Id:            meta["operation_id"],
		UserId:        meta["user_id"],
		Kind:          models.OperationKind(meta["kind"]),
		Field:         models.Field(meta["field"]),
		Reason:        meta["reason"],
		BalanceBefore: parseInt(meta["balance_before"]),
		BalanceAfter:  parseInt(meta["balance_after"]),
		Source:        meta["source"],
		Reference:     meta["reference"],
		CreatedAt:     tx.Timestamp,
	}
	if rec.Id == "" && tx.Reference != nil {
		rec.Id = *tx.Reference
	}
	if len(tx.Postings) > 0 && tx.Postings[0].Amount != nil {
		rec.Amount = tx.Postings[0].Amount.Int64()
	}
	return rec
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
