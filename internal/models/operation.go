package models

import "time"

// OperationKind classifies a ledger entry
type OperationKind string

const (
	OperationConsumption      OperationKind = "consumption"
	OperationWithdrawal       OperationKind = "withdrawal"
	OperationCreditAdjustment OperationKind = "credit-adjustment"
)

// OperationRecord is an immutable ledger entry (cold data).
// BalanceBefore/BalanceAfter hold the token balance for token operations and
// the withdrawable credit for withdrawals and cashback credits.
type OperationRecord struct {
	Id            string        `db:"id" json:"id"`
	UserId        string        `db:"user_id" json:"user_id"`
	Kind          OperationKind `db:"kind" json:"kind"`
	Field         Field         `db:"field" json:"field,omitempty"`
	Amount        int64         `db:"amount" json:"amount"`
	Reason        string        `db:"reason" json:"reason"`
	BalanceBefore int64         `db:"balance_before" json:"balance_before"`
	BalanceAfter  int64         `db:"balance_after" json:"balance_after"`
	Source        string        `db:"source" json:"source,omitempty"`
	Reference     string        `db:"reference" json:"reference,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}
