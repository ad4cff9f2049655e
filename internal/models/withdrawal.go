package models

import "time"

// WithdrawalStatus is the administrative state of a withdrawal request
type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalApproved WithdrawalStatus = "approved"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

// WithdrawalRequest is a cash-equivalent withdrawal admitted during the window
type WithdrawalRequest struct {
	Id                string           `db:"id" json:"id"`
	UserId            string           `db:"user_id" json:"user_id"`
	Amount            int64            `db:"amount" json:"amount"`
	PayoutDestination string           `db:"payout_destination" json:"payout_destination"`
	Status            WithdrawalStatus `db:"status" json:"status"`
	RequestedAt       time.Time        `db:"requested_at" json:"requested_at"`
	ResolvedAt        *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolutionNote    string           `db:"resolution_note" json:"resolution_note,omitempty"`
	PayoutRef         string           `db:"payout_ref" json:"payout_ref,omitempty"`
}
