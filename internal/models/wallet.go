package models

import "time"

// Field names one of the wallet's counters
type Field string

const (
	FieldTokensPlan      Field = "tokens_plan"
	FieldTokensEarned    Field = "tokens_earned"
	FieldTokensPurchased Field = "tokens_purchased"
	FieldTokensSpent     Field = "tokens_spent"
	FieldCreditAccrued   Field = "credit_accrued"
	FieldCreditWithdrawn Field = "credit_withdrawn"
)

// Valid reports whether f is a known counter.
func (f Field) Valid() bool {
	switch f {
	case FieldTokensPlan, FieldTokensEarned, FieldTokensPurchased,
		FieldTokensSpent, FieldCreditAccrued, FieldCreditWithdrawn:
		return true
	}
	return false
}

// IsCreditSource reports whether f is one of the three token sources
// a top-up may be attributed to.
func (f Field) IsCreditSource() bool {
	return f == FieldTokensPlan || f == FieldTokensEarned || f == FieldTokensPurchased
}

// Wallet is the per-user counter record (hot data)
type Wallet struct {
	Id              string    `db:"id"`
	UserId          string    `db:"user_id"`
	TokensPlan      int64     `db:"tokens_plan"`
	TokensEarned    int64     `db:"tokens_earned"`
	TokensPurchased int64     `db:"tokens_purchased"`
	TokensSpent     int64     `db:"tokens_spent"`
	CreditAccrued   int64     `db:"credit_accrued"`
	CreditWithdrawn int64     `db:"credit_withdrawn"`
	CashbackAnchor  time.Time `db:"cashback_anchor"`
	CashbackPeriods int       `db:"cashback_periods"`
	Version         int64     `db:"version"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Balance is the spendable token balance. It is never stored.
func (w Wallet) Balance() int64 {
	return w.TokensPlan + w.TokensEarned + w.TokensPurchased - w.TokensSpent
}

// Withdrawable is the cashback credit still available for withdrawal.
func (w Wallet) Withdrawable() int64 {
	return w.CreditAccrued - w.CreditWithdrawn
}

// Counter returns the value of the named counter.
func (w Wallet) Counter(f Field) int64 {
	switch f {
	case FieldTokensPlan:
		return w.TokensPlan
	case FieldTokensEarned:
		return w.TokensEarned
	case FieldTokensPurchased:
		return w.TokensPurchased
	case FieldTokensSpent:
		return w.TokensSpent
	case FieldCreditAccrued:
		return w.CreditAccrued
	case FieldCreditWithdrawn:
		return w.CreditWithdrawn
	}
	return 0
}

// WithDelta returns a copy of w with delta added to the named counter.
func (w Wallet) WithDelta(f Field, delta int64) Wallet {
	switch f {
	case FieldTokensPlan:
		w.TokensPlan += delta
	case FieldTokensEarned:
		w.TokensEarned += delta
	case FieldTokensPurchased:
		w.TokensPurchased += delta
	case FieldTokensSpent:
		w.TokensSpent += delta
	case FieldCreditAccrued:
		w.CreditAccrued += delta
	case FieldCreditWithdrawn:
		w.CreditWithdrawn += delta
	}
	return w
}

// WalletSnapshot is the read model returned to callers
type WalletSnapshot struct {
	UserId          string    `json:"user_id"`
	TokensPlan      int64     `json:"tokens_plan"`
	TokensEarned    int64     `json:"tokens_earned"`
	TokensPurchased int64     `json:"tokens_purchased"`
	TokensSpent     int64     `json:"tokens_spent"`
	Balance         int64     `json:"balance"`
	CreditAccrued   int64     `json:"credit_accrued"`
	CreditWithdrawn int64     `json:"credit_withdrawn"`
	Withdrawable    int64     `json:"withdrawable"`
	PlanTier        PlanTier  `json:"plan_tier"`
	Unlimited       bool      `json:"unlimited"`
	Reconciled      bool      `json:"reconciled"`
	AsOf            time.Time `json:"as_of"`
}

// NewWalletSnapshot derives the read model from a stored wallet.
func NewWalletSnapshot(w Wallet, tier PlanTier, unlimited, reconciled bool, asOf time.Time) *WalletSnapshot {
	return &WalletSnapshot{
		UserId:          w.UserId,
		TokensPlan:      w.TokensPlan,
		TokensEarned:    w.TokensEarned,
		TokensPurchased: w.TokensPurchased,
		TokensSpent:     w.TokensSpent,
		Balance:         w.Balance(),
		CreditAccrued:   w.CreditAccrued,
		CreditWithdrawn: w.CreditWithdrawn,
		Withdrawable:    w.Withdrawable(),
		PlanTier:        tier,
		Unlimited:       unlimited,
		Reconciled:      reconciled,
		AsOf:            asOf,
	}
}
