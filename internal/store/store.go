package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"marketplace-wallet-go/internal/models"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrAccountNotFound        = errors.New("account not found")
	ErrWithdrawalNotFound     = errors.New("withdrawal request not found")
	ErrInvariantViolation     = errors.New("wallet invariant violation")
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrDuplicateOperation     = errors.New("duplicate operation")
	ErrAlreadyResolved        = errors.New("withdrawal request already resolved")
	ErrUnknownField           = errors.New("unknown wallet field")
)

// InvariantViolationError describes a rejected mutation. It wraps ErrInvariantViolation.
type InvariantViolationError struct {
	UserId string
	Field  models.Field
	Delta  int64
	Reason string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("wallet invariant violation for user %s: %s (field=%s delta=%d)", e.UserId, e.Reason, e.Field, e.Delta)
}

func (e *InvariantViolationError) Unwrap() error {
	return ErrInvariantViolation
}

// WalletTx is a per-user unit of work. Changes are staged and only become
// visible when the function passed to WalletStore.Update returns nil.
type WalletTx interface {
	// Wallet returns the staged wallet state.
	Wallet() models.Wallet
	ApplyDelta(field models.Field, delta int64) (models.Wallet, error)
	// MarkReconciled records the cashback anchor and how many of its periods were credited.
	MarkReconciled(anchor time.Time, periods int)
	AppendOperation(rec *models.OperationRecord) error
	SaveWithdrawal(req *models.WithdrawalRequest) error
}

// WalletStore is the single source of truth for wallet counters and the operation ledger.
// There are no setters for absolute counter values.
type WalletStore interface {
	Get(ctx context.Context, userId string) (*models.Wallet, error)
	Create(ctx context.Context, userId string) (*models.Wallet, error)
	ApplyDelta(ctx context.Context, userId string, field models.Field, delta int64) (*models.Wallet, error)
	Update(ctx context.Context, userId string, fn func(tx WalletTx) error) error

	Operations(ctx context.Context, userId string) ([]models.OperationRecord, error)

	MonthlyWithdrawn(ctx context.Context, from, to time.Time) (int64, error)
	GetWithdrawal(ctx context.Context, id string) (*models.WithdrawalRequest, error)
	ListWithdrawals(ctx context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error)
	ResolveWithdrawal(ctx context.Context, params ResolveWithdrawalParams) (*models.WithdrawalRequest, error)
}

// AccountDirectory is the identity and subscription collaborator.
type AccountDirectory interface {
	GetAccount(ctx context.Context, userId string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]models.Account, error)
	CreateAccount(ctx context.Context, params CreateAccountParams) (*models.Account, error)
	SetPlan(ctx context.Context, userId string, tier models.PlanTier, activatedAt time.Time) (*models.Account, error)
}

// Backend bundles everything a storage implementation provides.
type Backend interface {
	WalletStore
	AccountDirectory
	Close()
}

// CreateAccountParams contains the parameters for registering an account.
type CreateAccountParams struct {
	Id              string
	Name            string
	Email           string
	PlanTier        models.PlanTier
	PlanActivatedAt time.Time
	Genuine         bool
	Administrative  bool
}

// ResolveWithdrawalParams captures an administrative decision on a pending request.
type ResolveWithdrawalParams struct {
	Id         string
	Status     models.WithdrawalStatus
	Note       string
	PayoutRef  string
	ResolvedAt time.Time
}

// CheckDelta applies delta to a copy of w and validates every wallet invariant.
// On failure it returns *InvariantViolationError and w is left untouched.
func CheckDelta(w models.Wallet, field models.Field, delta int64) (models.Wallet, error) {
	if !field.Valid() {
		return w, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	violation := func(reason string) error {
		return &InvariantViolationError{UserId: w.UserId, Field: field, Delta: delta, Reason: reason}
	}

	if (field == models.FieldCreditAccrued || field == models.FieldCreditWithdrawn) && delta < 0 {
		return w, violation(string(field) + " cannot decrease")
	}

	if cur := w.Counter(field); delta > 0 && cur > math.MaxInt64-delta {
		return w, violation(string(field) + " would overflow")
	}

	next := w.WithDelta(field, delta)
	if delta > 0 && sourcesOverflow(next) {
		return w, violation("token sources would overflow")
	}
	switch {
	case next.Counter(field) < 0:
		return w, violation(string(field) + " would go negative")
	case next.Balance() < 0:
		return w, violation("balance would go negative")
	case next.Withdrawable() < 0:
		return w, violation("withdrawable would go negative")
	}
	return next, nil
}

func sourcesOverflow(w models.Wallet) bool {
	if w.TokensPlan > math.MaxInt64-w.TokensEarned {
		return true
	}
	return w.TokensPlan+w.TokensEarned > math.MaxInt64-w.TokensPurchased
}
