package store

import (
	"time"

	"marketplace-wallet-go/internal/models"

	"github.com/google/uuid"
)

// StagedTx is the backend-neutral WalletTx. Backends open one per Update call,
// hand it to the caller and persist its contents when the caller succeeds.
type StagedTx struct {
	original    models.Wallet
	wallet      models.Wallet
	now         time.Time
	reconciled  bool
	operations  []models.OperationRecord
	withdrawals []models.WithdrawalRequest
}

var _ WalletTx = (*StagedTx)(nil)

func NewStagedTx(w models.Wallet, now time.Time) *StagedTx {
	return &StagedTx{original: w, wallet: w, now: now}
}

func (t *StagedTx) Wallet() models.Wallet {
	return t.wallet
}

func (t *StagedTx) ApplyDelta(field models.Field, delta int64) (models.Wallet, error) {
	next, err := CheckDelta(t.wallet, field, delta)
	if err != nil {
		return t.wallet, err
	}
	t.wallet = next
	return next, nil
}

func (t *StagedTx) MarkReconciled(anchor time.Time, periods int) {
	t.wallet.CashbackAnchor = anchor
	t.wallet.CashbackPeriods = periods
	t.reconciled = true
}

func (t *StagedTx) AppendOperation(rec *models.OperationRecord) error {
	if rec.Id == "" {
		rec.Id = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = t.now
	}
	rec.UserId = t.wallet.UserId
	for _, op := range t.operations {
		if op.Id == rec.Id {
			return ErrDuplicateOperation
		}
	}
	t.operations = append(t.operations, *rec)
	return nil
}

func (t *StagedTx) SaveWithdrawal(req *models.WithdrawalRequest) error {
	if req.Id == "" {
		req.Id = uuid.New().String()
	}
	if req.RequestedAt.IsZero() {
		req.RequestedAt = t.now
	}
	if req.Status == "" {
		req.Status = models.WithdrawalPending
	}
	req.UserId = t.wallet.UserId
	t.withdrawals = append(t.withdrawals, *req)
	return nil
}

// Original is the wallet as it was when the unit of work began.
func (t *StagedTx) Original() models.Wallet {
	return t.original
}

// Changed reports whether anything needs to be persisted.
func (t *StagedTx) Changed() bool {
	return t.wallet != t.original || t.reconciled || len(t.operations) > 0 || len(t.withdrawals) > 0
}

func (t *StagedTx) Operations() []models.OperationRecord {
	return t.operations
}

func (t *StagedTx) Withdrawals() []models.WithdrawalRequest {
	return t.withdrawals
}

// Result returns the staged wallet stamped for commit.
func (t *StagedTx) Result() models.Wallet {
	w := t.wallet
	w.Version = t.original.Version + 1
	w.UpdatedAt = t.now
	return w
}
