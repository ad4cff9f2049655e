// Package memory provides an in-memory store.Backend for tests and single-process deployments.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/google/uuid"
)

var _ store.Backend = (*Store)(nil)

type Store struct {
	clock clock.Clock
	locks *store.UserLocks

	mu          sync.RWMutex
	wallets     map[string]models.Wallet
	operations  map[string][]models.OperationRecord
	withdrawals map[string]models.WithdrawalRequest
	accounts    map[string]models.Account
}

func New(c clock.Clock) *Store {
	return &Store{
		clock:       c,
		locks:       store.NewUserLocks(),
		wallets:     make(map[string]models.Wallet),
		operations:  make(map[string][]models.OperationRecord),
		withdrawals: make(map[string]models.WithdrawalRequest),
		accounts:    make(map[string]models.Account),
	}
}

func (s *Store) Close() {}

// =============================================================================
// WALLETS
// =============================================================================

func (s *Store) Get(_ context.Context, userId string) (*models.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.wallets[userId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId)
	}
	return &w, nil
}

func (s *Store) Create(_ context.Context, userId string) (*models.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.wallets[userId]; ok {
		return &w, nil
	}
	w := models.Wallet{
		Id:        uuid.New().String(),
		UserId:    userId,
		Version:   1,
		UpdatedAt: s.clock.Now(),
	}
	s.wallets[userId] = w
	return &w, nil
}

func (s *Store) ApplyDelta(ctx context.Context, userId string, field models.Field, delta int64) (*models.Wallet, error) {
	var result models.Wallet
	err := s.Update(ctx, userId, func(tx store.WalletTx) error {
		w, err := tx.ApplyDelta(field, delta)
		result = w
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Update runs fn under the user's exclusive lock and publishes the staged
// changes in one step.
func (s *Store) Update(ctx context.Context, userId string, fn func(tx store.WalletTx) error) error {
	unlock := s.locks.Lock(userId)
	defer unlock()

	current, err := s.Get(ctx, userId)
	if err != nil {
		return err
	}

	tx := store.NewStagedTx(*current, s.clock.Now())
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.Changed() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, w := range tx.Withdrawals() {
		if _, exists := s.withdrawals[w.Id]; exists {
			return fmt.Errorf("%w: withdrawal %s", store.ErrDuplicateOperation, w.Id)
		}
	}
	for _, op := range tx.Operations() {
		for _, existing := range s.operations[userId] {
			if existing.Id == op.Id {
				return fmt.Errorf("%w: operation %s", store.ErrDuplicateOperation, op.Id)
			}
		}
	}

	s.wallets[userId] = tx.Result()
	for _, op := range tx.Operations() {
		s.appendOperationLocked(op)
	}
	for _, w := range tx.Withdrawals() {
		s.withdrawals[w.Id] = w
	}
	return nil
}

// =============================================================================
// LEDGER
// =============================================================================

func (s *Store) appendOperationLocked(op models.OperationRecord) {
	ops := s.operations[op.UserId]
	i := sort.Search(len(ops), func(i int) bool {
		return ops[i].CreatedAt.After(op.CreatedAt)
	})
	ops = append(ops, models.OperationRecord{})
	copy(ops[i+1:], ops[i:])
	ops[i] = op
	s.operations[op.UserId] = ops
}

func (s *Store) Operations(_ context.Context, userId string) ([]models.OperationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.wallets[userId]; !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrWalletNotFound, userId)
	}
	result := make([]models.OperationRecord, len(s.operations[userId]))
	copy(result, s.operations[userId])
	return result, nil
}

// =============================================================================
// WITHDRAWAL REQUESTS
// =============================================================================

func (s *Store) MonthlyWithdrawn(_ context.Context, from, to time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, w := range s.withdrawals {
		if w.Status == models.WithdrawalRejected {
			continue
		}
		if !w.RequestedAt.Before(from) && w.RequestedAt.Before(to) {
			total += w.Amount
		}
	}
	return total, nil
}

func (s *Store) GetWithdrawal(_ context.Context, id string) (*models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.withdrawals[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrWithdrawalNotFound, id)
	}
	return &w, nil
}

func (s *Store) ListWithdrawals(_ context.Context, status models.WithdrawalStatus) ([]models.WithdrawalRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []models.WithdrawalRequest
	for _, w := range s.withdrawals {
		if status == "" || w.Status == status {
			result = append(result, w)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RequestedAt.Before(result[j].RequestedAt)
	})
	return result, nil
}

func (s *Store) ResolveWithdrawal(_ context.Context, params store.ResolveWithdrawalParams) (*models.WithdrawalRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.withdrawals[params.Id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrWithdrawalNotFound, params.Id)
	}
	if w.Status != models.WithdrawalPending {
		return nil, fmt.Errorf("%w: %s is %s", store.ErrAlreadyResolved, w.Id, w.Status)
	}

	resolvedAt := params.ResolvedAt
	w.Status = params.Status
	w.ResolvedAt = &resolvedAt
	w.ResolutionNote = params.Note
	w.PayoutRef = params.PayoutRef
	s.withdrawals[w.Id] = w
	return &w, nil
}

// =============================================================================
// ACCOUNTS
// =============================================================================

func (s *Store) GetAccount(_ context.Context, userId string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[userId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, userId)
	}
	return &a, nil
}

func (s *Store) ListAccounts(_ context.Context) ([]models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Store) CreateAccount(_ context.Context, params store.CreateAccountParams) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := params.Id
	if id == "" {
		id = uuid.New().String()
	}
	for _, a := range s.accounts {
		if a.Id == id || (params.Email != "" && strings.EqualFold(a.Email, params.Email)) {
			return nil, fmt.Errorf("account already exists: %s", params.Email)
		}
	}

	now := s.clock.Now()
	a := models.Account{
		Id:              id,
		Name:            params.Name,
		Email:           params.Email,
		PlanTier:        params.PlanTier,
		PlanActivatedAt: params.PlanActivatedAt,
		Genuine:         params.Genuine,
		Administrative:  params.Administrative,
		Active:          true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if a.PlanTier == "" {
		a.PlanTier = models.PlanNone
	}
	s.accounts[id] = a
	return &a, nil
}

func (s *Store) SetPlan(_ context.Context, userId string, tier models.PlanTier, activatedAt time.Time) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[userId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, userId)
	}
	a.PlanTier = tier
	a.PlanActivatedAt = activatedAt
	a.UpdatedAt = s.clock.Now()
	s.accounts[userId] = a
	return &a, nil
}
