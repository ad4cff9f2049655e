package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var tier string
	var activatedAt sql.NullTime
	err := row.Scan(&a.Id, &a.Name, &a.Email, &tier, &activatedAt,
		&a.Genuine, &a.Administrative, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.PlanTier = models.PlanTier(tier)
	if activatedAt.Valid {
		a.PlanActivatedAt = activatedAt.Time
	}
	return &a, nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	zap.L().Debug("Querying active accounts")

	rows, err := s.db.QueryContext(ctx, queryGetActiveAccounts)
	if err != nil {
		zap.L().Error("Failed to query accounts", zap.Error(err))
		return nil, fmt.Errorf("unable to query accounts: %w", err)
	}
	defer closeRows(rows)

	var accounts []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			zap.L().Error("Failed to scan account row", zap.Error(err))
			return nil, fmt.Errorf("unable to scan account row: %w", err)
		}
		accounts = append(accounts, *a)
	}

	// Check for errors during iteration
	if err := rows.Err(); err != nil {
		zap.L().Error("Error during account row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating account rows: %w", err)
	}

	zap.L().Debug("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}

func (s *Service) GetAccount(ctx context.Context, userId string) (*models.Account, error) {
	a, err := scanAccount(s.db.QueryRowContext(ctx, queryGetAccountById, userId))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, userId)
		}
		zap.L().Error("Failed to query account by ID", zap.String("user_id", userId), zap.Error(err))
		return nil, fmt.Errorf("unable to query account by ID: %w", err)
	}
	return a, nil
}

func (s *Service) CreateAccount(ctx context.Context, params store.CreateAccountParams) (*models.Account, error) {
	if params.Id == "" {
		params.Id = uuid.New().String()
	}
	zap.L().Info("Creating account",
		zap.String("id", params.Id),
		zap.String("name", params.Name),
		zap.String("email", params.Email),
		zap.String("plan_tier", string(params.PlanTier)))

	created, err := s.insertAccount(ctx, params, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("account with email %s already exists", params.Email)
	}
	return s.GetAccount(ctx, params.Id)
}

func (s *Service) insertAccount(ctx context.Context, params store.CreateAccountParams, now time.Time) (bool, error) {
	tier := params.PlanTier
	if tier == "" {
		tier = models.PlanNone
	}

	result, err := s.db.ExecContext(ctx, queryInsertAccount,
		params.Id, params.Name, params.Email, string(tier), nullTime(params.PlanActivatedAt),
		params.Genuine, params.Administrative, utc(now), utc(now))
	if err != nil {
		zap.L().Error("Failed to insert account", zap.String("email", params.Email), zap.Error(err))
		return false, fmt.Errorf("unable to insert account: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unable to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *Service) SetPlan(ctx context.Context, userId string, tier models.PlanTier, activatedAt time.Time) (*models.Account, error) {
	result, err := s.db.ExecContext(ctx, queryUpdateAccountPlan, string(tier), nullTime(activatedAt), utc(s.clock.Now()), userId)
	if err != nil {
		return nil, fmt.Errorf("unable to update plan: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unable to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, userId)
	}

	zap.L().Info("Plan updated", zap.String("user_id", userId), zap.String("plan_tier", string(tier)))
	return s.GetAccount(ctx, userId)
}
