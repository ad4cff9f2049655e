/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Compile-time check: *Service must satisfy store.Backend.
var _ store.Backend = (*Service)(nil)

type Service struct {
	db    *sql.DB
	clock clock.Clock
	locks *store.UserLocks
}

func NewService(ctx context.Context, cfg models.DatabaseConfig, clk clock.Clock) (*Service, error) {
	// Validate configuration
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if cfg.MaxOpenConns <= 0 {
		return nil, fmt.Errorf("max open connections must be positive, got %d", cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns < 0 {
		return nil, fmt.Errorf("max idle connections cannot be negative, got %d", cfg.MaxIdleConns)
	}
	if cfg.PingTimeout <= 0 {
		return nil, fmt.Errorf("ping timeout must be positive, got %v", cfg.PingTimeout)
	}

	zap.L().Info("Opening SQLite database", zap.String("file", cfg.Path))
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=1000&_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	// Set connection timeouts and limits
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// Test connection with timeout
	pingCtx, cancel := context.WithTimeout(ctx, cfg.PingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	service, err := newService(db, clk, cfg.CreateDemoAccounts)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, closeErr
		}
		return nil, fmt.Errorf("unable to initialize schema: %w", err)
	}

	zap.L().Info("Database service initialized successfully")
	return service, nil
}

func newService(db *sql.DB, clk clock.Clock, createDemoAccounts bool) (*Service, error) {
	service := &Service{db: db, clock: clk, locks: store.NewUserLocks()}
	if err := service.initSchema(createDemoAccounts); err != nil {
		return nil, err
	}
	return service, nil
}

func (s *Service) Close() {
	if err := s.db.Close(); err != nil {
		zap.L().Warn("Failed to close database connection", zap.Error(err))
	}
}

func (s *Service) initSchema(createDemoAccounts bool) error {
	schema := `
	-- Accounts: identity and subscription view
	CREATE TABLE IF NOT EXISTS accounts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		plan_tier TEXT NOT NULL DEFAULT 'none',
		plan_activated_at TIMESTAMP,
		genuine BOOLEAN NOT NULL DEFAULT 1,
		administrative BOOLEAN NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_email ON accounts(email);
	CREATE INDEX IF NOT EXISTS idx_accounts_active ON accounts(active);

	-- Wallets (Current State - Hot Data)
	CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL UNIQUE,
		tokens_plan INTEGER NOT NULL DEFAULT 0 CHECK (tokens_plan >= 0),
		tokens_earned INTEGER NOT NULL DEFAULT 0 CHECK (tokens_earned >= 0),
		tokens_purchased INTEGER NOT NULL DEFAULT 0 CHECK (tokens_purchased >= 0),
		tokens_spent INTEGER NOT NULL DEFAULT 0 CHECK (tokens_spent >= 0),
		credit_accrued INTEGER NOT NULL DEFAULT 0 CHECK (credit_accrued >= 0),
		credit_withdrawn INTEGER NOT NULL DEFAULT 0 CHECK (credit_withdrawn >= 0),
		cashback_anchor TIMESTAMP,
		cashback_periods INTEGER NOT NULL DEFAULT 0,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (tokens_plan + tokens_earned + tokens_purchased >= tokens_spent),
		CHECK (credit_accrued >= credit_withdrawn)
	);

	-- Operations (Audit Trail - Cold Data)
	CREATE TABLE IF NOT EXISTS operations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		field TEXT NOT NULL DEFAULT '',
		amount INTEGER NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		balance_before INTEGER NOT NULL,
		balance_after INTEGER NOT NULL,
		source TEXT NOT NULL DEFAULT '',
		reference TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_operations_user_id ON operations(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_operations_kind ON operations(kind);

	-- Double-entry view of every operation
	CREATE TABLE IF NOT EXISTS journal_entries (
		id TEXT PRIMARY KEY,
		operation_id TEXT NOT NULL,
		account_type TEXT NOT NULL,
		account_id TEXT NOT NULL,
		debit_amount INTEGER DEFAULT 0,
		credit_amount INTEGER DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_journal_operation_id ON journal_entries(operation_id);
	CREATE INDEX IF NOT EXISTS idx_journal_account ON journal_entries(account_type, account_id);

	-- Withdrawal requests created during the monthly window
	CREATE TABLE IF NOT EXISTS withdrawal_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount INTEGER NOT NULL CHECK (amount > 0),
		payout_destination TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		requested_at TIMESTAMP NOT NULL,
		resolved_at TIMESTAMP,
		resolution_note TEXT NOT NULL DEFAULT '',
		payout_ref TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_withdrawals_status ON withdrawal_requests(status);
	CREATE INDEX IF NOT EXISTS idx_withdrawals_requested_at ON withdrawal_requests(requested_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	if createDemoAccounts {
		s.insertDemoAccounts()
	} else {
		zap.L().Info("Skipping demo account creation (CREATE_DEMO_ACCOUNTS=false)")
	}
	return nil
}

// insertDemoAccounts seeds a handful of accounts covering every eligibility case.
// The synthetic account is flagged non-genuine so it never reaches the pool.
func (s *Service) insertDemoAccounts() {
	now := s.clock.Now()
	activated := clock.AddMonths(now, -1)

	accounts := []store.CreateAccountParams{
		{Name: "Alice Johnson", Email: "alice.johnson@example.com", PlanTier: models.PlanMax, PlanActivatedAt: activated, Genuine: true},
		{Name: "Bob Smith", Email: "bob.smith@example.com", PlanTier: models.PlanBasic, PlanActivatedAt: activated, Genuine: true},
		{Name: "Carol Williams", Email: "carol.williams@example.com", PlanTier: models.PlanNone, Genuine: true},
		{Name: "Demo Showcase", Email: "demo@example.com", PlanTier: models.PlanPro, PlanActivatedAt: activated, Genuine: false},
		{Name: "Platform Admin", Email: "admin@example.com", PlanTier: models.PlanNone, Genuine: true, Administrative: true},
	}

	for _, params := range accounts {
		params.Id = uuid.New().String()
		created, err := s.insertAccount(context.Background(), params, now)
		if err != nil {
			zap.L().Error("Failed to insert demo account", zap.String("name", params.Name), zap.Error(err))
			continue
		}
		if !created {
			continue
		}
		if _, err := s.Create(context.Background(), params.Id); err != nil {
			zap.L().Error("Failed to open demo wallet", zap.String("name", params.Name), zap.Error(err))
			continue
		}
		zap.L().Info("Demo account created", zap.String("id", params.Id), zap.String("name", params.Name))
	}
}

// utc normalizes timestamps before they are written so range comparisons in SQL
// stay lexicographically correct.
func utc(t time.Time) time.Time {
	return t.UTC()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func closeRows(rows *sql.Rows) {
	if err := rows.Close(); err != nil {
		zap.L().Warn("Failed to close rows", zap.Error(err))
	}
}
