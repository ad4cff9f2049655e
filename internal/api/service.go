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

package api

import (
	"context"
	"fmt"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"
	"marketplace-wallet-go/internal/wallet"

	"github.com/shopspring/decimal"
)

// PayoutDispatcher sends the funds for an approved withdrawal and returns the
// external reference of the transfer.
type PayoutDispatcher interface {
	Dispatch(ctx context.Context, req models.WithdrawalRequest) (string, error)
}

// Options configures the wallet core.
type Options struct {
	Catalog      models.PlanCatalog
	CashbackRate *decimal.Decimal // nil selects the default; zero disables cashback
	WindowDay    int
	Publisher    wallet.Publisher
	Payout       PayoutDispatcher
}

// WalletService is the entry point for route handlers, scheduled jobs and admin tooling
type WalletService struct {
	wallets   store.WalletStore
	directory store.AccountDirectory
	catalog   models.PlanCatalog
	clock     clock.Clock
	payout    PayoutDispatcher

	cashback    *wallet.CashbackEngine
	consumption *wallet.ConsumptionValidator
	pool        *wallet.PoolAggregator
	window      *wallet.WindowController
}

func NewWalletService(wallets store.WalletStore, directory store.AccountDirectory, clk clock.Clock, opts Options) *WalletService {
	rate := wallet.DefaultCashbackRate
	if opts.CashbackRate != nil {
		rate = *opts.CashbackRate
	}
	day := opts.WindowDay
	if day == 0 {
		day = wallet.DefaultWindowDay
	}

	pool := wallet.NewPoolAggregator(wallets, directory, opts.Catalog, rate, clk)
	s := &WalletService{
		wallets:     wallets,
		directory:   directory,
		catalog:     opts.Catalog,
		clock:       clk,
		payout:      opts.Payout,
		cashback:    wallet.NewCashbackEngine(wallets, directory, opts.Catalog, rate, clk),
		consumption: wallet.NewConsumptionValidator(wallets, directory, opts.Catalog, clk),
		pool:        pool,
		window:      wallet.NewWindowController(wallets, directory, pool, wallet.Window{Day: day, Location: clk.Location()}, clk),
	}

	if opts.Publisher != nil {
		s.cashback.SetPublisher(opts.Publisher)
		s.consumption.SetPublisher(opts.Publisher)
		s.window.SetPublisher(opts.Publisher)
	}
	return s
}

func (s *WalletService) HealthCheck(ctx context.Context) error {
	_, err := s.directory.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}

// Window exposes the withdrawal window so callers can render its schedule.
func (s *WalletService) Window() wallet.Window {
	return s.window.Window()
}
