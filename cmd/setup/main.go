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

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"marketplace-wallet-go/internal/common"
	"marketplace-wallet-go/internal/config"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"go.uber.org/zap"
)

type setupStats struct {
	accounts      int
	walletsOpened int
	registered    int
	failed        int
}

// ensureWallet opens a wallet for accounts created outside OpenWallet.
func ensureWallet(ctx context.Context, services *common.Services, acct models.Account) (bool, error) {
	_, err := services.Backend.Get(ctx, acct.Id)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, store.ErrWalletNotFound) {
		return false, err
	}
	if _, err := services.Backend.Create(ctx, acct.Id); err != nil {
		return false, fmt.Errorf("error opening wallet: %w", err)
	}
	zap.L().Info("Opened missing wallet", zap.String("user_id", acct.Id))
	return true, nil
}

func processAccounts(ctx context.Context, services *common.Services) setupStats {
	accounts, err := services.Backend.ListAccounts(ctx)
	if err != nil {
		zap.L().Fatal("Failed to read accounts", zap.Error(err))
	}

	stats := setupStats{accounts: len(accounts)}
	for i, acct := range accounts {
		opened, err := ensureWallet(ctx, services, acct)
		if err != nil {
			stats.failed++
			zap.L().Error("Failed to prepare wallet",
				zap.String("user_id", acct.Id),
				zap.Error(err))
			continue
		}
		if opened {
			stats.walletsOpened++
		}

		if services.Mirror != nil {
			if err := services.Mirror.RegisterAccount(ctx, &accounts[i]); err != nil {
				zap.L().Warn("Failed to register account in ledger mirror",
					zap.String("user_id", acct.Id),
					zap.Error(err))
			} else {
				stats.registered++
			}
		}

		fmt.Printf("%s %-20s %-30s plan=%-8s genuine=%-5t admin=%t\n",
			common.BoxPrefix(i == len(accounts)-1),
			acct.Name, acct.Email, acct.PlanTier, acct.Genuine, acct.Administrative)
	}
	return stats
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	initFlag := flag.Bool("init", false, "Seed demo accounts even if CREATE_DEMO_ACCOUNTS is false")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}
	if *initFlag {
		cfg.Database.CreateDemoAccounts = true
	}

	zap.L().Info("Setting up wallet database",
		zap.String("backend", cfg.Backend),
		zap.String("path", cfg.Database.Path),
		zap.Bool("demo_accounts", cfg.Database.CreateDemoAccounts))

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if err := services.Wallet.HealthCheck(ctx); err != nil {
		zap.L().Fatal("Health check failed", zap.Error(err))
	}

	common.PrintHeader("ACCOUNTS", common.DefaultWidth)
	stats := processAccounts(ctx, services)

	window := services.Wallet.Window()
	summary := fmt.Sprintf("SETUP: %d accounts, %d wallets opened, %d mirrored, %d failed | next window %s",
		stats.accounts, stats.walletsOpened, stats.registered, stats.failed,
		window.NextOpen(services.Clock.Now()).Format("2006-01-02"))
	common.PrintFooter(summary, common.DefaultWidth)

	zap.L().Info("Setup complete",
		zap.Int("accounts", stats.accounts),
		zap.Int("wallets_opened", stats.walletsOpened),
		zap.Int("failed", stats.failed))
}
