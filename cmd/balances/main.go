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
	"flag"
	"fmt"

	"marketplace-wallet-go/internal/common"
	"marketplace-wallet-go/internal/config"
	"marketplace-wallet-go/internal/models"

	"go.uber.org/zap"
)

type walletStats struct {
	totalAccounts   int
	totalTokens     int64
	totalWithdrawal int64
	unreconciled    int
}

func processAccountsAndGenerateReport(ctx context.Context, accounts []models.Account, services *common.Services, logger *zap.Logger) walletStats {
	stats := walletStats{}

	for i := range accounts {
		acct := &accounts[i]
		stats.totalAccounts++

		snap, err := services.Wallet.GetWallet(ctx, acct.Id)
		if err != nil {
			logger.Error("Failed to read wallet",
				zap.String("user_id", acct.Id),
				zap.String("name", acct.Name),
				zap.Error(err))
			continue
		}

		common.PrintWalletSnapshot(acct, snap)
		stats.totalTokens += snap.Balance
		stats.totalWithdrawal += snap.Withdrawable
		if !snap.Reconciled {
			stats.unreconciled++
		}
	}

	return stats
}

func main() {
	ctx := context.Background()

	logger, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by account email or id (optional)")
	flag.Parse()

	logger.Info("Starting wallet query")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	accounts, err := common.LookupAccounts(ctx, services.Backend, *emailFlag, logger)
	if err != nil {
		logger.Fatal("Failed to look up accounts", zap.Error(err))
	}

	common.PrintHeader("WALLET REPORT", common.DefaultWidth)

	stats := processAccountsAndGenerateReport(ctx, accounts, services, logger)

	summary := fmt.Sprintf("SUMMARY: %d accounts, %d tokens spendable, %d credit withdrawable, %d unreconciled",
		stats.totalAccounts, stats.totalTokens, stats.totalWithdrawal, stats.unreconciled)
	common.PrintFooter(summary, common.DefaultWidth)

	logger.Info("Wallet query completed",
		zap.Int("accounts", stats.totalAccounts),
		zap.Int64("tokens", stats.totalTokens),
		zap.Int64("withdrawable", stats.totalWithdrawal))
}
