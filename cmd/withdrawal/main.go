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

type withdrawalRequest struct {
	account     string
	amount      int64
	destination string
}

func parseAndValidateFlags() (*withdrawalRequest, error) {
	emailFlag := flag.String("email", "", "Account email or id (required)")
	amountFlag := flag.Int64("amount", 0, "Credit amount to withdraw (required)")
	destinationFlag := flag.String("destination", "", "Payout destination (required)")
	flag.Parse()

	if *emailFlag == "" || *destinationFlag == "" {
		return nil, fmt.Errorf("all flags are required: --email, --amount, --destination")
	}

	// amount and destination are validated again by the window controller,
	// which answers with a business result instead of an error
	return &withdrawalRequest{
		account:     *emailFlag,
		amount:      *amountFlag,
		destination: *destinationFlag,
	}, nil
}

func printPreview(services *common.Services, acct *models.Account, snap *models.WalletSnapshot) {
	window := services.Wallet.Window()
	now := services.Clock.Now()

	common.PrintHeader("WITHDRAWAL REQUEST", common.DefaultWidth)
	common.PrintWalletSnapshot(acct, snap)
	fmt.Println()
	if window.Open(now) {
		fmt.Printf("Window: open today (day %d)\n", window.Day)
	} else {
		fmt.Printf("Window: closed, next opens %s\n", window.NextOpen(now).Format("2006-01-02"))
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid arguments", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	acct, err := common.FindAccount(ctx, services.Backend, req.account)
	if err != nil {
		zap.L().Fatal("Account not found", zap.String("account", req.account), zap.Error(err))
	}

	ctx = models.WithCaller(ctx, &models.Caller{Source: "cli", ActorId: acct.Id})

	snap, err := services.Wallet.GetWallet(ctx, acct.Id)
	if err != nil {
		zap.L().Fatal("Failed to read wallet", zap.Error(err))
	}
	printPreview(services, acct, snap)

	res, err := services.Wallet.RequestWithdrawal(ctx, acct.Id, req.amount, req.destination)
	if err != nil {
		if errors.Is(err, store.ErrConcurrentModification) {
			zap.L().Fatal("Wallet was modified concurrently - please retry", zap.Error(err))
		}
		zap.L().Fatal("Withdrawal failed", zap.Error(err))
	}

	fmt.Println()
	common.PrintResult(res)
	if !res.Success {
		common.PrintFooter("Withdrawal rejected", common.DefaultWidth)
		return
	}

	common.PrintFooter(fmt.Sprintf("Withdrawal %s pending approval (run cmd/approve)", res.Withdrawal.Id), common.DefaultWidth)
}
