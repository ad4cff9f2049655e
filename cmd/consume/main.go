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

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Account email or id (required)")
	amountFlag := flag.Int64("amount", 0, "Tokens to spend (required)")
	reasonFlag := flag.String("reason", "", "Paid action, e.g. chat or listing boost (required)")
	sourceFlag := flag.String("source", "cli", "Front end issuing the request (web, admin, bot)")
	flag.Parse()

	if *emailFlag == "" || *reasonFlag == "" {
		zap.L().Fatal("Flags are required: --email, --amount, --reason")
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

	acct, err := common.FindAccount(ctx, services.Backend, *emailFlag)
	if err != nil {
		zap.L().Fatal("Account not found", zap.String("account", *emailFlag), zap.Error(err))
	}
	ctx = models.WithCaller(ctx, &models.Caller{Source: *sourceFlag, ActorId: acct.Id})

	common.PrintHeader("TOKEN CONSUMPTION", common.DefaultWidth)
	fmt.Printf("Account: %s (%s)\n", acct.Name, acct.Email)
	fmt.Printf("Action:  %s\n", *reasonFlag)
	fmt.Println()

	res, err := services.Wallet.ConsumeTokens(ctx, acct.Id, *amountFlag, *reasonFlag)
	if err != nil {
		zap.L().Fatal("Consumption failed", zap.Error(err))
	}
	common.PrintResult(res)

	if res.Wallet != nil {
		common.PrintWalletSnapshot(acct, res.Wallet)
	}
	common.PrintFooter(fmt.Sprintf("Result: %s", res.Code), common.DefaultWidth)
}
