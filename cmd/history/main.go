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

func printOperations(ops []models.OperationRecord) {
	for i, op := range ops {
		isLast := i == len(ops)-1
		field := string(op.Field)
		if field == "" {
			field = "-"
		}
		fmt.Printf("%s %s  %-17s %-16s %8d  %8d -> %-8d %s\n",
			common.BoxPrefix(isLast), op.CreatedAt.Format("2006-01-02 15:04:05"),
			op.Kind, field, op.Amount, op.BalanceBefore, op.BalanceAfter, op.Reason)
		if op.Source != "" || op.Reference != "" {
			fmt.Printf("%s   id=%s source=%s ref=%s\n", common.BoxDetailPrefix(isLast), common.ShortId(op.Id), op.Source, op.Reference)
		}
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Account email or id (required)")
	ledgerFlag := flag.Bool("ledger", false, "Read the mirrored history from Formance instead of the wallet store")
	limitFlag := flag.Int("limit", 50, "Maximum operations to read from the ledger")
	flag.Parse()

	if *emailFlag == "" {
		zap.L().Fatal("Flag is required: --email")
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

	var ops []models.OperationRecord
	origin := "wallet store"
	if *ledgerFlag {
		if services.Mirror == nil {
			zap.L().Fatal("Ledger mirror not configured: set FORMANCE_STACK_URL")
		}
		origin = "ledger " + services.Mirror.Ledger()
		ops, err = services.Mirror.History(ctx, acct.Id, *limitFlag)
	} else {
		ops, err = services.Wallet.GetOperationHistory(ctx, acct.Id)
	}
	if err != nil {
		zap.L().Fatal("Failed to read history", zap.Error(err))
	}

	common.PrintHeader(fmt.Sprintf("OPERATION HISTORY: %s (%s)", acct.Name, origin), common.WideWidth)
	printOperations(ops)
	common.PrintFooter(fmt.Sprintf("%d operations", len(ops)), common.WideWidth)
}
