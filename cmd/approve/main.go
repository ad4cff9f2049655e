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

func printWithdrawals(reqs []models.WithdrawalRequest) {
	for i, r := range reqs {
		isLast := i == len(reqs)-1
		fmt.Printf("%s %-36s  user=%s  amount=%8d  %-8s  %s\n",
			common.BoxPrefix(isLast), r.Id, common.ShortId(r.UserId), r.Amount, r.Status,
			r.RequestedAt.Format("2006-01-02 15:04"))
		fmt.Printf("%s   destination: %s\n", common.BoxDetailPrefix(isLast), r.PayoutDestination)
		if r.PayoutRef != "" || r.ResolutionNote != "" {
			fmt.Printf("%s   payout_ref: %s  note: %s\n", common.BoxDetailPrefix(isLast), common.ShortId(r.PayoutRef), r.ResolutionNote)
		}
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	idFlag := flag.String("id", "", "Withdrawal request id to resolve (omit to list)")
	rejectFlag := flag.Bool("reject", false, "Reject instead of approve")
	noteFlag := flag.String("note", "", "Resolution note")
	statusFlag := flag.String("status", "pending", "Status filter when listing: pending, approved, rejected, all")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	if *idFlag == "" {
		status := models.WithdrawalStatus(*statusFlag)
		if *statusFlag == "all" {
			status = ""
		}
		reqs, err := services.Wallet.ListWithdrawals(ctx, status)
		if err != nil {
			zap.L().Fatal("Failed to list withdrawals", zap.Error(err))
		}
		common.PrintHeader(fmt.Sprintf("WITHDRAWAL REQUESTS (%s)", *statusFlag), common.WideWidth)
		printWithdrawals(reqs)
		common.PrintFooter(fmt.Sprintf("%d requests", len(reqs)), common.WideWidth)
		return
	}

	ctx = models.WithCaller(ctx, &models.Caller{Source: "admin-cli"})

	resolved, err := services.Wallet.ResolveWithdrawal(ctx, *idFlag, !*rejectFlag, *noteFlag)
	if err != nil {
		zap.L().Fatal("Failed to resolve withdrawal", zap.String("id", *idFlag), zap.Error(err))
	}

	common.PrintHeader("WITHDRAWAL RESOLVED", common.WideWidth)
	printWithdrawals([]models.WithdrawalRequest{*resolved})
	if resolved.Status == models.WithdrawalApproved && services.Payout == nil {
		fmt.Println("\nPayout dispatch disabled: send the funds manually (PAYOUT_ENABLED=false)")
	}
	common.PrintFooter(fmt.Sprintf("Status: %s", resolved.Status), common.WideWidth)
}
