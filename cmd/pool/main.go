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
	"sort"

	"marketplace-wallet-go/internal/common"
	"marketplace-wallet-go/internal/config"
	"marketplace-wallet-go/internal/models"

	"go.uber.org/zap"
)

func printTiers(perTier map[models.PlanTier]models.TierBreakdown) {
	tiers := make([]models.PlanTier, 0, len(perTier))
	for t := range perTier {
		tiers = append(tiers, t)
	}
	sort.Slice(tiers, func(i, j int) bool { return tiers[i] < tiers[j] })

	for i, t := range tiers {
		b := perTier[t]
		fmt.Printf("%s %-10s: %4d users, %10d credit\n", common.BoxPrefix(i == len(tiers)-1), t, b.Count, b.Sum)
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	reconcileFlag := flag.Bool("reconcile", false, "Settle outstanding cashback for every account first")
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

	if *reconcileFlag {
		summary, err := services.Wallet.ReconcileAll(ctx)
		if err != nil {
			zap.L().Fatal("Reconciliation failed", zap.Error(err))
		}
		fmt.Printf("Reconciled %d of %d accounts (%d failed)\n", summary.Reconciled, summary.Accounts, summary.Failed)
	}

	snap, err := services.Wallet.GetMonthlyPoolSnapshot(ctx)
	if err != nil {
		zap.L().Fatal("Failed to compute pool", zap.Error(err))
	}

	now := services.Clock.Now()
	window := services.Wallet.Window()

	common.PrintHeader(fmt.Sprintf("WITHDRAWAL POOL %s", snap.Month), common.DefaultWidth)
	fmt.Printf("Eligible users: %d\n", snap.EligibleUserCount)
	fmt.Printf("Total pool:     %d\n", snap.TotalPool)
	fmt.Printf("Withdrawn:      %d\n", snap.Withdrawn)
	fmt.Printf("Remaining:      %d\n", snap.Remaining)
	if window.Open(now) {
		fmt.Println("Window:         open")
	} else {
		fmt.Printf("Window:         closed, next %s\n", window.NextOpen(now).Format("2006-01-02"))
	}
	common.PrintBoxSeparator(78)
	printTiers(snap.PerTier)
	common.PrintFooter(fmt.Sprintf("Computed at %s", snap.ComputedAt.Format("2006-01-02 15:04:05 MST")), common.DefaultWidth)
}
