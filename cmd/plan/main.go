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
	planFlag := flag.String("plan", "", "New plan tier: none, basic, standard, pro, max (required)")
	flag.Parse()

	if *emailFlag == "" || *planFlag == "" {
		zap.L().Fatal("Flags are required: --email, --plan")
	}
	tier, err := models.ParsePlanTier(*planFlag)
	if err != nil {
		zap.L().Fatal("Invalid plan", zap.Error(err))
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
	previous := acct.PlanTier

	updated, err := services.Wallet.ActivatePlan(ctx, acct.Id, tier)
	if err != nil {
		zap.L().Fatal("Failed to activate plan", zap.Error(err))
	}

	if services.Mirror != nil {
		if err := services.Mirror.RegisterAccount(ctx, updated); err != nil {
			zap.L().Warn("Plan change not mirrored", zap.Error(err))
		}
	}

	common.PrintHeader("PLAN CHANGED", common.DefaultWidth)
	fmt.Printf("Account:   %s (%s)\n", updated.Name, updated.Email)
	fmt.Printf("Plan:      %s -> %s\n", previous, updated.PlanTier)
	if !updated.PlanActivatedAt.IsZero() {
		price, _ := services.Catalog.Price(updated.PlanTier)
		fmt.Printf("Activated: %s (price %d)\n", updated.PlanActivatedAt.Format("2006-01-02 15:04"), price)
	}
	common.PrintSeparator("=", common.DefaultWidth)
}
