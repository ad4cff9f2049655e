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
	"regexp"
	"strings"

	"marketplace-wallet-go/internal/common"
	"marketplace-wallet-go/internal/config"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	nameFlag := flag.String("name", "", "Account holder's full name (required)")
	emailFlag := flag.String("email", "", "Account email address (required)")
	planFlag := flag.String("plan", "none", "Plan tier: none, basic, standard, pro, max")
	genuineFlag := flag.Bool("genuine", true, "Real user (false for demo/synthetic accounts)")
	adminFlag := flag.Bool("admin", false, "Administrative account (unlimited consumption)")
	tokensFlag := flag.Int64("tokens", 0, "Initial subscription token allotment")
	flag.Parse()

	if *nameFlag == "" || *emailFlag == "" {
		zap.L().Fatal("Both flags are required: --name and --email")
	}
	if err := validateName(*nameFlag); err != nil {
		zap.L().Fatal("Invalid name", zap.Error(err))
	}
	if err := validateEmail(*emailFlag); err != nil {
		zap.L().Fatal("Invalid email", zap.Error(err))
	}
	tier, err := models.ParsePlanTier(*planFlag)
	if err != nil {
		zap.L().Fatal("Invalid plan", zap.Error(err))
	}
	if *tokensFlag < 0 {
		zap.L().Fatal("Initial tokens cannot be negative", zap.Int64("tokens", *tokensFlag))
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Initializing services")
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	ctx = models.WithCaller(ctx, &models.Caller{Source: "admin-cli"})

	acct, w, err := services.Wallet.OpenWallet(ctx, store.CreateAccountParams{
		Id:             uuid.New().String(),
		Name:           *nameFlag,
		Email:          *emailFlag,
		PlanTier:       tier,
		Genuine:        *genuineFlag,
		Administrative: *adminFlag,
	})
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			zap.L().Fatal("Account already exists with this email", zap.String("email", *emailFlag))
		}
		zap.L().Fatal("Failed to open wallet", zap.Error(err))
	}

	if services.Mirror != nil {
		if err := services.Mirror.RegisterAccount(ctx, acct); err != nil {
			zap.L().Warn("Account not registered in ledger mirror", zap.Error(err))
		}
	}

	fmt.Println()
	common.PrintHeader("ACCOUNT CREATED", common.DefaultWidth)
	fmt.Printf("ID:        %s\n", acct.Id)
	fmt.Printf("Name:      %s\n", acct.Name)
	fmt.Printf("Email:     %s\n", acct.Email)
	fmt.Printf("Plan:      %s\n", acct.PlanTier)
	fmt.Printf("Genuine:   %t\n", acct.Genuine)
	fmt.Printf("Admin:     %t\n", acct.Administrative)
	fmt.Printf("Wallet:    %s\n", w.Id)
	common.PrintSeparator("=", common.DefaultWidth)

	if *tokensFlag > 0 {
		res, err := services.Wallet.CreditTokens(ctx, acct.Id, models.FieldTokensPlan, *tokensFlag, "initial allotment")
		if err != nil {
			zap.L().Fatal("Failed to credit initial tokens", zap.Error(err))
		}
		fmt.Println()
		common.PrintResult(res)
	}
	fmt.Println()

	zap.L().Info("Account created successfully",
		zap.String("id", acct.Id),
		zap.String("plan_tier", string(acct.PlanTier)),
		zap.Int64("initial_tokens", *tokensFlag))
}
