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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"marketplace-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	reconcileInterval, err := getEnvDuration("RECONCILE_INTERVAL", time.Hour)
	if err != nil {
		return nil, err
	}

	location, err := getEnvLocation("WALLET_TIMEZONE", "Europe/Moscow")
	if err != nil {
		return nil, err
	}

	cashbackRate, err := getEnvDecimal("CASHBACK_RATE", "0.087")
	if err != nil {
		return nil, err
	}
	if cashbackRate.IsNegative() || cashbackRate.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("CASHBACK_RATE must be between 0 and 1, got %s", cashbackRate)
	}

	payoutRate, err := getEnvDecimal("PAYOUT_TOKEN_RATE", "0.01")
	if err != nil {
		return nil, err
	}

	windowDay := getEnvInt("WITHDRAWAL_WINDOW_DAY", 3)
	if windowDay < 1 || windowDay > 28 {
		return nil, fmt.Errorf("WITHDRAWAL_WINDOW_DAY must be between 1 and 28, got %d", windowDay)
	}

	backend := strings.ToLower(getEnvString("WALLET_BACKEND", BackendSQLite))
	if backend != BackendSQLite && backend != BackendMemory {
		return nil, fmt.Errorf("unsupported WALLET_BACKEND %q (want %s or %s)", backend, BackendSQLite, BackendMemory)
	}

	return &models.Config{
		Backend: backend,
		Database: models.DatabaseConfig{
			Path:               getEnvString("DATABASE_PATH", "wallets.db"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:    connMaxLifetime,
			ConnMaxIdleTime:    connMaxIdleTime,
			PingTimeout:        pingTimeout,
			CreateDemoAccounts: getEnvBool("CREATE_DEMO_ACCOUNTS", false),
		},
		Wallet: models.WalletConfig{
			Location:     location,
			WindowDay:    windowDay,
			CashbackRate: cashbackRate,
			PlansFile:    getEnvString("PLANS_FILE", "plans.yaml"),
		},
		Scheduler: models.SchedulerConfig{
			ReconcileInterval: reconcileInterval,
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "marketplace-wallets"),
		},
		Payout: models.PayoutConfig{
			Enabled:   getEnvBool("PAYOUT_ENABLED", false),
			Asset:     getEnvString("PAYOUT_ASSET", "USDC"),
			WalletId:  getEnvString("PAYOUT_WALLET_ID", ""),
			TokenRate: payoutRate,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDecimal(key, defaultValue string) (decimal.Decimal, error) {
	value := getEnvString(key, defaultValue)
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
	}
	return d, nil
}

func getEnvLocation(key, defaultValue string) (*time.Location, error) {
	value := getEnvString(key, defaultValue)
	loc, err := time.LoadLocation(value)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone for %s: %q (%w)", key, value, err)
	}
	return loc, nil
}
