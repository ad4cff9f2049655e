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

package common

import (
	"context"
	"fmt"
	"strings"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"

	"go.uber.org/zap"
)

// FindAccount resolves a command-line reference that may be either an
// account id or an email address.
func FindAccount(ctx context.Context, directory store.AccountDirectory, ref string) (*models.Account, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, fmt.Errorf("account reference cannot be empty")
	}
	if !strings.Contains(ref, "@") {
		return directory.GetAccount(ctx, ref)
	}

	accounts, err := directory.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	for i := range accounts {
		if strings.EqualFold(accounts[i].Email, ref) {
			return &accounts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", store.ErrAccountNotFound, ref)
}

// LookupAccounts returns the account matching emailFilter, or every account
// when the filter is empty.
func LookupAccounts(ctx context.Context, directory store.AccountDirectory, emailFilter string, logger *zap.Logger) ([]models.Account, error) {
	if emailFilter != "" {
		logger.Info("Looking up account", zap.String("ref", emailFilter))
		acct, err := FindAccount(ctx, directory, emailFilter)
		if err != nil {
			return nil, fmt.Errorf("account not found: %w", err)
		}
		return []models.Account{*acct}, nil
	}

	accounts, err := directory.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get accounts: %w", err)
	}
	logger.Info("Retrieved accounts", zap.Int("count", len(accounts)))
	return accounts, nil
}
