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

package database

const (
	// Account queries
	queryAccountColumns = `id, name, email, plan_tier, plan_activated_at, genuine, administrative, active, created_at, updated_at`

	queryGetActiveAccounts = `
		SELECT ` + queryAccountColumns + `
		FROM accounts
		WHERE active = 1
		ORDER BY created_at`

	queryGetAccountById = `
		SELECT ` + queryAccountColumns + `
		FROM accounts
		WHERE id = ? AND active = 1`

	queryInsertAccount = `
		INSERT OR IGNORE INTO accounts (id, name, email, plan_tier, plan_activated_at, genuine, administrative, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`

	queryUpdateAccountPlan = `
		UPDATE accounts
		SET plan_tier = ?, plan_activated_at = ?, updated_at = ?
		WHERE id = ? AND active = 1`

	// Wallet queries
	queryWalletColumns = `id, user_id, tokens_plan, tokens_earned, tokens_purchased, tokens_spent,
		credit_accrued, credit_withdrawn, cashback_anchor, cashback_periods, version, updated_at`

	queryGetWallet = `
		SELECT ` + queryWalletColumns + `
		FROM wallets
		WHERE user_id = ?`

	queryInsertWallet = `
		INSERT OR IGNORE INTO wallets (id, user_id, cashback_anchor, version, updated_at)
		VALUES (?, ?, ?, 1, ?)`

	queryUpdateWallet = `
		UPDATE wallets
		SET tokens_plan = ?, tokens_earned = ?, tokens_purchased = ?, tokens_spent = ?,
		    credit_accrued = ?, credit_withdrawn = ?, cashback_anchor = ?, cashback_periods = ?,
		    version = ?, updated_at = ?
		WHERE user_id = ? AND version = ?`

	// Operation queries
	queryInsertOperation = `
		INSERT INTO operations (
			id, user_id, kind, field, amount, reason, balance_before, balance_after, source, reference, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetOperations = `
		SELECT id, user_id, kind, field, amount, reason, balance_before, balance_after, source, reference, created_at
		FROM operations
		WHERE user_id = ?
		ORDER BY created_at, rowid`

	queryInsertJournalEntry = `
		INSERT INTO journal_entries (id, operation_id, account_type, account_id, debit_amount, credit_amount, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	// Withdrawal queries
	queryWithdrawalColumns = `id, user_id, amount, payout_destination, status, requested_at, resolved_at, resolution_note, payout_ref`

	queryInsertWithdrawal = `
		INSERT INTO withdrawal_requests (` + queryWithdrawalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetWithdrawal = `
		SELECT ` + queryWithdrawalColumns + `
		FROM withdrawal_requests
		WHERE id = ?`

	queryListWithdrawals = `
		SELECT ` + queryWithdrawalColumns + `
		FROM withdrawal_requests
		WHERE (? = '' OR status = ?)
		ORDER BY requested_at`

	queryResolveWithdrawal = `
		UPDATE withdrawal_requests
		SET status = ?, resolved_at = ?, resolution_note = ?, payout_ref = ?
		WHERE id = ? AND status = 'pending'`

	querySumWithdrawnInRange = `
		SELECT COALESCE(SUM(amount), 0)
		FROM withdrawal_requests
		WHERE status != 'rejected' AND requested_at >= ? AND requested_at < ?`
)
