package common

import (
	"fmt"
	"strings"

	"marketplace-wallet-go/internal/models"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintSeparatorNewline prints a separator with a newline before it
func PrintSeparatorNewline(char string, width int) {
	fmt.Println("\n" + strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	PrintSeparatorNewline("=", width)
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// PrintBoxSeparator prints a box-drawing separator line (for sub-sections)
func PrintBoxSeparator(width int) {
	fmt.Println("├" + strings.Repeat("─", width))
}

// BoxPrefix returns the appropriate box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "│  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// ShortId truncates long identifiers for tabular output
func ShortId(id string) string {
	if id == "" {
		return "none"
	}
	if len(id) > 8 {
		return id[:8] + "..."
	}
	return id
}

// PrintWalletSnapshot prints the counters of a wallet under an account header
func PrintWalletSnapshot(acct *models.Account, snap *models.WalletSnapshot) {
	fmt.Printf("\n┌─ Account: %s (%s)\n", acct.Name, acct.Email)
	fmt.Printf("│  ID: %s\n", acct.Id)
	fmt.Printf("│  Plan: %s", snap.PlanTier)
	if snap.Unlimited {
		fmt.Print(" (unlimited)")
	}
	if !snap.Reconciled {
		fmt.Print(" [cashback not reconciled]")
	}
	fmt.Println()
	PrintBoxSeparator(78)
	fmt.Printf("%s %-18s: %12d  (plan %d, earned %d, purchased %d, spent %d)\n",
		BoxPrefix(false), "token balance", snap.Balance,
		snap.TokensPlan, snap.TokensEarned, snap.TokensPurchased, snap.TokensSpent)
	fmt.Printf("%s %-18s: %12d  (accrued %d, withdrawn %d)\n",
		BoxPrefix(true), "withdrawable", snap.Withdrawable,
		snap.CreditAccrued, snap.CreditWithdrawn)
}

// PrintResult prints the outcome of a wallet mutation
func PrintResult(res *models.Result) {
	if !res.Success {
		fmt.Printf("✗ %s: %s (requested %d, available %d)\n", res.Code, res.Message, res.Requested, res.Available)
		return
	}
	fmt.Printf("✓ %s (requested %d)\n", res.Code, res.Requested)
	if op := res.Operation; op != nil {
		fmt.Printf("  operation %s: %s %s %d -> %d\n", ShortId(op.Id), op.Kind, op.Field, op.BalanceBefore, op.BalanceAfter)
	}
	if w := res.Withdrawal; w != nil {
		fmt.Printf("  withdrawal %s: %s to %s\n", w.Id, w.Status, w.PayoutDestination)
	}
}
