package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Backend   string
	Database  DatabaseConfig
	Wallet    WalletConfig
	Scheduler SchedulerConfig
	Formance  FormanceConfig
	Payout    PayoutConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path               string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	PingTimeout        time.Duration
	CreateDemoAccounts bool
}

// WalletConfig holds the withdrawal window and cashback settings
type WalletConfig struct {
	Location     *time.Location
	WindowDay    int
	CashbackRate decimal.Decimal
	PlansFile    string
}

// SchedulerConfig holds the cashback reconciler settings
type SchedulerConfig struct {
	ReconcileInterval time.Duration
}

// FormanceConfig holds the optional ledger mirror settings.
// An empty StackURL disables the mirror.
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// PayoutConfig holds the Prime payout settings for approved withdrawals
type PayoutConfig struct {
	Enabled   bool
	Asset     string
	WalletId  string
	TokenRate decimal.Decimal
}
