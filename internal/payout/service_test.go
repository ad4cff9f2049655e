package payout

import (
	"errors"
	"testing"

	"marketplace-wallet-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestPayoutAmount(t *testing.T) {
	tests := []struct {
		credit int64
		rate   string
		want   string
	}{
		{1500, "0.01", "15"},
		{1234, "0.01", "12.34"},
		{7, "0.001", "0"},
		{100, "1", "100"},
	}
	for _, tt := range tests {
		got, err := payoutAmount(tt.credit, decimal.RequireFromString(tt.rate))
		if tt.want == "0" {
			if !errors.Is(err, ErrZeroPayout) {
				t.Errorf("payoutAmount(%d, %s): expected ErrZeroPayout, got %v", tt.credit, tt.rate, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("payoutAmount(%d, %s): %v", tt.credit, tt.rate, err)
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("payoutAmount(%d, %s) = %s, want %s", tt.credit, tt.rate, got, tt.want)
		}
	}
}

func TestSplitAsset(t *testing.T) {
	tests := []struct {
		asset                  string
		symbol, netId, netType string
	}{
		{"USDC", "USDC", "", ""},
		{"USDC-ethereum-mainnet", "USDC", "ethereum", "mainnet"},
		{"USDC-base-mainnet-beta", "USDC", "base", "mainnet-beta"},
	}
	for _, tt := range tests {
		symbol, netId, netType := splitAsset(tt.asset)
		if symbol != tt.symbol || netId != tt.netId || netType != tt.netType {
			t.Errorf("splitAsset(%q) = %q %q %q", tt.asset, symbol, netId, netType)
		}
	}
}

func TestBuildWithdrawalRequest(t *testing.T) {
	cfg := models.PayoutConfig{
		Enabled:   true,
		Asset:     "USDC-ethereum-mainnet",
		WalletId:  "wallet-1",
		TokenRate: decimal.RequireFromString("0.01"),
	}
	req := models.WithdrawalRequest{Id: "wr-1", UserId: "u1", Amount: 2500, PayoutDestination: " 0xabc "}

	got, err := buildWithdrawalRequest("portfolio-1", cfg, req)
	if err != nil {
		t.Fatalf("buildWithdrawalRequest: %v", err)
	}
	if got.IdempotencyKey != "wr-1" {
		t.Errorf("IdempotencyKey = %q, want withdrawal id", got.IdempotencyKey)
	}
	if got.Amount != "25" || got.Symbol != "USDC" || got.SourceWalletId != "wallet-1" || got.PortfolioId != "portfolio-1" {
		t.Errorf("unexpected request %+v", got)
	}
	if got.BlockchainAddress.Address != "0xabc" {
		t.Errorf("Address = %q", got.BlockchainAddress.Address)
	}
	if got.BlockchainAddress.Network == nil || got.BlockchainAddress.Network.Id != "ethereum" {
		t.Errorf("expected ethereum network, got %+v", got.BlockchainAddress.Network)
	}

	req.PayoutDestination = "  "
	if _, err := buildWithdrawalRequest("portfolio-1", cfg, req); !errors.Is(err, ErrNoAddress) {
		t.Errorf("expected ErrNoAddress, got %v", err)
	}
}
