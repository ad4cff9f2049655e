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

package payout

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"marketplace-wallet-go/internal/models"

	"github.com/coinbase-samples/prime-sdk-go/client"
	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/portfolios"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/coinbase-samples/prime-sdk-go/wallets"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

var (
	ErrZeroPayout  = errors.New("payout amount rounds to zero")
	ErrNoPortfolio = errors.New("default portfolio not found")
	ErrNoWallet    = errors.New("payout wallet not found")
	ErrNoAddress   = errors.New("payout destination is empty")
)

const defaultPortName = "Default Portfolio"

// Service sends approved cashback withdrawals through Coinbase Prime.
type Service struct {
	cfg             models.PayoutConfig
	portfolioId     string
	portfoliosSvc   portfolios.PortfoliosService
	walletsSvc      wallets.WalletsService
	transactionsSvc transactions.TransactionsService
}

// NewService connects to Prime and resolves the portfolio and source wallet
// payouts are drawn from.
func NewService(ctx context.Context, creds *credentials.Credentials, cfg models.PayoutConfig) (*Service, error) {
	if cfg.Asset == "" {
		return nil, fmt.Errorf("payout asset is required")
	}
	if !cfg.TokenRate.IsPositive() {
		return nil, fmt.Errorf("payout token rate must be positive, got %s", cfg.TokenRate)
	}

	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	restClient := client.NewRestClient(creds, httpClient)

	s := &Service{
		cfg:             cfg,
		portfoliosSvc:   portfolios.NewPortfoliosService(restClient),
		walletsSvc:      wallets.NewWalletsService(restClient),
		transactionsSvc: transactions.NewTransactionsService(restClient),
	}

	portfolioId, err := s.FindDefaultPortfolio(ctx)
	if err != nil {
		return nil, err
	}
	s.portfolioId = portfolioId

	if s.cfg.WalletId == "" {
		walletId, err := s.findTradingWallet(ctx)
		if err != nil {
			return nil, err
		}
		s.cfg.WalletId = walletId
	}

	zap.L().Info("Payout service initialized",
		zap.String("portfolio_id", s.portfolioId),
		zap.String("wallet_id", s.cfg.WalletId),
		zap.String("asset", s.cfg.Asset),
		zap.String("token_rate", s.cfg.TokenRate.String()))
	return s, nil
}

func createCustomHttpClient() (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

// FindDefaultPortfolio returns the id of the portfolio named "Default Portfolio".
func (s *Service) FindDefaultPortfolio(ctx context.Context) (string, error) {
	response, err := s.portfoliosSvc.ListPortfolios(ctx, &portfolios.ListPortfoliosRequest{})
	if err != nil {
		return "", fmt.Errorf("unable to list portfolios: %w", err)
	}

	for _, p := range response.Portfolios {
		if p.Name == defaultPortName {
			return p.Id, nil
		}
	}
	return "", ErrNoPortfolio
}

func (s *Service) findTradingWallet(ctx context.Context) (string, error) {
	symbol, _, _ := splitAsset(s.cfg.Asset)
	response, err := s.walletsSvc.ListWallets(ctx, &wallets.ListWalletsRequest{
		PortfolioId: s.portfolioId,
		Type:        "TRADING",
		Symbols:     []string{symbol},
	})
	if err != nil {
		return "", fmt.Errorf("unable to list wallets: %w", err)
	}
	if len(response.Wallets) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoWallet, symbol)
	}
	return response.Wallets[0].Id, nil
}

// Dispatch converts the withdrawn credit into the payout asset and creates a
// Prime withdrawal. The withdrawal request id is the idempotency key, so a
// retried approval never pays out twice.
func (s *Service) Dispatch(ctx context.Context, req models.WithdrawalRequest) (string, error) {
	request, err := buildWithdrawalRequest(s.portfolioId, s.cfg, req)
	if err != nil {
		return "", err
	}

	zap.L().Info("Creating payout via Prime API",
		zap.String("withdrawal_id", req.Id),
		zap.String("user_id", req.UserId),
		zap.Int64("credit", req.Amount),
		zap.String("amount", request.Amount),
		zap.String("symbol", request.Symbol),
		zap.String("destination", req.PayoutDestination))

	response, err := s.transactionsSvc.CreateWalletWithdrawal(ctx, request)
	if err != nil {
		zap.L().Error("Failed to create payout",
			zap.String("withdrawal_id", req.Id),
			zap.String("amount", request.Amount),
			zap.Error(err))
		return "", fmt.Errorf("unable to create withdrawal: %w", err)
	}

	zap.L().Info("Payout created successfully",
		zap.String("activity_id", response.ActivityId),
		zap.String("withdrawal_id", req.Id))
	return response.ActivityId, nil
}

func buildWithdrawalRequest(portfolioId string, cfg models.PayoutConfig, req models.WithdrawalRequest) (*transactions.CreateWalletWithdrawalRequest, error) {
	address := strings.TrimSpace(req.PayoutDestination)
	if address == "" {
		return nil, ErrNoAddress
	}
	amount, err := payoutAmount(req.Amount, cfg.TokenRate)
	if err != nil {
		return nil, err
	}

	symbol, networkId, networkType := splitAsset(cfg.Asset)
	blockchainAddr := &model.BlockchainAddress{Address: address}
	if networkId != "" {
		blockchainAddr.Network = &model.NetworkDetails{
			Id:   networkId,
			Type: networkType,
		}
	}

	return &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:       portfolioId,
		SourceWalletId:    cfg.WalletId,
		Amount:            amount.String(),
		IdempotencyKey:    req.Id,
		Symbol:            symbol,
		DestinationType:   "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: blockchainAddr,
	}, nil
}

// payoutAmount converts credit units to the payout asset, truncated to cents.
func payoutAmount(credit int64, rate decimal.Decimal) (decimal.Decimal, error) {
	amount := decimal.NewFromInt(credit).Mul(rate).Truncate(2)
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %d credit at rate %s", ErrZeroPayout, credit, rate)
	}
	return amount, nil
}

// splitAsset parses "USDC-ethereum-mainnet" into symbol and network parts.
// A bare symbol leaves the network to Prime's default.
func splitAsset(asset string) (symbol, networkId, networkType string) {
	parts := strings.Split(asset, "-")
	symbol = parts[0]
	if len(parts) >= 3 {
		networkId = parts[1]
		networkType = strings.Join(parts[2:], "-")
	}
	return symbol, networkId, networkType
}
