package common

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"marketplace-wallet-go/internal/api"
	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/config"
	"marketplace-wallet-go/internal/database"
	"marketplace-wallet-go/internal/formance"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/payout"
	"marketplace-wallet-go/internal/store"
	"marketplace-wallet-go/internal/store/memory"

	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// Environment variables can also be set via shell export, docker, etc.
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Backend store.Backend
	Clock   clock.Clock
	Catalog models.PlanCatalog
	Wallet  *api.WalletService
	Mirror  *formance.Mirror // nil unless FORMANCE_STACK_URL is set
	Payout  *payout.Service  // nil unless PAYOUT_ENABLED
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeServices wires the wallet core with its backend and the optional
// ledger mirror and payout integrations.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	clk := clock.NewSystem(cfg.Wallet.Location)

	catalog, err := LoadPlanCatalog(cfg.Wallet.PlansFile)
	if err != nil {
		return nil, err
	}

	backend, err := InitializeBackend(ctx, cfg, clk)
	if err != nil {
		return nil, err
	}

	svcs := &Services{Backend: backend, Clock: clk, Catalog: catalog}

	opts := api.Options{
		Catalog:      catalog,
		CashbackRate: &cfg.Wallet.CashbackRate,
		WindowDay:    cfg.Wallet.WindowDay,
	}

	if cfg.Formance.StackURL != "" {
		mirror, err := formance.NewMirror(ctx, cfg.Formance)
		if err != nil {
			svcs.Close()
			return nil, err
		}
		svcs.Mirror = mirror
		opts.Publisher = mirror
	}

	if cfg.Payout.Enabled {
		zap.L().Info("Loading Prime API credentials")
		creds, err := loadPrimeCredentials()
		if err != nil {
			svcs.Close()
			return nil, err
		}
		payoutSvc, err := payout.NewService(ctx, creds, cfg.Payout)
		if err != nil {
			svcs.Close()
			return nil, err
		}
		svcs.Payout = payoutSvc
		opts.Payout = payoutSvc
	}

	svcs.Wallet = api.NewWalletService(backend, backend, clk, opts)

	zap.L().Info("Wallet services initialized",
		zap.String("backend", cfg.Backend),
		zap.Int("plans", len(catalog)),
		zap.Int("window_day", cfg.Wallet.WindowDay),
		zap.String("cashback_rate", cfg.Wallet.CashbackRate.String()),
		zap.Bool("ledger_mirror", svcs.Mirror != nil),
		zap.Bool("payout", svcs.Payout != nil))
	return svcs, nil
}

// InitializeBackend opens the configured wallet store without the rest of
// the service graph. Useful for read-only tooling.
func InitializeBackend(ctx context.Context, cfg *models.Config, clk clock.Clock) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		zap.L().Warn("Using in-memory backend, state is lost on exit")
		return memory.New(clk), nil
	case config.BackendSQLite, "":
		dbService, err := database.NewService(ctx, cfg.Database, clk)
		if err != nil {
			return nil, err
		}
		return dbService, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func (cs *Services) Close() {
	if cs.Backend != nil {
		cs.Backend.Close()
	}
}

func loadPrimeCredentials() (*credentials.Credentials, error) {
	accessKey := os.Getenv("PRIME_ACCESS_KEY")
	passphrase := os.Getenv("PRIME_PASSPHRASE")
	signingKey := os.Getenv("PRIME_SIGNING_KEY")

	if accessKey == "" || passphrase == "" || signingKey == "" {
		return nil, fmt.Errorf("missing required Prime API credentials: PRIME_ACCESS_KEY, PRIME_PASSPHRASE, PRIME_SIGNING_KEY")
	}

	return &credentials.Credentials{
		AccessKey:  accessKey,
		Passphrase: passphrase,
		SigningKey: signingKey,
	}, nil
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
