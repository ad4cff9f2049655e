package formance

import (
	"context"
	"errors"
	"fmt"

	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/wallet"

	v3 "github.com/formancehq/formance-sdk-go/v3"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/sdkerrors"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"go.uber.org/zap"
)

var _ wallet.Publisher = (*Mirror)(nil)

const defaultLedgerName = "marketplace-wallets"

// Mirror copies committed wallet operations into a Formance ledger so the
// history can be audited outside the wallet database. The wallet store stays
// authoritative: mirror failures are logged and never surface to callers.
type Mirror struct {
	client *v3.Formance
	ledger string
}

// NewMirror connects to the stack and creates the ledger if it doesn't already exist.
func NewMirror(ctx context.Context, cfg models.FormanceConfig) (*Mirror, error) {
	if cfg.StackURL == "" || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("formance config requires StackURL, ClientID, and ClientSecret")
	}
	if cfg.LedgerName == "" {
		cfg.LedgerName = defaultLedgerName
	}

	zap.L().Info("Connecting to Formance Stack",
		zap.String("stack_url", cfg.StackURL),
		zap.String("ledger", cfg.LedgerName))

	client := v3.New(
		v3.WithServerURL(cfg.StackURL),
		v3.WithSecurity(shared.Security{
			ClientID:     v3.Pointer(cfg.ClientID),
			ClientSecret: v3.Pointer(cfg.ClientSecret),
		}),
	)

	m := &Mirror{client: client, ledger: cfg.LedgerName}
	if err := m.ensureLedger(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure ledger exists: %w", err)
	}

	zap.L().Info("Formance mirror initialized", zap.String("ledger", cfg.LedgerName))
	return m, nil
}

func (m *Mirror) ensureLedger(ctx context.Context) error {
	_, err := m.client.Ledger.V2.CreateLedger(ctx, operations.V2CreateLedgerRequest{
		Ledger: m.ledger,
		V2CreateLedgerRequest: shared.V2CreateLedgerRequest{
			Metadata: map[string]string{
				"application": "marketplace-wallet",
			},
		},
	})
	if err != nil {
		var apiErr *sdkerrors.V2ErrorResponse
		if errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumLedgerAlreadyExists {
			zap.L().Info("Ledger already exists", zap.String("ledger", m.ledger))
			return nil
		}
		return err
	}
	zap.L().Info("Ledger created", zap.String("ledger", m.ledger))
	return nil
}

// Ledger returns the ledger name operations are mirrored into.
func (m *Mirror) Ledger() string { return m.ledger }

// RegisterAccount tags the user's ledger account with directory metadata.
func (m *Mirror) RegisterAccount(ctx context.Context, acct *models.Account) error {
	addr := "users:" + acct.Id
	_, err := m.client.Ledger.V2.AddMetadataToAccount(ctx, operations.V2AddMetadataToAccountRequest{
		Ledger:      m.ledger,
		Address:     addr,
		RequestBody: accountMetadata(acct),
	})
	if err != nil {
		return fmt.Errorf("failed to register account %s: %w", acct.Id, err)
	}
	zap.L().Info("Account registered in Formance", zap.String("address", addr))
	return nil
}

func accountMetadata(acct *models.Account) map[string]string {
	return map[string]string{
		"entity_type":    "end_user",
		"name":           acct.Name,
		"email":          acct.Email,
		"plan_tier":      string(acct.PlanTier),
		"genuine":        fmt.Sprintf("%t", acct.Genuine),
		"administrative": fmt.Sprintf("%t", acct.Administrative),
	}
}

// isConflictError checks whether a Formance SDK error is a CONFLICT (duplicate reference).
func isConflictError(err error) bool {
	var apiErr *sdkerrors.V2ErrorResponse
	return errors.As(err, &apiErr) && apiErr.ErrorCode == shared.V2ErrorsEnumConflict
}

func strPtr(s string) *string { return &s }
func ptrInt64(v int64) *int64 { return &v }
