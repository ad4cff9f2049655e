package wallet

import (
	"context"
	"testing"
	"time"

	"marketplace-wallet-go/internal/clock"
	"marketplace-wallet-go/internal/models"
	"marketplace-wallet-go/internal/store"
	"marketplace-wallet-go/internal/store/memory"
)

var msk = time.FixedZone("MSK", 3*3600)

func testCatalog() models.PlanCatalog {
	return models.PlanCatalog{
		models.PlanBasic:    {Tier: models.PlanBasic, Price: 990},
		models.PlanStandard: {Tier: models.PlanStandard, Price: 1990},
		models.PlanPro:      {Tier: models.PlanPro, Price: 4990},
		models.PlanMax:      {Tier: models.PlanMax, Price: 20000, Unlimited: true},
	}
}

type fixture struct {
	store       *memory.Store
	clock       *clock.Fixed
	catalog     models.PlanCatalog
	cashback    *CashbackEngine
	consumption *ConsumptionValidator
	pool        *PoolAggregator
	window      *WindowController
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	clk := clock.NewFixed(now)
	s := memory.New(clk)
	catalog := testCatalog()
	pool := NewPoolAggregator(s, s, catalog, DefaultCashbackRate, clk)
	return &fixture{
		store:       s,
		clock:       clk,
		catalog:     catalog,
		cashback:    NewCashbackEngine(s, s, catalog, DefaultCashbackRate, clk),
		consumption: NewConsumptionValidator(s, s, catalog, clk),
		pool:        pool,
		window:      NewWindowController(s, s, pool, Window{Day: DefaultWindowDay, Location: msk}, clk),
	}
}

type accountSpec struct {
	name      string
	tier      models.PlanTier
	activated time.Time
	genuine   bool
	admin     bool
}

func (f *fixture) addAccount(t *testing.T, spec accountSpec) string {
	t.Helper()
	ctx := context.Background()
	acct, err := f.store.CreateAccount(ctx, store.CreateAccountParams{
		Name:            spec.name,
		Email:           spec.name + "@example.com",
		PlanTier:        spec.tier,
		PlanActivatedAt: spec.activated,
		Genuine:         spec.genuine,
		Administrative:  spec.admin,
	})
	if err != nil {
		t.Fatalf("create account %s: %v", spec.name, err)
	}
	if _, err := f.store.Create(ctx, acct.Id); err != nil {
		t.Fatalf("create wallet %s: %v", spec.name, err)
	}
	return acct.Id
}

func (f *fixture) credit(t *testing.T, userId string, field models.Field, amount int64) {
	t.Helper()
	if _, err := f.store.ApplyDelta(context.Background(), userId, field, amount); err != nil {
		t.Fatalf("seed %s: %v", field, err)
	}
}

func (f *fixture) wallet(t *testing.T, userId string) models.Wallet {
	t.Helper()
	w, err := f.store.Get(context.Background(), userId)
	if err != nil {
		t.Fatalf("get wallet: %v", err)
	}
	return *w
}

func (f *fixture) operations(t *testing.T, userId string) []models.OperationRecord {
	t.Helper()
	ops, err := f.store.Operations(context.Background(), userId)
	if err != nil {
		t.Fatalf("operations: %v", err)
	}
	return ops
}

type recordingPublisher struct {
	records []models.OperationRecord
}

func (p *recordingPublisher) Publish(_ context.Context, rec models.OperationRecord) {
	p.records = append(p.records, rec)
}
