package common

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"marketplace-wallet-go/internal/models"
)

const samplePlans = `
plans:
  - tier: basic
    price: 990
  - tier: standard
    price: 1990
  - tier: pro
    price: 4990
  - tier: max
    price: 20000
    unlimited: true
`

func TestParsePlanCatalog(t *testing.T) {
	catalog, err := ParsePlanCatalog([]byte(samplePlans))
	if err != nil {
		t.Fatalf("ParsePlanCatalog failed: %v", err)
	}
	if len(catalog) != 4 {
		t.Fatalf("expected 4 plans, got %d", len(catalog))
	}

	price, err := catalog.Price(models.PlanMax)
	if err != nil || price != 20000 {
		t.Errorf("unexpected max price: %d %v", price, err)
	}
	if !catalog.IsUnlimited(models.PlanMax) || catalog.IsUnlimited(models.PlanPro) {
		t.Error("unlimited capability mismatch")
	}
	if price, _ := catalog.Price(models.PlanNone); price != 0 {
		t.Errorf("none tier must be free, got %d", price)
	}
}

func TestParsePlanCatalogErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"unknown tier", "plans:\n  - tier: gold\n    price: 10\n", "unknown plan tier"},
		{"free tier", "plans:\n  - tier: none\n    price: 10\n", "cannot be priced"},
		{"zero price", "plans:\n  - tier: basic\n    price: 0\n", "positive price"},
		{"duplicate", "plans:\n  - tier: basic\n    price: 1\n  - tier: BASIC\n    price: 2\n", "more than once"},
		{"empty", "plans: []\n", "no plans"},
		{"bad yaml", "plans: [", "unable to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlanCatalog([]byte(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadPlanCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.yaml")
	if err := os.WriteFile(path, []byte(samplePlans), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	catalog, err := LoadPlanCatalog(path)
	if err != nil {
		t.Fatalf("LoadPlanCatalog failed: %v", err)
	}
	if _, ok := catalog[models.PlanStandard]; !ok {
		t.Error("standard plan missing")
	}

	if _, err := LoadPlanCatalog(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
