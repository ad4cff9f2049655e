package common

import (
	"fmt"
	"os"
	"path/filepath"

	"marketplace-wallet-go/internal/models"

	"gopkg.in/yaml.v2"
)

type PlanEntry struct {
	Tier      string `yaml:"tier"`
	Price     int64  `yaml:"price"`
	Unlimited bool   `yaml:"unlimited"`
}

type PlansConfig struct {
	Plans []PlanEntry `yaml:"plans"`
}

func LoadPlanCatalog(plansFile string) (models.PlanCatalog, error) {
	var plansPath string
	if filepath.IsAbs(plansFile) {
		plansPath = plansFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		plansPath = filepath.Join(wd, plansFile)
	}

	data, err := os.ReadFile(plansPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", plansFile, err)
	}
	return ParsePlanCatalog(data)
}

// ParsePlanCatalog decodes and validates a plans document.
func ParsePlanCatalog(data []byte) (models.PlanCatalog, error) {
	var config PlansConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unable to parse plans: %w", err)
	}

	catalog := make(models.PlanCatalog, len(config.Plans))
	for i, plan := range config.Plans {
		tier, err := models.ParsePlanTier(plan.Tier)
		if err != nil {
			return nil, fmt.Errorf("plan at index %d: %w", i, err)
		}
		if !tier.IsPaid() {
			return nil, fmt.Errorf("plan at index %d: tier %q cannot be priced", i, tier)
		}
		if plan.Price <= 0 {
			return nil, fmt.Errorf("plan at index %d (%s) must have a positive price", i, tier)
		}
		if _, dup := catalog[tier]; dup {
			return nil, fmt.Errorf("plan %s defined more than once", tier)
		}
		catalog[tier] = models.PlanConfig{Tier: tier, Price: plan.Price, Unlimited: plan.Unlimited}
	}

	if len(catalog) == 0 {
		return nil, fmt.Errorf("plans file defines no plans")
	}
	return catalog, nil
}
