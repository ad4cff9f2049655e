package models

import (
	"fmt"
	"strings"
)

// PlanTier is the user's active paid subscription level
type PlanTier string

const (
	PlanNone     PlanTier = "none"
	PlanBasic    PlanTier = "basic"
	PlanStandard PlanTier = "standard"
	PlanPro      PlanTier = "pro"
	PlanMax      PlanTier = "max"
)

// PlanTiers lists the paid tiers in ascending order.
var PlanTiers = []PlanTier{PlanBasic, PlanStandard, PlanPro, PlanMax}

// ParsePlanTier normalizes a tier name. Empty input maps to PlanNone.
func ParsePlanTier(s string) (PlanTier, error) {
	switch t := PlanTier(strings.ToLower(strings.TrimSpace(s))); t {
	case "", PlanNone:
		return PlanNone, nil
	case PlanBasic, PlanStandard, PlanPro, PlanMax:
		return t, nil
	default:
		return PlanNone, fmt.Errorf("unknown plan tier %q", s)
	}
}

// IsPaid reports whether the tier is a paid plan.
func (t PlanTier) IsPaid() bool {
	return t != PlanNone && t != ""
}

// PlanConfig describes one tier of the plan catalog
type PlanConfig struct {
	Tier      PlanTier
	Price     int64
	Unlimited bool
}

// PlanCatalog maps tiers to their price and capabilities
type PlanCatalog map[PlanTier]PlanConfig

// Price returns the fixed monetary price of a tier. PlanNone is free.
func (c PlanCatalog) Price(tier PlanTier) (int64, error) {
	if !tier.IsPaid() {
		return 0, nil
	}
	p, ok := c[tier]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownPlanTier, tier)
	}
	return p.Price, nil
}

// IsUnlimited reports whether the tier carries the unlimited consumption capability.
func (c PlanCatalog) IsUnlimited(tier PlanTier) bool {
	p, ok := c[tier]
	return ok && p.Unlimited
}
