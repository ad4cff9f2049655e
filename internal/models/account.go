package models

import "time"

// Account is the identity and subscription view of a user the wallet core consumes
type Account struct {
	Id              string    `db:"id"`
	Name            string    `db:"name"`
	Email           string    `db:"email"`
	PlanTier        PlanTier  `db:"plan_tier"`
	PlanActivatedAt time.Time `db:"plan_activated_at"`
	Genuine         bool      `db:"genuine"`
	Administrative  bool      `db:"administrative"`
	Active          bool      `db:"active"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Capability is the per-account consumption capability, resolved once per call
type Capability struct {
	Unlimited bool
	Reason    string
}

// ResolveCapability derives the consumption capability from the account flags
// and the plan catalog.
func ResolveCapability(acct *Account, catalog PlanCatalog) Capability {
	switch {
	case acct == nil:
		return Capability{}
	case acct.Administrative:
		return Capability{Unlimited: true, Reason: "administrative"}
	case catalog.IsUnlimited(acct.PlanTier):
		return Capability{Unlimited: true, Reason: "unlimited_plan"}
	default:
		return Capability{}
	}
}
