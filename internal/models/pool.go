package models

import "time"

// TierBreakdown groups pool contributions for a single plan tier
type TierBreakdown struct {
	Count int   `json:"count"`
	Sum   int64 `json:"sum"`
}

// PoolSnapshot is the system-wide monthly withdrawal pool.
// It is a best-effort aggregate, not a consistent point-in-time view.
type PoolSnapshot struct {
	Month             string                     `json:"month"`
	TotalPool         int64                      `json:"total_pool"`
	Withdrawn         int64                      `json:"withdrawn"`
	Remaining         int64                      `json:"remaining"`
	PerTier           map[PlanTier]TierBreakdown `json:"per_tier"`
	EligibleUserCount int                        `json:"eligible_user_count"`
	ComputedAt        time.Time                  `json:"computed_at"`
}
