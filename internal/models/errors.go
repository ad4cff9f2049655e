package models

import "errors"

// ErrUnknownPlanTier is returned when a tier has no entry in the plan catalog.
var ErrUnknownPlanTier = errors.New("unknown plan tier")
