package access

import "academy-api/internal/platform/apperr"

type Reason string

const (
	ReasonNoActiveSubscription Reason = "no active subscription"
	ReasonInsufficientTier     Reason = "insufficient tier"
)

// Decision is the outcome of an access check. Reason and Message are empty
// when Allowed.
type Decision struct {
	Allowed       bool   `json:"allowed"`
	Reason        Reason `json:"reason,omitempty"`
	Message       string `json:"message,omitempty"`
	RequiredLevel int    `json:"required_level"`
	CurrentLevel  int    `json:"current_level,omitempty"`
}

func Grant(required, current int) Decision {
	return Decision{Allowed: true, RequiredLevel: required, CurrentLevel: current}
}

// Err converts a denial into a Forbidden error; it returns nil when Allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return apperr.Forbidden("%s", d.Message)
}
