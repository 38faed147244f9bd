package access

import (
	"context"
	"fmt"

	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"

	"github.com/google/uuid"
)

// ActiveSubscriptions is the read side of the lifecycle manager the
// evaluator depends on.
type ActiveSubscriptions interface {
	GetActive(ctx context.Context, userID uuid.UUID) (*subscriptions.Subscription, error)
}

type Evaluator struct {
	subs ActiveSubscriptions
}

func NewEvaluator(subs ActiveSubscriptions) *Evaluator {
	return &Evaluator{subs: subs}
}

// Check decides whether userID may use something gated at requiredLevel.
func (e *Evaluator) Check(ctx context.Context, userID uuid.UUID, requiredLevel int) (Decision, error) {
	return e.CheckFor(ctx, userID, requiredLevel, "resource")
}

// CheckFor is Check with the gated thing named in the deny message.
func (e *Evaluator) CheckFor(ctx context.Context, userID uuid.UUID, requiredLevel int, subject string) (Decision, error) {
	sub, err := e.subs.GetActive(ctx, userID)
	if err != nil {
		return Decision{}, err
	}
	if sub == nil || sub.Tier == nil {
		return Decision{
			Reason:        ReasonNoActiveSubscription,
			Message:       fmt.Sprintf("No active subscription. Please subscribe to access this %s.", subject),
			RequiredLevel: requiredLevel,
		}, nil
	}
	return Evaluate(sub.Tier.AccessLevel, requiredLevel, subject), nil
}

// Evaluate compares a held access level against a required one. Higher levels
// include every lower one.
func Evaluate(currentLevel, requiredLevel int, subject string) Decision {
	if currentLevel >= requiredLevel {
		return Grant(requiredLevel, currentLevel)
	}
	return Decision{
		Reason:        ReasonInsufficientTier,
		Message:       fmt.Sprintf("This %s requires %s subscription or higher", subject, tiers.LevelName(requiredLevel)),
		RequiredLevel: requiredLevel,
		CurrentLevel:  currentLevel,
	}
}
