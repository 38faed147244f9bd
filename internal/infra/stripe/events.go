package stripe

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Outcome is what a gateway event means for a subscription charge.
type Outcome string

const (
	OutcomeIgnored   Outcome = "ignored"
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// Metadata keys set on payment intents and invoices at checkout.
const (
	MetaSubscriptionID = "subscription_id"
	MetaRenewal        = "renewal"
)

// ClassifyEvent maps a Stripe event type onto a settlement outcome.
func ClassifyEvent(eventType string) Outcome {
	switch strings.TrimSpace(eventType) {
	case "payment_intent.succeeded", "invoice.paid", "invoice.payment_succeeded":
		return OutcomeSucceeded
	case "payment_intent.payment_failed", "invoice.payment_failed":
		return OutcomeFailed
	default:
		return OutcomeIgnored
	}
}

// SettlementRef is the idempotency key of a settlement. Successes are keyed
// on the charged object, so invoice.paid and invoice.payment_succeeded for
// one invoice collapse into a single settlement. Each failed attempt is its
// own event and counts on its own.
func SettlementRef(outcome Outcome, objectID, eventID string) string {
	objectID = strings.TrimSpace(objectID)
	if outcome == OutcomeSucceeded && objectID != "" {
		return objectID
	}
	return eventID
}

// SubscriptionRef reads our subscription id from object metadata.
func SubscriptionRef(meta map[string]string) (uuid.UUID, bool) {
	raw, ok := meta[MetaSubscriptionID]
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// IsRenewal reports whether metadata flags the charge as a renewal.
func IsRenewal(meta map[string]string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(meta[MetaRenewal]))
	return err == nil && v
}

// MajorUnits converts an amount in minor units (cents, thebe) to major units.
func MajorUnits(minor int64) float64 {
	return float64(minor) / 100
}
