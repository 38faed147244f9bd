package stripewebhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"academy-api/internal/domain/billing"
	stripeevents "academy-api/internal/infra/stripe"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

type Settler interface {
	Settle(ctx context.Context, s billing.Settlement) (*billing.Outcome, error)
}

type Handler struct {
	bridge         Settler
	endpointSecret string
	log            *logger.Logger
}

func NewHandler(bridge Settler, endpointSecret string, log *logger.Logger) *Handler {
	return &Handler{bridge: bridge, endpointSecret: endpointSecret, log: log.With("component", "StripeWebhook")}
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.endpointSecret == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "STRIPE_WEBHOOK_SECRET not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warn("stripe signature verification failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	eventType := string(event.Type)
	outcome := stripeevents.ClassifyEvent(eventType)
	if outcome == stripeevents.OutcomeIgnored {
		// Acknowledge unknown events to avoid retries
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	settlement, ok, err := settlementFromEvent(event, outcome)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event object"})
		return
	}
	if !ok {
		h.log.Warn("stripe event without subscription reference", "event_id", event.ID, "type", eventType)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	result, err := h.bridge.Settle(c.Request.Context(), settlement)
	if err != nil {
		// Return 200 for non-retryable errors; 500 for retryable.
		if apperr.KindOf(err) != apperr.KindUnexpected {
			h.log.Warn("stripe event not applied",
				"event_id", event.ID, "subscription_id", settlement.SubscriptionID, "reason", err.Error())
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		h.log.Error("stripe event settlement failed", "event_id", event.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply payment"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "received", "duplicate": result.Duplicate})
}

// settlementFromEvent decodes the event object. ok is false when the object
// does not reference one of our subscriptions.
func settlementFromEvent(event stripe.Event, outcome stripeevents.Outcome) (billing.Settlement, bool, error) {
	s := billing.Settlement{
		Succeeded: outcome == stripeevents.OutcomeSucceeded,
	}
	var meta map[string]string
	var objectID string

	if strings.HasPrefix(string(event.Type), "invoice.") {
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return s, false, err
		}
		meta = inv.Metadata
		objectID = inv.ID
		s.Currency = strings.ToUpper(string(inv.Currency))
		s.Renewal = inv.BillingReason == stripe.InvoiceBillingReasonSubscriptionCycle || stripeevents.IsRenewal(meta)
		if s.Succeeded {
			s.Amount = stripeevents.MajorUnits(inv.AmountPaid)
		} else {
			s.Amount = stripeevents.MajorUnits(inv.AmountDue)
			s.FailureReason = "invoice payment failed"
		}
	} else {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return s, false, err
		}
		meta = pi.Metadata
		objectID = pi.ID
		s.Currency = strings.ToUpper(string(pi.Currency))
		s.Amount = stripeevents.MajorUnits(pi.Amount)
		s.Renewal = stripeevents.IsRenewal(meta)
		if !s.Succeeded && pi.LastPaymentError != nil {
			s.FailureReason = pi.LastPaymentError.Msg
		}
	}

	s.ExternalRef = stripeevents.SettlementRef(outcome, objectID, event.ID)

	id, ok := stripeevents.SubscriptionRef(meta)
	if !ok {
		return s, false, nil
	}
	s.SubscriptionID = id
	return s, true, nil
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}
