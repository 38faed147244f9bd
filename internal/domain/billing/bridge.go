package billing

import (
	"context"
	"strings"
	"time"

	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lifecycle is the part of the subscription manager settlements drive.
type Lifecycle interface {
	Get(ctx context.Context, id uuid.UUID) (*subscriptions.Subscription, error)
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*subscriptions.Subscription, error)
	Renew(ctx context.Context, id uuid.UUID) (*subscriptions.Subscription, error)
	MarkPaymentFailed(ctx context.Context, id uuid.UUID, reason string) (*subscriptions.Subscription, error)
}

// Settlement is a gateway's report that a charge for a subscription
// succeeded or failed. A zero Amount means the subscription's own amount.
type Settlement struct {
	SubscriptionID uuid.UUID
	ExternalRef    string
	Amount         float64
	Currency       string
	Succeeded      bool
	Renewal        bool
	FailureReason  string
}

type Outcome struct {
	Payment      *Payment                    `json:"payment"`
	Subscription *subscriptions.Subscription `json:"subscription,omitempty"`
	// Duplicate is set when the callback was seen before and nothing was applied.
	Duplicate bool `json:"duplicate"`
}

type Bridge struct {
	db   *gorm.DB
	subs Lifecycle
	log  *logger.Logger
}

func NewBridge(db *gorm.DB, subs Lifecycle, log *logger.Logger) *Bridge {
	return &Bridge{db: db, subs: subs, log: log.With("component", "PaymentBridge")}
}

// Settle records the payment and applies it to the subscription. Each
// ExternalRef is applied at most once. A settlement the subscription rejects
// stays on record as unapplied.
func (b *Bridge) Settle(ctx context.Context, s Settlement) (*Outcome, error) {
	ref := strings.TrimSpace(s.ExternalRef)
	if ref == "" {
		return nil, apperr.Validation("external reference is required")
	}
	if s.SubscriptionID == uuid.Nil {
		return nil, apperr.Validation("subscription id is required")
	}

	sub, err := b.subs.Get(ctx, s.SubscriptionID)
	if err != nil {
		return nil, err
	}

	payment := &Payment{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Amount:         s.Amount,
		Currency:       strings.ToUpper(strings.TrimSpace(s.Currency)),
		Status:         PaymentFailed,
		Renewal:        s.Renewal,
		ExternalRef:    ref,
		FailureReason:  s.FailureReason,
	}
	if payment.Amount == 0 {
		payment.Amount = sub.Amount
	}
	if payment.Currency == "" {
		payment.Currency = sub.Currency
	}
	if s.Succeeded {
		payment.Status = PaymentSucceeded
		payment.FailureReason = ""
	}

	if err := b.db.WithContext(ctx).Create(payment).Error; err != nil {
		mapped := apperr.FromDB("record payment", err, "")
		if !apperr.Is(mapped, apperr.KindConflict) {
			return nil, mapped
		}
		existing, err := b.byRef(ctx, ref)
		if err != nil {
			return nil, err
		}
		b.log.Info("duplicate settlement ignored", "external_ref", ref, "subscription_id", sub.ID)
		return &Outcome{Payment: existing, Duplicate: true}, nil
	}

	updated, err := b.apply(ctx, sub.ID, s)
	if err != nil {
		// Let the gateway retry infrastructure failures.
		if apperr.KindOf(err) == apperr.KindUnexpected {
			if delErr := b.db.WithContext(ctx).Delete(&Payment{}, "id = ?", payment.ID).Error; delErr != nil {
				b.log.Error("failed to roll back payment record", "payment_id", payment.ID, "error", delErr)
			}
			return &Outcome{Payment: payment}, err
		}
		b.markUnapplied(ctx, payment, apperr.PublicReason(err))
		return &Outcome{Payment: payment}, err
	}

	b.log.Info("payment settled",
		"payment_id", payment.ID, "subscription_id", sub.ID, "status", payment.Status, "renewal", s.Renewal)
	return &Outcome{Payment: payment, Subscription: updated}, nil
}

func (b *Bridge) markUnapplied(ctx context.Context, p *Payment, reason string) {
	if err := b.db.WithContext(ctx).Model(p).Updates(map[string]any{
		"status":         PaymentUnapplied,
		"failure_reason": reason,
	}).Error; err != nil {
		b.log.Error("failed to mark payment unapplied", "payment_id", p.ID, "error", err)
		return
	}
	p.Status, p.FailureReason = PaymentUnapplied, reason
	b.log.Warn("payment not applied", "payment_id", p.ID, "subscription_id", p.SubscriptionID, "reason", reason)
}

func (b *Bridge) apply(ctx context.Context, id uuid.UUID, s Settlement) (*subscriptions.Subscription, error) {
	switch {
	case !s.Succeeded:
		reason := s.FailureReason
		if reason == "" {
			reason = "payment failed"
		}
		return b.subs.MarkPaymentFailed(ctx, id, reason)
	case s.Renewal:
		return b.subs.Renew(ctx, id)
	default:
		return b.subs.ConfirmPayment(ctx, id)
	}
}

// ListPayments returns the user's payments, newest first.
func (b *Bridge) ListPayments(ctx context.Context, userID uuid.UUID) ([]Payment, error) {
	var list []Payment
	if err := b.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("list payments", err)
	}
	return list, nil
}

// GetPayment returns one of the user's payments.
func (b *Bridge) GetPayment(ctx context.Context, id, userID uuid.UUID) (*Payment, error) {
	var p Payment
	if err := b.db.WithContext(ctx).First(&p, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, apperr.FromDB("load payment", err, "Payment not found")
	}
	return &p, nil
}

// ListForSubscription returns the payments of one of the user's
// subscriptions, newest first.
func (b *Bridge) ListForSubscription(ctx context.Context, subscriptionID, userID uuid.UUID) ([]Payment, error) {
	sub, err := b.subs.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, apperr.NotFound("Subscription not found")
	}

	var list []Payment
	if err := b.db.WithContext(ctx).
		Where("subscription_id = ?", subscriptionID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("list subscription payments", err)
	}
	return list, nil
}

// Revenue sums succeeded payments since the given time, per currency.
func (b *Bridge) Revenue(ctx context.Context, since time.Time) (map[string]float64, error) {
	type currencyTotal struct {
		Currency string
		Total    float64
	}
	var rows []currencyTotal
	if err := b.db.WithContext(ctx).Model(&Payment{}).
		Select("currency, COALESCE(SUM(amount), 0) AS total").
		Where("status = ? AND created_at >= ?", PaymentSucceeded, since).
		Group("currency").
		Scan(&rows).Error; err != nil {
		return nil, apperr.Unexpected("sum revenue", err)
	}

	totals := make(map[string]float64, len(rows))
	for _, r := range rows {
		totals[r.Currency] = r.Total
	}
	return totals, nil
}

func (b *Bridge) byRef(ctx context.Context, ref string) (*Payment, error) {
	var p Payment
	if err := b.db.WithContext(ctx).Where("external_ref = ?", ref).First(&p).Error; err != nil {
		return nil, apperr.Unexpected("load duplicate payment", err)
	}
	return &p, nil
}
