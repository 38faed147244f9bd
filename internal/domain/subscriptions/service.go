package subscriptions

import (
	"context"
	"errors"
	"strings"
	"time"

	"academy-api/internal/domain/tiers"
	"academy-api/internal/platform/apperr"
	"academy-api/internal/platform/logger"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultFailedPaymentThreshold = 3

// Listener observes committed status transitions. From is empty for a
// subscription created directly in its first status.
type Listener interface {
	SubscriptionChanged(ctx context.Context, sub Subscription, from, to Status)
}

type ListenerFunc func(ctx context.Context, sub Subscription, from, to Status)

func (f ListenerFunc) SubscriptionChanged(ctx context.Context, sub Subscription, from, to Status) {
	f(ctx, sub, from, to)
}

type Options struct {
	FailedPaymentThreshold int
	Now                    func() time.Time
}

type Service struct {
	db        *gorm.DB
	catalog   *tiers.Catalog
	log       *logger.Logger
	now       func() time.Time
	threshold int
	listeners []Listener
}

func NewService(db *gorm.DB, catalog *tiers.Catalog, log *logger.Logger, opts Options) *Service {
	s := &Service{
		db:        db,
		catalog:   catalog,
		log:       log.With("component", "SubscriptionService"),
		now:       opts.Now,
		threshold: opts.FailedPaymentThreshold,
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.threshold <= 0 {
		s.threshold = defaultFailedPaymentThreshold
	}
	return s
}

func (s *Service) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

type SubscribeInput struct {
	UserID    uuid.UUID
	Region    string
	TierID    uuid.UUID
	Frequency Frequency
	Currency  string
}

var errAlreadyActive = apperr.Conflict("User already has an active subscription. Please cancel existing subscription first.")

func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) (*Subscription, error) {
	if in.UserID == uuid.Nil {
		return nil, apperr.Validation("user id is required")
	}
	freq := in.Frequency
	if freq == "" {
		freq = FrequencyMonthly
	}
	if freq != FrequencyMonthly && freq != FrequencyAnnual {
		return nil, apperr.Validation("unsupported payment frequency %q", in.Frequency)
	}

	tier, err := s.catalog.Get(ctx, in.TierID)
	if err != nil {
		return nil, err
	}
	if !tier.EligibleIn(in.Region) {
		return nil, apperr.Forbidden("%s subscription is only available to customers in region %s", tier.Name, tier.RegionCode)
	}

	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = defaultCurrency(in.Region)
	}
	amount, ok := tier.Price(currency)
	if !ok {
		return nil, apperr.Validation("unsupported currency %q", in.Currency)
	}

	now := s.now()
	next := freq.Next(now)
	sub := &Subscription{
		UserID:                  in.UserID,
		TierID:                  tier.ID,
		Status:                  StatusPending,
		Frequency:               freq,
		Currency:                currency,
		Amount:                  amount,
		CurrentPeriodStart:      now,
		CurrentPeriodEnd:        &next,
		NextBillingDate:         &next,
		AutoRenew:               true,
		WebinarCreditsRemaining: tier.WebinarCredits,
	}
	if amount == 0 {
		sub.Status = StatusActive
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var active int64
		if err := tx.Model(&Subscription{}).
			Where("user_id = ? AND status = ?", in.UserID, StatusActive).
			Count(&active).Error; err != nil {
			return apperr.Unexpected("count active subscriptions", err)
		}
		if active > 0 {
			return errAlreadyActive
		}
		if err := tx.Create(sub).Error; err != nil {
			return mapWriteError("create subscription", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sub.Tier = tier

	s.log.Info("subscription created",
		"subscription_id", sub.ID, "user_id", sub.UserID, "tier", tier.Code, "status", sub.Status)
	if sub.Status == StatusActive {
		s.notify(ctx, *sub, "", StatusActive)
	}
	return sub, nil
}

// ConfirmPayment activates a pending subscription. Confirming an active one
// is a no-op.
func (s *Service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	var sub Subscription
	var from Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadForUpdate(tx, id, &sub); err != nil {
			return err
		}
		from = sub.Status
		if sub.Status == StatusActive {
			return nil
		}
		return s.apply(tx, &sub, StatusActive, map[string]any{
			"consecutive_failed_payments": 0,
		})
	})
	if err != nil {
		return nil, err
	}
	if from != StatusActive {
		s.log.Info("subscription payment confirmed", "subscription_id", sub.ID)
		s.notify(ctx, sub, from, StatusActive)
	}
	return &sub, nil
}

// MarkPaymentFailed records a failed settlement. An active subscription that
// reaches the failure threshold expires.
func (s *Service) MarkPaymentFailed(ctx context.Context, id uuid.UUID, reason string) (*Subscription, error) {
	var sub Subscription
	expired := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadForUpdate(tx, id, &sub); err != nil {
			return err
		}
		now := s.now()
		if err := tx.Model(&Subscription{}).
			Where("id = ?", sub.ID).
			Updates(map[string]any{
				"consecutive_failed_payments": gorm.Expr("consecutive_failed_payments + 1"),
				"last_payment_attempt_at":     now,
			}).Error; err != nil {
			return apperr.Unexpected("record failed payment", err)
		}
		if err := loadForUpdate(tx, id, &sub); err != nil {
			return err
		}
		if sub.Status != StatusActive || sub.ConsecutiveFailedPayments < s.threshold {
			return nil
		}
		expired = true
		return s.apply(tx, &sub, StatusExpired, map[string]any{
			"auto_renew":         false,
			"current_period_end": now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Warn("subscription payment failed",
		"subscription_id", sub.ID, "failures", sub.ConsecutiveFailedPayments, "reason", reason)
	if expired {
		s.notify(ctx, sub, StatusActive, StatusExpired)
	}
	return &sub, nil
}

// Renew settles a renewal payment: the billing period of an active
// subscription moves forward one step. A pending subscription is confirmed.
func (s *Service) Renew(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	var sub Subscription
	var from Status
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadForUpdate(tx, id, &sub); err != nil {
			return err
		}
		from = sub.Status
		switch sub.Status {
		case StatusPending:
			return s.apply(tx, &sub, StatusActive, map[string]any{
				"consecutive_failed_payments": 0,
			})
		case StatusActive:
			start := s.now()
			if sub.NextBillingDate != nil {
				start = *sub.NextBillingDate
			}
			next := sub.Frequency.Next(start)
			if err := tx.Model(&Subscription{}).
				Where("id = ? AND status = ?", sub.ID, StatusActive).
				Updates(map[string]any{
					"current_period_start":        start,
					"current_period_end":          next,
					"next_billing_date":           next,
					"consecutive_failed_payments": 0,
				}).Error; err != nil {
				return apperr.Unexpected("renew subscription", err)
			}
			return loadForUpdate(tx, id, &sub)
		default:
			return apperr.Conflict("Subscription is %s and cannot be renewed", sub.Status)
		}
	})
	if err != nil {
		return nil, err
	}
	if from == StatusPending {
		s.notify(ctx, sub, from, StatusActive)
	}
	s.log.Info("subscription renewed", "subscription_id", sub.ID, "next_billing_date", sub.NextBillingDate)
	return &sub, nil
}

// Cancel ends the user's active subscription immediately. There is no grace
// period.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND status = ?", userID, StatusActive).First(&sub).Error
		if err != nil {
			return apperr.FromDB("load active subscription", err, "No active subscription found")
		}
		now := s.now()
		return s.apply(tx, &sub, StatusCancelled, map[string]any{
			"current_period_end": now,
			"cancelled_at":       now,
			"auto_renew":         false,
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("subscription cancelled", "subscription_id", sub.ID, "user_id", userID)
	s.notify(ctx, sub, StatusActive, StatusCancelled)
	return &sub, nil
}

// Expire moves an active subscription to expired. This is the target of the
// external time-driven trigger.
func (s *Service) Expire(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadForUpdate(tx, id, &sub); err != nil {
			return err
		}
		return s.apply(tx, &sub, StatusExpired, map[string]any{
			"auto_renew":         false,
			"current_period_end": s.now(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("subscription expired", "subscription_id", sub.ID)
	s.notify(ctx, sub, StatusActive, StatusExpired)
	return &sub, nil
}

// ExpireOverdue expires paid active subscriptions whose next billing date
// passed more than grace ago. It returns how many were expired.
func (s *Service) ExpireOverdue(ctx context.Context, grace time.Duration) (int, error) {
	cutoff := s.now().Add(-grace)

	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).Model(&Subscription{}).
		Where("status = ? AND amount > 0 AND next_billing_date IS NOT NULL AND next_billing_date < ?", StatusActive, cutoff).
		Pluck("id", &ids).Error; err != nil {
		return 0, apperr.Unexpected("find overdue subscriptions", err)
	}

	expired := 0
	var firstErr error
	for _, id := range ids {
		if _, err := s.Expire(ctx, id); err != nil {
			// Someone else moved it first.
			if apperr.Is(err, apperr.KindConflict) {
				continue
			}
			s.log.Error("expire overdue subscription failed", "subscription_id", id, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		expired++
	}
	return expired, firstErr
}

// GetActive returns the user's active subscription, or nil.
func (s *Service) GetActive(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	var sub Subscription
	err := s.db.WithContext(ctx).
		Preload("Tier").
		Where("user_id = ? AND status = ?", userID, StatusActive).
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Unexpected("load active subscription", err)
	}
	return &sub, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Subscription, error) {
	var sub Subscription
	if err := s.db.WithContext(ctx).Preload("Tier").First(&sub, "id = ?", id).Error; err != nil {
		return nil, apperr.FromDB("load subscription", err, "Subscription not found")
	}
	return &sub, nil
}

// History returns every subscription of the user, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID) ([]Subscription, error) {
	var list []Subscription
	if err := s.db.WithContext(ctx).
		Preload("Tier").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, apperr.Unexpected("load subscription history", err)
	}
	return list, nil
}

// ActiveByTier counts active subscriptions per tier code.
func (s *Service) ActiveByTier(ctx context.Context) (map[string]int, error) {
	type tierCount struct {
		Code  string
		Count int
	}
	var rows []tierCount
	if err := s.db.WithContext(ctx).Model(&Subscription{}).
		Select("tiers.code AS code, COUNT(subscriptions.id) AS count").
		Joins("JOIN tiers ON tiers.id = subscriptions.tier_id").
		Where("subscriptions.status = ?", StatusActive).
		Group("tiers.code").
		Scan(&rows).Error; err != nil {
		return nil, apperr.Unexpected("count active subscriptions", err)
	}

	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Code] = r.Count
	}
	return counts, nil
}

// apply performs a guarded status change inside tx and reloads sub.
func (s *Service) apply(tx *gorm.DB, sub *Subscription, to Status, updates map[string]any) error {
	if !CanTransition(sub.Status, to) {
		return apperr.Conflict("Subscription is %s and cannot become %s", sub.Status, to)
	}
	updates["status"] = to

	res := tx.Model(&Subscription{}).
		Where("id = ? AND status = ?", sub.ID, sub.Status).
		Updates(updates)
	if res.Error != nil {
		return mapWriteError("update subscription status", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.Conflict("Subscription was modified concurrently")
	}
	return loadForUpdate(tx, sub.ID, sub)
}

func (s *Service) notify(ctx context.Context, sub Subscription, from, to Status) {
	for _, l := range s.listeners {
		l.SubscriptionChanged(ctx, sub, from, to)
	}
}

func loadForUpdate(tx *gorm.DB, id uuid.UUID, sub *Subscription) error {
	if err := tx.Preload("Tier").First(sub, "id = ?", id).Error; err != nil {
		return apperr.FromDB("load subscription", err, "Subscription not found")
	}
	return nil
}

// mapWriteError turns the one-active-per-user index violation into the same
// conflict the pre-check reports.
func mapWriteError(op string, err error) error {
	mapped := apperr.FromDB(op, err, "Subscription not found")
	if apperr.Is(mapped, apperr.KindConflict) {
		return errAlreadyActive
	}
	return mapped
}

func defaultCurrency(region string) string {
	if strings.EqualFold(strings.TrimSpace(region), "BW") {
		return tiers.CurrencyBWP
	}
	return tiers.CurrencyZAR
}
