package users

import (
	"time"

	"academy-api/internal/domain/access"
	"academy-api/internal/domain/courses"
	"academy-api/internal/domain/subscriptions"
	"academy-api/internal/domain/tiers"
)

func BuildTierDTO(t *tiers.Tier) *TierDTO {
	if t == nil {
		return nil
	}
	return &TierDTO{
		ID:          t.ID,
		Code:        t.Code,
		Name:        t.Name,
		AccessLevel: t.AccessLevel,
	}
}

func BuildSubscriptionDTO(sub *subscriptions.Subscription) *SubscriptionDTO {
	if sub == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:                      sub.ID,
		Status:                  string(sub.Status),
		Frequency:               string(sub.Frequency),
		Amount:                  sub.Amount,
		Currency:                sub.Currency,
		StartsAt:                sub.CurrentPeriodStart,
		CurrentPeriodEnd:        sub.CurrentPeriodEnd,
		WebinarCreditsRemaining: sub.WebinarCreditsRemaining,
	}
}

// BuildRenewalDTO is nil for free subscriptions, which never bill.
func BuildRenewalDTO(now time.Time, sub *subscriptions.Subscription) *RenewalDTO {
	if sub == nil || sub.Amount == 0 {
		return nil
	}

	var daysLeft *int
	if sub.NextBillingDate != nil {
		d := 0
		if now.Before(*sub.NextBillingDate) {
			d = int(sub.NextBillingDate.Sub(now).Hours() / 24)
		}
		daysLeft = &d
	}

	return &RenewalDTO{
		NextBillingDate: sub.NextBillingDate,
		DaysLeft:        daysLeft,
		AutoRenew:       sub.AutoRenew,
		FailedPayments:  sub.ConsecutiveFailedPayments,
	}
}

func BuildAccessDTO(sub *subscriptions.Subscription) AccessDTO {
	if sub == nil || sub.Tier == nil {
		return AccessDTO{State: "none", Capabilities: []string{}}
	}
	return AccessDTO{
		State:        "active",
		Level:        sub.Tier.AccessLevel,
		Capabilities: access.CapabilitiesFor(sub.Tier),
	}
}

func BuildLearningDTO(list []courses.Enrollment) LearningDTO {
	out := LearningDTO{Enrolled: len(list)}
	for _, e := range list {
		if e.Status == courses.EnrollmentCompleted {
			out.Completed++
		}
	}
	return out
}
