package subscriptions

import (
	"time"

	"academy-api/internal/domain/tiers"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Frequency string

const (
	FrequencyMonthly Frequency = "monthly"
	FrequencyAnnual  Frequency = "annual"
)

// Next returns t advanced by one billing period.
func (f Frequency) Next(t time.Time) time.Time {
	if f == FrequencyAnnual {
		return t.AddDate(1, 0, 0)
	}
	return t.AddDate(0, 1, 0)
}

type Subscription struct {
	ID     uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID   `gorm:"type:uuid;not null;index" json:"user_id"`
	TierID uuid.UUID   `gorm:"type:uuid;not null;index" json:"tier_id"`
	Tier   *tiers.Tier `gorm:"foreignKey:TierID" json:"tier,omitempty"`

	// One active row per user: enforced by idx_subscriptions_one_active (see database.Migrate).
	Status    Status    `gorm:"type:varchar(20);not null;index" json:"status"`
	Frequency Frequency `gorm:"type:varchar(20);not null" json:"frequency"`
	Currency  string    `gorm:"type:varchar(3);not null" json:"currency"`
	Amount    float64   `gorm:"type:numeric(10,2);not null" json:"amount"`

	CurrentPeriodStart time.Time  `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	NextBillingDate    *time.Time `gorm:"index" json:"next_billing_date"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	ConsecutiveFailedPayments int        `gorm:"not null;default:0" json:"consecutive_failed_payments"`
	LastPaymentAttemptAt      *time.Time `json:"last_payment_attempt_at,omitempty"`
	AutoRenew                 bool       `gorm:"not null" json:"auto_renew"`
	WebinarCreditsRemaining   int        `gorm:"not null;default:0" json:"webinar_credits_remaining"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(*gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
