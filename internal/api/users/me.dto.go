package users

import (
	"time"

	"github.com/google/uuid"
)

type MeResponse struct {
	User     UserDTO     `json:"user"`
	Billing  BillingDTO  `json:"billing"`
	Access   AccessDTO   `json:"access"`
	Learning LearningDTO `json:"learning"`
}

/* ---------- USER ---------- */

type UserDTO struct {
	ID     uuid.UUID `json:"id"`
	Region string    `json:"region"`
	Role   string    `json:"role"`
}

/* ---------- BILLING ---------- */

type BillingDTO struct {
	Tier         *TierDTO         `json:"tier"`
	Subscription *SubscriptionDTO `json:"subscription"`
	Renewal      *RenewalDTO      `json:"renewal"`
}

type TierDTO struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	AccessLevel int       `json:"access_level"`
}

type SubscriptionDTO struct {
	ID                      uuid.UUID  `json:"id"`
	Status                  string     `json:"status"`
	Frequency               string     `json:"frequency"`
	Amount                  float64    `json:"amount"`
	Currency                string     `json:"currency"`
	StartsAt                time.Time  `json:"starts_at"`
	CurrentPeriodEnd        *time.Time `json:"current_period_end"`
	WebinarCreditsRemaining int        `json:"webinar_credits_remaining"`
}

type RenewalDTO struct {
	NextBillingDate *time.Time `json:"next_billing_date"`
	DaysLeft        *int       `json:"days_left"`
	AutoRenew       bool       `json:"auto_renew"`
	FailedPayments  int        `json:"failed_payments"`
}

/* ---------- ACCESS ---------- */

type AccessDTO struct {
	State        string   `json:"state"` // active|none
	Level        int      `json:"level"`
	Capabilities []string `json:"capabilities"`
}

/* ---------- LEARNING ---------- */

type LearningDTO struct {
	Enrolled  int `json:"enrolled"`
	Completed int `json:"completed"`
}
