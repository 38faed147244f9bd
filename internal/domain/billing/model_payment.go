package billing

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentSucceeded PaymentStatus = "succeeded"
	PaymentFailed    PaymentStatus = "failed"
	// Received from the gateway but rejected by the subscription, e.g. a
	// late success for a cancelled subscription. Not counted as revenue.
	PaymentUnapplied PaymentStatus = "unapplied"
)

// Payment is one settlement callback as received from the gateway.
type Payment struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID     `gorm:"type:uuid;not null;index" json:"subscription_id"`
	UserID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"user_id"`
	Amount         float64       `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency       string        `gorm:"type:varchar(3);not null" json:"currency"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null" json:"status"`
	Renewal        bool          `gorm:"not null;default:false" json:"renewal"`
	// Charged object id for successes, event id for failures; repeats of the
	// same settlement collide here.
	ExternalRef   string    `gorm:"not null;uniqueIndex:idx_payments_external_ref" json:"external_ref"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (p *Payment) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
